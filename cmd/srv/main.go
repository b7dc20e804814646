//go:build linux || darwin

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/color"

	"github.com/cofepy/reactor"
	"github.com/cofepy/reactor/common"
	"github.com/cofepy/reactor/poll"
	"github.com/cofepy/reactor/server"
)

var log = common.GetLogger()

var (
	addr        = flag.String("addr", "0.0.0.0", "listen address (IPv4)")
	port        = flag.Int("port", 5555, "listen port")
	waitTimeout = flag.Duration("wait-timeout", reactor.DefaultWaitTimeout, "reactor wait timeout, bounds stop latency")
	maxEvents   = flag.Int("max-events", reactor.DefaultMaxEvents, "ready descriptors handled per wait")
	idle        = flag.Duration("idle", 0, "close connections idle for longer than this, 0 disables")
)

func main() {
	flag.Parse()
	defer log.Sync()

	p, err := poll.NewPoll()
	if err != nil {
		log.Fatal(err)
	}
	r, err := reactor.New(p, reactor.WithWaitTimeout(*waitTimeout), reactor.WithMaxEvents(*maxEvents))
	if err != nil {
		log.Fatal(err)
	}

	opts := []server.Option{server.WithAddr(*addr)}
	if *idle > 0 {
		opts = append(opts, server.WithTimeout(*idle/4+time.Millisecond, *idle))
	}
	srv, err := server.NewServer(r, *port, server.EchoHandler{}, opts...)
	if err != nil {
		_ = r.Close()
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	color.Println(color.Green("echo server listening on ") + color.Bold(srv.Addr()))
	color.Println(color.Grey("press <ctrl>+<c> to stop it"))

	if err := r.Run(); err != nil {
		log.Error(err)
	}
	color.Println(color.Yellow("server interrupted, bye..."))

	if err := srv.Close(); err != nil {
		log.Warn(err)
	}
	if err := r.Close(); err != nil {
		log.Warn(err)
	}
}
