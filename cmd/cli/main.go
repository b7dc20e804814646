package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/labstack/gommon/color"

	"github.com/cofepy/reactor/common"
)

var log = common.GetLogger()

var (
	host    = flag.String("host", "127.0.0.1", "server host")
	port    = flag.Int("port", 5555, "server port")
	timeout = flag.Duration("timeout", 3*time.Second, "dial and reply timeout")
)

// waitServerResponse 循环读取server返回的数据
func waitServerResponse(conn net.Conn, replies chan<- string) {
	defer close(replies)
	rd := bufio.NewReader(conn)
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			log.Info("连接断开, error:", err)
			return
		}
		replies <- line
	}
}

func main() {
	flag.Parse()
	defer log.Sync()

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(*host, strconv.Itoa(*port)), *timeout)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	color.Println(color.Green("connected to ") + color.Bold(conn.RemoteAddr().String()))

	replies := make(chan string)
	go waitServerResponse(conn, replies)

	input := bufio.NewScanner(os.Stdin)
	for input.Scan() {
		if _, err := fmt.Fprintln(conn, input.Text()); err != nil {
			log.Error(err)
			return
		}
		select {
		case line, ok := <-replies:
			if !ok {
				return
			}
			fmt.Print(color.Cyan("< "), line)
		case <-time.After(*timeout):
			log.Warn("等待响应超时")
		}
	}
}
