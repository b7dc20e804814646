//go:build linux || darwin

package server

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cofepy/reactor"
	"github.com/cofepy/reactor/common"
)

// ticker 定时向管道写入一个字节，读端注册到 Reactor，
// 这样超时检查和其他回调一样在事件循环中执行
type ticker struct {
	s    *Server
	r, w int
	stop chan struct{}
	done chan struct{}
}

func newTicker(s *Server, every time.Duration) (*ticker, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, err
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(p[0])
			_ = unix.Close(p[1])
			return nil, err
		}
	}

	t := &ticker{
		s:    s,
		r:    p[0],
		w:    p[1],
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if err := s.reactor.Register(t); err != nil {
		_ = unix.Close(t.r)
		_ = unix.Close(t.w)
		return nil, err
	}

	go t.run(every)
	return t, nil
}

func (t *ticker) Fd() int {
	return t.r
}

func (t *ticker) OnReady(fd int, events common.Events) {
	var buf [64]byte
	for {
		n, err := unix.Read(t.r, buf[:])
		if n <= 0 || err != nil {
			break
		}
	}
	t.s.checkTimeout()
}

func (t *ticker) run(every time.Duration) {
	defer close(t.done)
	tk := time.NewTicker(every)
	defer tk.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-tk.C:
			// 管道已满说明上一次还没处理，丢弃即可
			_, _ = unix.Write(t.w, []byte{1})
		}
	}
}

func (t *ticker) close() {
	close(t.stop)
	<-t.done

	if err := t.s.reactor.Unregister(t); err != nil && !errors.Is(err, reactor.ErrClosed) {
		log.Warnw("unregister ticker failed", "error", err)
	}
	_ = unix.Close(t.r)
	_ = unix.Close(t.w)
}
