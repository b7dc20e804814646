//go:build linux

package poll

import (
	"golang.org/x/sys/unix"

	"github.com/cofepy/reactor/common"
)

// 水平触发，只关心可读
const epollRead = unix.EPOLLIN | unix.EPOLLRDHUP

// Poll epoll 封装
//
// Wait 复用内部缓冲区，同一个 Poll 不能被多个 goroutine 同时 Wait。
type Poll struct {
	events []unix.EpollEvent
}

// NewPoll 创建 Poll
func NewPoll() (*Poll, error) {
	return &Poll{}, nil
}

func (p *Poll) Create() (common.Handle, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		log.Error(err)
		return -1, err
	}
	return common.Handle(fd), nil
}

func (p *Poll) Watch(h common.Handle, fd int) error {
	return unix.EpollCtl(int(h), unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: epollRead,
		Fd:     int32(fd),
	})
}

func (p *Poll) Unwatch(h common.Handle, fd int) error {
	return unix.EpollCtl(int(h), unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *Poll) Wait(h common.Handle, events []common.Event, timeoutMs int) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if cap(p.events) < len(events) {
		p.events = make([]unix.EpollEvent, len(events))
	}
	raw := p.events[:len(events)]

	n, err := unix.EpollWait(int(h), raw, timeoutMs)
	if err != nil {
		// 被信号中断
		if err == unix.EINTR {
			return 0, nil
		}
		return -1, err
	}

	for i := 0; i < n; i++ {
		events[i] = common.Event{
			Fd:     raw[i].Fd,
			Events: toEvents(raw[i].Events),
		}
	}
	return n, nil
}

func (p *Poll) Release(h common.Handle) error {
	return unix.Close(int(h))
}

func toEvents(e uint32) common.Events {
	var ev common.Events
	if e&unix.EPOLLIN != 0 {
		ev |= common.EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		ev |= common.EventWrite
	}
	if e&unix.EPOLLPRI != 0 {
		ev |= common.EventPriority
	}
	if e&unix.EPOLLERR != 0 {
		ev |= common.EventError
	}
	// 对端关闭连接
	if e&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		ev |= common.EventHangup
	}
	return ev
}
