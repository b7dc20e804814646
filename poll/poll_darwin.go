//go:build darwin

package poll

import (
	"golang.org/x/sys/unix"

	"github.com/cofepy/reactor/common"
)

// Poll kqueue 封装
//
// Wait 复用内部缓冲区，同一个 Poll 不能被多个 goroutine 同时 Wait。
type Poll struct {
	events []unix.Kevent_t
}

// NewPoll 创建 Poll
func NewPoll() (*Poll, error) {
	return &Poll{}, nil
}

func (p *Poll) Create() (common.Handle, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		log.Error(err)
		return -1, err
	}
	unix.CloseOnExec(kq)
	return common.Handle(kq), nil
}

func (p *Poll) Watch(h common.Handle, fd int) error {
	return p.change(h, fd, unix.EV_ADD)
}

func (p *Poll) Unwatch(h common.Handle, fd int) error {
	return p.change(h, fd, unix.EV_DELETE)
}

func (p *Poll) change(h common.Handle, fd int, flags uint16) error {
	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, unix.EVFILT_READ, int(flags))
	_, err := unix.Kevent(int(h), []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (p *Poll) Wait(h common.Handle, events []common.Event, timeoutMs int) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if cap(p.events) < len(events) {
		p.events = make([]unix.Kevent_t, len(events))
	}
	raw := p.events[:len(events)]

	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}

	n, err := unix.Kevent(int(h), nil, raw, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return -1, err
	}

	for i := 0; i < n; i++ {
		events[i] = common.Event{
			Fd:     int32(raw[i].Ident),
			Events: toEvents(raw[i]),
		}
	}
	return n, nil
}

func (p *Poll) Release(h common.Handle) error {
	return unix.Close(int(h))
}

func toEvents(e unix.Kevent_t) common.Events {
	var ev common.Events
	switch e.Filter {
	case unix.EVFILT_READ:
		ev |= common.EventRead
	case unix.EVFILT_WRITE:
		ev |= common.EventWrite
	}
	if e.Flags&unix.EV_ERROR != 0 {
		ev |= common.EventError
	}
	// 连接关闭
	if e.Flags&unix.EV_EOF != 0 {
		ev |= common.EventHangup
	}
	return ev
}
