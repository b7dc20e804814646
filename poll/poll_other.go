//go:build !linux && !darwin

package poll

import "github.com/cofepy/reactor/common"

// Poll 不支持的平台上的占位实现
type Poll struct{}

// NewPoll 总是返回 ErrUnsupported
func NewPoll() (*Poll, error) {
	return nil, ErrUnsupported
}

func (p *Poll) Create() (common.Handle, error) {
	return -1, ErrUnsupported
}

func (p *Poll) Watch(h common.Handle, fd int) error {
	return ErrUnsupported
}

func (p *Poll) Unwatch(h common.Handle, fd int) error {
	return ErrUnsupported
}

func (p *Poll) Wait(h common.Handle, events []common.Event, timeoutMs int) (int, error) {
	return -1, ErrUnsupported
}

func (p *Poll) Release(h common.Handle) error {
	return ErrUnsupported
}
