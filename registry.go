package reactor

import (
	"fmt"

	"github.com/cofepy/reactor/common"
)

// entry 一条注册记录
type entry struct {
	handler Handler
	fd      int // 注册时的句柄，注销时以它为准
}

// registry 已注册处理器表，按句柄和处理器身份双重索引
type registry struct {
	facility Facility
	handle   common.Handle

	byFd      map[int]*entry
	byHandler map[Handler]*entry
}

func newRegistry(f Facility, h common.Handle) *registry {
	return &registry{
		facility:  f,
		handle:    h,
		byFd:      make(map[int]*entry),
		byHandler: make(map[Handler]*entry),
	}
}

// register 句柄或身份任一重复即拒绝；watch 失败时不留下记录
func (r *registry) register(h Handler) error {
	if !validHandler(h) {
		return ErrInvalidHandler
	}
	fd := h.Fd()
	if _, ok := r.byFd[fd]; ok {
		return fmt.Errorf("%w: fd %d", ErrDuplicate, fd)
	}
	if e, ok := r.byHandler[h]; ok {
		return fmt.Errorf("%w: handler already bound to fd %d", ErrDuplicate, e.fd)
	}

	if err := r.facility.Watch(r.handle, fd); err != nil {
		return fmt.Errorf("%w: watch fd %d: %w", ErrFacility, fd, err)
	}

	e := &entry{handler: h, fd: fd}
	r.byFd[fd] = e
	r.byHandler[h] = e
	return nil
}

// unregister 先移除记录再调用 unwatch，unwatch 失败时记录仍已移除
func (r *registry) unregister(h Handler) error {
	e, ok := r.lookupHandler(h)
	if !ok {
		return ErrNotFound
	}
	delete(r.byHandler, e.handler)
	delete(r.byFd, e.fd)

	if err := r.facility.Unwatch(r.handle, e.fd); err != nil {
		return fmt.Errorf("%w: unwatch fd %d: %w", ErrFacility, e.fd, err)
	}
	return nil
}

func (r *registry) lookupHandler(h Handler) (e *entry, ok bool) {
	// 不可比较的类型作为 map 键会 panic，它们也不可能注册成功
	if !validHandlerType(h) {
		return nil, false
	}
	e, ok = r.byHandler[h]
	return e, ok
}

// lookup 按句柄查找，仅供事件分发使用
func (r *registry) lookup(fd int) *entry {
	return r.byFd[fd]
}

// clear 逐个注销剩余处理器，每次失败都交给 onErr
func (r *registry) clear(onErr func(fd int, err error)) {
	for len(r.byFd) > 0 {
		for _, e := range r.byFd {
			if err := r.unregister(e.handler); err != nil && onErr != nil {
				onErr(e.fd, err)
			}
			break
		}
	}
}

func (r *registry) len() int {
	return len(r.byFd)
}
