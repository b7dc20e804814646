package reactor

import (
	"errors"
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/cofepy/reactor/common"
)

var log = common.GetLogger()

// Reactor 单线程事件分发器
//
// Register/Unregister/Run/Close 必须在同一个逻辑线程中串行调用（回调内部调用也可以），
// 只有 Stop 可以在任意 goroutine 中调用。
type Reactor struct {
	options  *options // 参数
	facility Facility // 就绪通知机制
	handle   common.Handle
	registry *registry // 已注册的处理器

	events []common.Event // wait 输出缓冲区
	batch  []common.Event // 当前批次的快照，回调修改注册表不影响本批次遍历

	running *atomic.Bool // 事件循环运行标志
	closed  *atomic.Bool // 是否已销毁
}

// New 创建 Reactor，并向 facility 申请多路复用器句柄
func New(facility Facility, opts ...Option) (*Reactor, error) {
	if facility == nil {
		return nil, fmt.Errorf("%w: nil facility", ErrInit)
	}
	options := getDefaultOptions(opts...)

	handle, err := facility.Create()
	if err != nil {
		options.logger.Errorw("创建多路复用器失败", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	return &Reactor{
		options:  options,
		facility: facility,
		handle:   handle,
		registry: newRegistry(facility, handle),
		events:   make([]common.Event, options.maxEvents),
		batch:    make([]common.Event, 0, options.maxEvents),
		running:  atomic.NewBool(false),
		closed:   atomic.NewBool(false),
	}, nil
}

// Register 注册处理器，开始监听其句柄的可读事件
func (r *Reactor) Register(h Handler) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.registry.register(h); err != nil {
		return err
	}
	r.options.logger.Debugw("注册处理器", "fd", h.Fd(), "total", r.registry.len())
	return nil
}

// Unregister 注销处理器。不会调用处理器的销毁函数。
func (r *Reactor) Unregister(h Handler) error {
	if r.closed.Load() {
		return ErrClosed
	}
	err := r.registry.unregister(h)
	if !errors.Is(err, ErrNotFound) {
		r.options.logger.Debugw("注销处理器", "total", r.registry.len(), "error", err)
	}
	return err
}

// Len 当前注册的处理器数量
func (r *Reactor) Len() int {
	return r.registry.len()
}

// Running 事件循环是否在运行
func (r *Reactor) Running() bool {
	return r.running.Load()
}

// Run 事件循环，阻塞直到 Stop 被调用或 wait 出错
//
// Stop 返回 nil；wait 出错返回包装了 ErrFatalWait 的错误，不会重试。
func (r *Reactor) Run() error {
	if r.closed.Load() {
		return ErrClosed
	}
	timeout := r.options.timeoutMs()

	r.running.Store(true)
	defer r.running.Store(false)
	r.options.logger.Debugw("事件循环启动", "timeout_ms", timeout, "max_events", len(r.events))

	for r.running.Load() {
		n, err := r.facility.Wait(r.handle, r.events, timeout)
		if err == nil && n < 0 {
			err = fmt.Errorf("negative ready count %d", n)
		}
		if err != nil {
			r.options.logger.Errorw("wait 失败，事件循环退出", "error", err)
			return fmt.Errorf("%w: %w", ErrFatalWait, err)
		}
		if n > len(r.events) {
			n = len(r.events)
		}
		r.dispatch(n)
	}

	r.options.logger.Debug("事件循环停止")
	return nil
}

// Stop 通知事件循环退出，最迟在一个 wait 超时后生效
func (r *Reactor) Stop() {
	r.running.Store(false)
}

// dispatch 按 facility 返回的顺序分发本批次事件
func (r *Reactor) dispatch(n int) {
	r.batch = append(r.batch[:0], r.events[:n]...)
	for _, ev := range r.batch {
		fd := int(ev.Fd)
		e := r.registry.lookup(fd)
		if e == nil {
			// 已在本批次中被注销
			r.options.logger.Debugw("丢弃事件", "fd", fd, "events", ev.Events)
			continue
		}
		r.invoke(e.handler, fd, ev.Events)
	}
}

func (r *Reactor) invoke(h Handler, fd int, events common.Events) {
	defer func() {
		if p := recover(); p != nil {
			r.options.logger.Errorw("处理器 panic", "fd", fd, "panic", p, zap.Stack("stack"))
		}
	}()
	h.OnReady(fd, events)
}

// Close 注销所有处理器并释放多路复用器句柄，重复调用无副作用
//
// 剩余处理器各触发一次 unwatch，其失败只记录日志；返回 release 的错误。
func (r *Reactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.running.Store(false)

	r.registry.clear(func(fd int, err error) {
		r.options.logger.Warnw("注销处理器失败", "fd", fd, "error", err)
	})

	if err := r.facility.Release(r.handle); err != nil {
		r.options.logger.Errorw("释放多路复用器失败", "error", err)
		return fmt.Errorf("%w: release: %w", ErrFacility, err)
	}
	return nil
}
