// Package polltest 提供内存实现的就绪通知机制，用于确定性测试
package polltest

import (
	"errors"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/cofepy/reactor/common"
)

var (
	ErrBadHandle  = errors.New("polltest: bad handle")
	ErrWatched    = errors.New("polltest: fd already watched")
	ErrNotWatched = errors.New("polltest: fd not watched")
)

// Op Facility 的原语
type Op int

const (
	OpCreate Op = iota
	OpWatch
	OpUnwatch
	OpWait
	OpRelease
)

// Fake 内存 Facility：记录每次调用，可按原语注入错误，
// Ready 投递的就绪事件按 FIFO 顺序由 Wait 取出，超出容量的部分留到下一次 Wait。
// 并发安全。
type Fake struct {
	mu      sync.Mutex
	notify  chan struct{}
	pending *queue.Queue // 待投递的 common.Event
	next    common.Handle
	live    map[common.Handle]map[int]struct{}
	errs    map[Op]error
	onWait  func(call int)

	creates   int
	waits     int
	releases  int
	watches   []int
	unwatches []int
}

// New 创建 Fake
func New() *Fake {
	return &Fake{
		notify:  make(chan struct{}, 1),
		pending: queue.New(),
		next:    3,
		live:    make(map[common.Handle]map[int]struct{}),
		errs:    make(map[Op]error),
	}
}

// Fail 让后续的 op 调用返回 err，err 为 nil 时恢复正常
func (f *Fake) Fail(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// OnWait 每次 Wait 开始时在锁外调用 fn，call 从 1 开始
func (f *Fake) OnWait(fn func(call int)) {
	f.mu.Lock()
	f.onWait = fn
	f.mu.Unlock()
}

// Ready 投递一个就绪事件，不检查 fd 是否被监听
func (f *Fake) Ready(fd int, events common.Events) {
	f.mu.Lock()
	f.pending.Add(common.Event{Fd: int32(fd), Events: events})
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *Fake) Create() (common.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if err := f.errs[OpCreate]; err != nil {
		return -1, err
	}
	h := f.next
	f.next++
	f.live[h] = make(map[int]struct{})
	return h, nil
}

func (f *Fake) Watch(h common.Handle, fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watches = append(f.watches, fd)
	if err := f.errs[OpWatch]; err != nil {
		return err
	}
	fds, ok := f.live[h]
	if !ok {
		return ErrBadHandle
	}
	if _, ok := fds[fd]; ok {
		return ErrWatched
	}
	fds[fd] = struct{}{}
	return nil
}

func (f *Fake) Unwatch(h common.Handle, fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unwatches = append(f.unwatches, fd)
	if err := f.errs[OpUnwatch]; err != nil {
		return err
	}
	fds, ok := f.live[h]
	if !ok {
		return ErrBadHandle
	}
	if _, ok := fds[fd]; !ok {
		return ErrNotWatched
	}
	delete(fds, fd)
	return nil
}

// Wait 取出最多 len(events) 个待投递事件；没有事件时阻塞到超时，timeoutMs < 0 表示不超时
func (f *Fake) Wait(h common.Handle, events []common.Event, timeoutMs int) (int, error) {
	f.mu.Lock()
	f.waits++
	call, hook := f.waits, f.onWait
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	var timeout <-chan time.Time
	if timeoutMs >= 0 {
		t := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
		defer t.Stop()
		timeout = t.C
	}

	for {
		n, ok, err := f.take(h, events)
		if ok {
			return n, err
		}
		select {
		case <-f.notify:
		case <-timeout:
			return 0, nil
		}
	}
}

// take ok 为 false 表示没有可投递的事件
func (f *Fake) take(h common.Handle, events []common.Event) (n int, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[OpWait]; err != nil {
		return 0, true, err
	}
	if _, live := f.live[h]; !live {
		return 0, true, ErrBadHandle
	}
	if f.pending.Length() == 0 {
		return 0, false, nil
	}
	for n < len(events) && f.pending.Length() > 0 {
		events[n] = f.pending.Remove().(common.Event)
		n++
	}
	return n, true, nil
}

func (f *Fake) Release(h common.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	if err := f.errs[OpRelease]; err != nil {
		return err
	}
	if _, ok := f.live[h]; !ok {
		return ErrBadHandle
	}
	delete(f.live, h)
	return nil
}

// Watched fd 当前是否在 h 上被监听
func (f *Fake) Watched(h common.Handle, fd int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.live[h][fd]
	return ok
}

// Live 未释放的句柄数
func (f *Fake) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// Pending 尚未被 Wait 取出的事件数
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending.Length()
}

func (f *Fake) Creates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *Fake) Waits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits
}

func (f *Fake) Releases() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases
}

// Watches 按调用顺序返回每次 Watch 的 fd（包括失败的调用）
func (f *Fake) Watches() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.watches...)
}

// Unwatches 按调用顺序返回每次 Unwatch 的 fd（包括失败的调用）
func (f *Fake) Unwatches() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.unwatches...)
}
