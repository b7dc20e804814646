package reactor

import "github.com/cofepy/reactor/common"

// Facility 就绪通知机制（epoll、kqueue 或测试用的内存实现）
//
// Wait 最多填充 len(events) 个事件，返回非 nil error 表示致命错误，
// 事件循环不会重试。
type Facility interface {
	Create() (common.Handle, error)
	Watch(h common.Handle, fd int) error
	Unwatch(h common.Handle, fd int) error
	Wait(h common.Handle, events []common.Event, timeoutMs int) (int, error)
	Release(h common.Handle) error
}
