package reactor

import (
	"reflect"

	"github.com/cofepy/reactor/common"
)

// Handler 注册到 Reactor 的事件处理器
//
// Reactor 只持有引用，不负责释放；处理器的身份由接口值相等性决定，
// 因此动态类型必须可比较（通常使用指针）。
type Handler interface {
	// Fd 监听的文件描述符
	Fd() int
	// OnReady 句柄就绪时回调，在事件循环所在 goroutine 同步执行
	OnReady(fd int, events common.Events)
}

// FuncHandler 基于函数的 Handler 实现
type FuncHandler struct {
	fd       int
	Context  interface{} // 业务自定义数据，Reactor 从不读写
	onReady  func(h *FuncHandler, events common.Events)
	teardown func(h *FuncHandler) error
}

// NewHandler 创建 FuncHandler
func NewHandler(fd int, ctx interface{}, onReady func(h *FuncHandler, events common.Events)) *FuncHandler {
	return &FuncHandler{
		fd:      fd,
		Context: ctx,
		onReady: onReady,
	}
}

// WithTeardown 设置销毁函数，由持有者调用 Close 触发
func (h *FuncHandler) WithTeardown(fn func(h *FuncHandler) error) *FuncHandler {
	h.teardown = fn
	return h
}

func (h *FuncHandler) Fd() int {
	return h.fd
}

func (h *FuncHandler) OnReady(fd int, events common.Events) {
	if h.onReady != nil {
		h.onReady(h, events)
	}
}

// Close 执行销毁函数。Reactor 不会调用它。
func (h *FuncHandler) Close() error {
	if h.teardown == nil {
		return nil
	}
	return h.teardown(h)
}

func validHandlerType(h Handler) bool {
	return h != nil && reflect.TypeOf(h).Comparable()
}

func validHandler(h Handler) bool {
	if !validHandlerType(h) {
		return false
	}
	if v := reflect.ValueOf(h); v.Kind() == reflect.Ptr && v.IsNil() {
		return false
	}
	return h.Fd() >= 0
}
