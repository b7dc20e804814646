package common

import (
	"fmt"
	"strings"
)

// Handle 多路复用器句柄（epoll/kqueue 的文件描述符）
type Handle int

// Events 就绪事件位图
type Events uint32

const (
	EventRead     Events = 1 << iota // 可读
	EventWrite                       // 可写
	EventPriority                    // 紧急数据
	EventError                       // 出错
	EventHangup                      // 对端关闭
)

var eventNames = []struct {
	bit  Events
	name string
}{
	{EventRead, "read"},
	{EventWrite, "write"},
	{EventPriority, "pri"},
	{EventError, "err"},
	{EventHangup, "hup"},
}

// Has 是否包含全部指定位
func (e Events) Has(bits Events) bool {
	return e&bits == bits
}

func (e Events) String() string {
	if e == 0 {
		return "none"
	}
	var parts []string
	rest := e
	for _, n := range eventNames {
		if e&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// Event 一次就绪通知：句柄 + 事件位图
type Event struct {
	Fd     int32  // 文件描述符
	Events Events // 事件类型
}

func (e Event) String() string {
	return fmt.Sprintf("fd=%d events=%s", e.Fd, e.Events)
}
