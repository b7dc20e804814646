package server

import (
	"net"
	"time"
)

// options Server初始化参数
type options struct {
	addr          [4]byte       // 监听地址，默认 0.0.0.0
	backlog       int           // listen 队列长度
	readBufferLen int           // 单次读取的最大长度，默认值是1024字节
	timeoutTicker time.Duration // 超时时间检查间隔
	timeout       time.Duration // 超时时间
}

type Option interface {
	apply(*options)
}

type funcServerOption struct {
	f func(*options)
}

func (fdo *funcServerOption) apply(do *options) {
	fdo.f(do)
}

func newFuncServerOption(f func(*options)) *funcServerOption {
	return &funcServerOption{
		f: f,
	}
}

func getDefaultOptions(opts ...Option) *options {
	options := &options{
		backlog:       512,
		readBufferLen: 1024,
	}

	for _, o := range opts {
		o.apply(options)
	}
	return options
}

// WithAddr 设置监听的 IPv4 地址
func WithAddr(ip string) Option {
	return newFuncServerOption(func(o *options) {
		v4 := net.ParseIP(ip).To4()
		if v4 == nil {
			panic("addr must be an IPv4 address")
		}
		copy(o.addr[:], v4)
	})
}

// WithBacklog 设置 listen 队列长度
func WithBacklog(num int) Option {
	return newFuncServerOption(func(o *options) {
		if num <= 0 {
			panic("backlog must greater than 0")
		}
		o.backlog = num
	})
}

// WithReadBufferLen 设置缓存区大小
func WithReadBufferLen(len int) Option {
	return newFuncServerOption(func(o *options) {
		if len <= 0 {
			panic("readBufferLen must greater than 0")
		}
		o.readBufferLen = len
	})
}

// WithTimeout 设置TCP超时检查的间隔时间以及超时时间
func WithTimeout(timeoutTicker, timeout time.Duration) Option {
	return newFuncServerOption(func(o *options) {
		if timeoutTicker <= 0 {
			panic("timeoutTicker must greater than 0")
		}
		if timeout <= 0 {
			panic("timeout must greater than 0")
		}

		o.timeoutTicker = timeoutTicker
		o.timeout = timeout
	})
}
