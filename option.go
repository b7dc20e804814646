package reactor

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultWaitTimeout = 250 * time.Millisecond // 单次 wait 的超时，也是 Stop 生效的最大延迟
	DefaultMaxEvents   = 10                     // 单次 wait 最多返回的就绪事件数
)

// options Reactor 初始化参数
type options struct {
	waitTimeout time.Duration      // wait 超时时间
	maxEvents   int                // 每次 wait 的事件容量
	logger      *zap.SugaredLogger // 日志
}

type Option interface {
	apply(*options)
}

type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

func getDefaultOptions(opts ...Option) *options {
	options := &options{
		waitTimeout: DefaultWaitTimeout,
		maxEvents:   DefaultMaxEvents,
		logger:      log,
	}

	for _, o := range opts {
		o.apply(options)
	}
	return options
}

// timeoutMs 向上取整到毫秒，避免 1ms 以下的超时退化成非阻塞轮询
func (o *options) timeoutMs() int {
	ms := o.waitTimeout / time.Millisecond
	if o.waitTimeout%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}
