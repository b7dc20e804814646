package reactor

import (
	"time"

	"go.uber.org/zap"
)

// WithWaitTimeout 设置 wait 超时时间，默认 250ms
func WithWaitTimeout(d time.Duration) Option {
	return newFuncOption(func(o *options) {
		if d <= 0 {
			panic("wait timeout must greater than 0")
		}
		o.waitTimeout = d
	})
}

// WithMaxEvents 设置单次 wait 返回的最大事件数，默认 10
func WithMaxEvents(num int) Option {
	return newFuncOption(func(o *options) {
		if num <= 0 {
			panic("maxEvents must greater than 0")
		}
		o.maxEvents = num
	})
}

// WithLogger 设置日志对象
func WithLogger(l *zap.SugaredLogger) Option {
	return newFuncOption(func(o *options) {
		if l == nil {
			panic("logger must not be nil")
		}
		o.logger = l
	})
}
