// Package poll 基于操作系统就绪通知机制（Linux epoll、Darwin kqueue）的 Facility 实现
package poll

import (
	"errors"

	"github.com/cofepy/reactor"
	"github.com/cofepy/reactor/common"
)

var log = common.GetLogger()

// ErrUnsupported 当前平台没有可用的就绪通知机制
var ErrUnsupported = errors.New("poll: platform not supported")

var _ reactor.Facility = (*Poll)(nil)
