package reactor

import "errors"

var (
	// ErrInit 多路复用器创建失败或缺少依赖
	ErrInit = errors.New("reactor: init failed")
	// ErrDuplicate 句柄或处理器已注册
	ErrDuplicate = errors.New("reactor: handler or fd already registered")
	// ErrNotFound 处理器未注册
	ErrNotFound = errors.New("reactor: handler not registered")
	// ErrFacility watch/unwatch/release 失败
	ErrFacility = errors.New("reactor: facility call failed")
	// ErrFatalWait wait 失败，事件循环终止
	ErrFatalWait = errors.New("reactor: wait failed")
	// ErrInvalidHandler 处理器为空、句柄为负或类型不可比较
	ErrInvalidHandler = errors.New("reactor: invalid handler")
	// ErrClosed reactor 已销毁
	ErrClosed = errors.New("reactor: closed")
)
