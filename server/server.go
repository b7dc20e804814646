//go:build linux || darwin

// Package server 基于 reactor 的 TCP 服务，所有回调都在事件循环所在的 goroutine 中执行
package server

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sys/unix"

	"github.com/cofepy/reactor"
	"github.com/cofepy/reactor/common"
)

var (
	ErrReadTimeout  = errors.New("tcp read timeout")
	ErrServerClosed = errors.New("server closed")
	ErrConnClosed   = errors.New("conn closed")
)

var log = common.GetLogger()

// Handler Server 注册接口
type Handler interface {
	OnConnect(c *Conn)                     // OnConnect 当TCP长连接建立成功是回调
	OnMessage(c *Conn, bytes []byte) error // OnMessage 当客户端有数据写入是回调，返回错误会关闭连接
	OnClose(c *Conn, err error)            // OnClose 当客户端主动断开链接或者超时时回调,err返回关闭的原因
}

// Server TCP服务，监听 socket 自身作为处理器注册到 Reactor
type Server struct {
	options  *options         // 服务参数
	reactor  *reactor.Reactor // 事件分发
	serverFd int              // 服务端句柄
	addr     string           // 实际监听的地址
	handler  Handler          // 注册的处理

	readBufferPool *sync.Pool // 读缓存区池，新连接从池子中取缓存区，连接关闭时归还

	conns    map[int]*Conn // TCP长连接管理，只在事件循环中访问
	connsNum *atomic.Int64 // 当前建立的长连接数量

	ticker *ticker // 超时检查，未开启时为 nil
	closed bool
}

// NewServer 创建server服务器并注册到 r，port 为 0 时由系统分配端口
func NewServer(r *reactor.Reactor, port int, handler Handler, opts ...Option) (*Server, error) {
	options := getDefaultOptions(opts...)

	serverFd, addr, err := createListener(options.addr, port, options.backlog)
	if err != nil {
		log.Error(err)
		return nil, err
	}

	s := &Server{
		options:  options,
		reactor:  r,
		serverFd: serverFd,
		addr:     addr,
		handler:  handler,
		readBufferPool: &sync.Pool{
			New: func() interface{} {
				b := make([]byte, options.readBufferLen)
				return &b
			},
		},
		conns:    make(map[int]*Conn),
		connsNum: atomic.NewInt64(0),
	}

	// 监听socket
	if err := r.Register(s); err != nil {
		_ = unix.Close(serverFd)
		return nil, err
	}

	if options.timeout > 0 {
		t, err := newTicker(s, options.timeoutTicker)
		if err != nil {
			_ = r.Unregister(s)
			_ = unix.Close(serverFd)
			return nil, err
		}
		s.ticker = t
		log.Infof("check timeout enabled, check_time:%v, timeout:%v", options.timeoutTicker, options.timeout)
	}

	log.Infow("server listening", "addr", addr, "fd", serverFd)
	return s, nil
}

// Fd 监听 socket 的句柄
func (s *Server) Fd() int {
	return s.serverFd
}

// OnReady 监听 socket 可读，接受新连接
func (s *Server) OnReady(fd int, events common.Events) {
	s.accept()
}

// Addr 实际监听的地址
func (s *Server) Addr() string {
	return s.addr
}

// GetConnsNum 获取当前长连接的数量
func (s *Server) GetConnsNum() int64 {
	return s.connsNum.Load()
}

// GetConn 获取Conn，只能在事件循环中调用
func (s *Server) GetConn(fd int) (*Conn, bool) {
	c, ok := s.conns[fd]
	return c, ok
}

// accept 接受连接请求直到没有待处理的连接
func (s *Server) accept() {
	for {
		clientFd, sa, err := unix.Accept(s.serverFd)
		if err != nil {
			switch err {
			case unix.EAGAIN:
				return
			case unix.EINTR, unix.ECONNABORTED:
				continue
			default:
				log.Errorw("accept failed", "error", err)
				return
			}
		}

		// 设置为非阻塞状态
		if err := unix.SetNonblock(clientFd, true); err != nil {
			log.Errorw("set nonblock failed", "fd", clientFd, "error", err)
			_ = unix.Close(clientFd)
			continue
		}
		unix.CloseOnExec(clientFd)

		c := newConn(clientFd, getIPPort(sa), s)
		if err := s.reactor.Register(c); err != nil {
			log.Errorw("register conn failed", "fd", clientFd, "error", err)
			s.readBufferPool.Put(c.buffer)
			_ = unix.Close(clientFd)
			continue
		}

		s.conns[clientFd] = c
		s.connsNum.Inc()
		s.handler.OnConnect(c)
	}
}

// closeConn 注销并关闭连接，连接的销毁由 Server 负责而不是 Reactor
func (s *Server) closeConn(c *Conn, reason error) {
	if c.closed {
		return
	}
	c.closed = true

	if err := s.reactor.Unregister(c); err != nil && !errors.Is(err, reactor.ErrClosed) {
		log.Warnw("unregister conn failed", "fd", c.fd, "error", err)
	}
	if err := unix.Close(c.fd); err != nil {
		log.Warnw("close conn failed", "fd", c.fd, "error", err)
	}

	delete(s.conns, c.fd)
	s.readBufferPool.Put(c.buffer)
	c.buffer = nil
	s.connsNum.Dec()

	s.handler.OnClose(c, reason)
}

// checkTimeout 关闭超时的TCP长连接
func (s *Server) checkTimeout() {
	now := time.Now()
	for _, c := range s.conns {
		if now.Sub(c.lastReadTime) > s.options.timeout {
			s.closeConn(c, ErrReadTimeout)
		}
	}
}

// Close 关闭所有连接和监听 socket。不能和事件循环并发调用。
func (s *Server) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.ticker != nil {
		s.ticker.close()
	}
	for _, c := range s.conns {
		s.closeConn(c, ErrServerClosed)
	}

	if err := s.reactor.Unregister(s); err != nil && !errors.Is(err, reactor.ErrClosed) {
		log.Warnw("unregister listener failed", "error", err)
	}
	return unix.Close(s.serverFd)
}

func createListener(addr [4]byte, port, backlog int) (int, string, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, "", err
	}
	unix.CloseOnExec(fd)

	bound, err := listen(fd, addr, port, backlog)
	if err != nil {
		_ = unix.Close(fd)
		return -1, "", err
	}
	return fd, bound, nil
}

func listen(fd int, addr [4]byte, port, backlog int) (string, error) {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return "", err
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: addr}); err != nil {
		return "", err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return "", err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return "", err
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		return "", err
	}
	return getIPPort(sa), nil
}

func getIPPort(sa unix.Sockaddr) string {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(addr.Addr[:]).String(), strconv.Itoa(addr.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(addr.Addr[:]).String(), strconv.Itoa(addr.Port))
	default:
		return ""
	}
}
