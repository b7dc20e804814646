//go:build linux || darwin

package server

import (
	"io"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cofepy/reactor/common"
)

// Conn 客户端长连接，作为处理器注册到 Reactor
type Conn struct {
	s            *Server     // 服务器引用
	fd           int         // 文件描述符
	addr         string      // 客户端地址
	buffer       *[]byte     // 读缓存区
	lastReadTime time.Time   // 最后一次读取数据的时间
	readBytes    int64       // 累计读取字节数
	writeBytes   int64       // 累计写入字节数
	data         interface{} // 业务自定义数据，用作扩展
	closed       bool
}

// newConn 创建到客户端的tcp连接
func newConn(fd int, addr string, s *Server) *Conn {
	return &Conn{
		s:            s,
		fd:           fd,
		addr:         addr,
		buffer:       s.readBufferPool.Get().(*[]byte),
		lastReadTime: time.Now(),
	}
}

// Fd 获取文件描述符
func (c *Conn) Fd() int {
	return c.fd
}

// OnReady 连接可读
func (c *Conn) OnReady(fd int, events common.Events) {
	if err := c.Read(); err != nil {
		c.s.closeConn(c, err)
	}
}

// GetAddr 获取客户端地址
func (c *Conn) GetAddr() string {
	return c.addr
}

// ReadBytes 累计读取字节数
func (c *Conn) ReadBytes() int64 {
	return c.readBytes
}

// WriteBytes 累计写入字节数
func (c *Conn) WriteBytes() int64 {
	return c.writeBytes
}

// Read 读取一次数据并交给 Handler，对端关闭时返回 io.EOF
func (c *Conn) Read() error {
	if c.closed {
		return ErrConnClosed
	}
	c.lastReadTime = time.Now()
	buf := *c.buffer

	n, err := unix.Read(c.fd, buf)
	if err != nil {
		// 缓存区暂无数据可读
		if err == unix.EAGAIN || err == unix.EINTR {
			return nil
		}
		return err
	}
	if n == 0 {
		return io.EOF
	}
	c.readBytes += int64(n)

	return c.s.handler.OnMessage(c, buf[:n])
}

// Write 写入数据，未能一次写完视为出错
func (c *Conn) Write(bytes []byte) (int, error) {
	if c.closed {
		return 0, ErrConnClosed
	}
	n, err := unix.Write(c.fd, bytes)
	if n > 0 {
		c.writeBytes += int64(n)
	}
	if err != nil {
		return 0, err
	}
	if n < len(bytes) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Close 关闭连接，OnClose 收到的 err 为 nil
func (c *Conn) Close() error {
	c.s.closeConn(c, nil)
	return nil
}

// GetData 获取数据
func (c *Conn) GetData() interface{} {
	return c.data
}

// SetData 设置数据
func (c *Conn) SetData(data interface{}) {
	c.data = data
}
