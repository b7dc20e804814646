//go:build linux || darwin

package server

import (
	gbytes "github.com/labstack/gommon/bytes"
)

// EchoHandler 把收到的数据原样写回客户端
type EchoHandler struct{}

func (EchoHandler) OnConnect(c *Conn) {
	log.Infow("new connection", "fd", c.Fd(), "addr", c.GetAddr())
}

func (EchoHandler) OnMessage(c *Conn, data []byte) error {
	_, err := c.Write(data)
	return err
}

func (EchoHandler) OnClose(c *Conn, err error) {
	log.Infow("connection lost",
		"fd", c.Fd(),
		"addr", c.GetAddr(),
		"read", gbytes.Format(c.ReadBytes()),
		"written", gbytes.Format(c.WriteBytes()),
		"reason", err,
	)
}
