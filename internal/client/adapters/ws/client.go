// Package ws connects the monitor to the server push channel
package ws

import (
	"net/http"
	"sync"
	"time"

	"rotafacil/internal/client/ports"

	"github.com/gorilla/websocket"
)

const handshakeTimeout = 10 * time.Second

// Client implements WebSocketClientPort on top of gorilla/websocket.
// Close may be called from another goroutine to unblock ReadMessage.
type Client struct {
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

var _ ports.WebSocketClientPort = (*Client)(nil)

func NewClient() *Client {
	return &Client{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (c *Client) Connect(url string) error {
	conn, _, err := c.dialer.Dial(url, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) ReadMessage() ([]byte, error) {
	conn := c.current()
	if conn == nil {
		return nil, websocket.ErrBadHandshake
	}
	_, msg, err := conn.ReadMessage()
	return msg, err
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
