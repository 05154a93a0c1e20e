package push

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Channel is a live transport to one authenticated user. Sends are
// fire-and-forget; the registry never waits for a client acknowledgement.
type Channel interface {
	Send(v interface{}) error
	Close() error
}

// WSChannel wraps a gorilla websocket connection. gorilla allows only one
// concurrent writer, so every write goes through the mutex.
type WSChannel struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// NewWSChannel wraps conn with the given per-write deadline.
func NewWSChannel(conn *websocket.Conn, writeTimeout time.Duration) *WSChannel {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &WSChannel{conn: conn, writeTimeout: writeTimeout}
}

// Send writes v as a JSON frame.
func (c *WSChannel) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
