package hub

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 64
	writeTimeout   = 10 * time.Second
)

// Conn is the subset of *websocket.Conn the client needs. Tests substitute
// an in-memory implementation.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one websocket subscriber. Writes go through a buffered channel
// drained by a single write pump, since gorilla connections allow only one
// concurrent writer.
type Client struct {
	ID   string
	conn Conn

	send      chan []byte
	closeOnce sync.Once

	mu     sync.Mutex
	onDead func() // set by the hub at registration
}

func NewClient(conn Conn) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	go c.writePump()
	return c
}

// enqueue queues a frame for delivery. Returns false when the buffer is
// full or the client is closed, which the hub treats as a dead client.
func (c *Client) enqueue(data []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// setOnDead installs the callback fired when a write fails, so the hub can
// drop the client the moment its connection dies rather than waiting for
// the send buffer to fill.
func (c *Client) setOnDead(fn func()) {
	c.mu.Lock()
	c.onDead = fn
	c.mu.Unlock()
}

func (c *Client) writePump() {
	for data := range c.send {
		if d, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
			d.SetWriteDeadline(time.Now().Add(writeTimeout))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("hub: client %s write: %v", c.ID, err)
			c.mu.Lock()
			fn := c.onDead
			c.mu.Unlock()
			if fn != nil {
				fn()
			}
			return
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}
