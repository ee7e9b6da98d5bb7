package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client is one upgraded connection. The hub queues frames with Send; a
// single writer goroutine drains the queue and keeps the connection alive
// with pings.
type Client struct {
	conn        *websocket.Conn
	id          string
	displayName string

	send chan []byte
	done chan struct{}

	// writeMu ensures only one goroutine writes to the socket at a time.
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, id, displayName string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		conn:        conn,
		id:          id,
		displayName: displayName,
		send:        make(chan []byte, buffer),
		done:        make(chan struct{}),
	}
}

func (c *Client) ID() string          { return c.id }
func (c *Client) DisplayName() string { return c.displayName }

// Send never blocks. It reports false once the queue is full or the client
// is closed.
func (c *Client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close is safe to call more than once and from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	})
}

func (c *Client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
