package live

import (
	"fmt"
	"log"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/protocol"
)

const (
	ErrNoCredential domain.Error = "no valid access credential"
	ErrDialFailed   domain.Error = "failed to open connection"
)

// DefaultLeaveReason is sent with the close frame of an explicit disconnect.
const DefaultLeaveReason = "Client wants to leave"

// Conn owns the one persistent connection. It is not safe for concurrent
// use: every method and every transport event must run on the same loop.
type Conn struct {
	url    string
	dialer Dialer
	creds  Credentials
	post   func(func())
	state  *State
	router *Router

	status    Status
	transport Transport
	attempt   uint64
	queue     [][]byte
}

// NewConn wires a connection manager. post schedules transport events onto
// the goroutine that owns the Conn; creds may be nil to skip the gate.
func NewConn(url string, dialer Dialer, creds Credentials, post func(func()), state *State, router *Router) *Conn {
	return &Conn{
		url:    url,
		dialer: dialer,
		creds:  creds,
		post:   post,
		state:  state,
		router: router,
		status: StatusDisconnected,
	}
}

func (c *Conn) Status() Status {
	return c.status
}

// Queued is the number of frames waiting for the next open.
func (c *Conn) Queued() int {
	return len(c.queue)
}

func (c *Conn) setStatus(status Status) {
	if c.status == status {
		return
	}
	log.Printf("[LIVE] %s -> %s", c.status, status)
	c.status = status
	c.state.setStatus(status)
}

// Connect starts a new attempt from the disconnected state.
func (c *Conn) Connect() error {
	if c.status != StatusDisconnected {
		log.Printf("[LIVE] Warning: nothing to connect, already %s", c.status)
		return nil
	}
	if c.creds != nil && !c.creds.AccessValid() {
		log.Printf("[LIVE] Connect refused: no valid access credential")
		c.state.setError("WS no valid access credential")
		return ErrNoCredential
	}

	c.state.setError("")
	c.attempt++
	c.setStatus(StatusConnecting)

	t, err := c.dialer.Dial(c.url, &attemptHandler{conn: c, attempt: c.attempt})
	if err != nil {
		log.Printf("[LIVE] Dial %s failed: %v", c.url, err)
		c.state.setError(fmt.Sprintf("WS connect failed: %v", err))
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("%w: %v", ErrDialFailed, err)
	}
	c.transport = t
	return nil
}

// Disconnect closes any open transport and resets the observable state. It
// is safe to call in any state. Frames still queued are dropped.
func (c *Conn) Disconnect(reason string) {
	if reason == "" {
		reason = DefaultLeaveReason
	}
	if c.transport != nil {
		log.Printf("[LIVE] Closing connection: %s", reason)
		if err := c.transport.Close(CloseNormal, reason); err != nil {
			log.Printf("[LIVE] Close failed: %v", err)
		}
		c.transport = nil
	}
	// events still in flight from the closed attempt are ignored
	c.attempt++
	c.queue = nil
	c.setStatus(StatusDisconnected)
	c.state.reset()
}

// Send transmits immediately while connected and queues otherwise. Failures
// are recorded in the observable error; the returned error is informational.
func (c *Conn) Send(f protocol.Frame) error {
	data, err := protocol.Encode(f)
	if err != nil {
		log.Printf("[LIVE] Failed to encode %s: %v", f.Type(), err)
		c.state.setError("WS failed to send")
		return err
	}
	if c.status != StatusConnected || c.transport == nil {
		c.queue = append(c.queue, data)
		return nil
	}
	if err := c.transport.Send(data); err != nil {
		log.Printf("[LIVE] Failed to send %s: %v", f.Type(), err)
		c.state.setError("WS failed to send")
		return err
	}
	return nil
}

func (c *Conn) handleOpen(attempt uint64) {
	if attempt != c.attempt || c.transport == nil {
		return
	}
	log.Printf("[LIVE] Connected to %s, flushing %d queued frames", c.url, len(c.queue))
	for len(c.queue) > 0 {
		if err := c.transport.Send(c.queue[0]); err != nil {
			// keep the rest for the next attempt; a close event follows
			log.Printf("[LIVE] Flush failed with %d frames left: %v", len(c.queue), err)
			c.state.setError("WS failed to send")
			return
		}
		c.queue = c.queue[1:]
	}
	c.queue = nil
	c.setStatus(StatusConnected)
}

func (c *Conn) handleMessage(attempt uint64, data []byte) {
	if attempt != c.attempt {
		return
	}
	c.router.Dispatch(data)
}

func (c *Conn) handleClose(attempt uint64, code int, reason string) {
	if attempt != c.attempt {
		return
	}
	if reason == "" {
		reason = "Unknown"
	}
	log.Printf("[LIVE] Connection closed: code %d, reason %s", code, reason)
	c.state.setError(fmt.Sprintf("WS disconnected: code %d, reason: %s.", code, reason))
	c.transport = nil
	c.setStatus(StatusDisconnected)
}

func (c *Conn) handleError(attempt uint64, err error) {
	if attempt != c.attempt {
		return
	}
	log.Printf("[LIVE] Transport error: %v", err)
	c.state.setError(fmt.Sprintf("WS error: %v", err))
	if c.status == StatusConnecting {
		if c.transport != nil {
			c.transport.Close(CloseNormal, "connect failed")
		}
		c.transport = nil
		c.attempt++
		c.setStatus(StatusDisconnected)
	}
}

// attemptHandler tags transport events with the attempt that produced them,
// so a late event from a discarded transport cannot touch the current one.
type attemptHandler struct {
	conn    *Conn
	attempt uint64
}

func (h *attemptHandler) OnOpen() {
	h.conn.post(func() { h.conn.handleOpen(h.attempt) })
}

func (h *attemptHandler) OnMessage(data []byte) {
	h.conn.post(func() { h.conn.handleMessage(h.attempt, data) })
}

func (h *attemptHandler) OnClose(code int, reason string) {
	h.conn.post(func() { h.conn.handleClose(h.attempt, code, reason) })
}

func (h *attemptHandler) OnError(err error) {
	h.conn.post(func() { h.conn.handleError(h.attempt, err) })
}
