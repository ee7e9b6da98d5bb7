package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iamasit07/arcade/internal/domain"
)

const ErrTransportClosed domain.Error = "transport is closed"

// WSDialer opens gorilla websocket connections. Cookies from Jar are sent
// with the handshake, which is how the access token reaches the server.
type WSDialer struct {
	Jar            http.CookieJar
	Header         http.Header
	HandshakeTime  time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

func (d *WSDialer) Dial(url string, h TransportHandler) (Transport, error) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &wsTransport{
		cancel:       cancel,
		writeTimeout: d.WriteTimeout,
	}
	if t.writeTimeout == 0 {
		t.writeTimeout = 10 * time.Second
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTime,
		Jar:              d.Jar,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = 45 * time.Second
	}

	go t.run(ctx, dialer, url, d.Header, d.MaxMessageSize, h)
	return t, nil
}

type wsTransport struct {
	cancel       context.CancelFunc
	writeTimeout time.Duration

	// writeMu serializes writers; gorilla allows only one at a time
	writeMu sync.Mutex
	mu      sync.Mutex
	conn    *websocket.Conn
	closed  bool
}

func (t *wsTransport) run(ctx context.Context, dialer *websocket.Dialer, url string, header http.Header, maxSize int64, h TransportHandler) {
	defer t.cancel()
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() == nil {
			h.OnError(err)
		}
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.conn = conn
	t.mu.Unlock()

	if maxSize > 0 {
		conn.SetReadLimit(maxSize)
	}
	h.OnOpen()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			code, reason := websocket.CloseAbnormalClosure, ""
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				code, reason = ce.Code, ce.Text
			}
			h.OnClose(code, reason)
			conn.Close()
			return
		}
		h.OnMessage(data)
	}
}

func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	conn, closed := t.conn, t.closed
	t.mu.Unlock()
	if closed || conn == nil {
		return ErrTransportClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame when the connection is open and aborts the
// handshake otherwise.
func (t *wsTransport) Close(code int, reason string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	t.cancel()
	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(code, reason)
	err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	conn.Close()
	return err
}
