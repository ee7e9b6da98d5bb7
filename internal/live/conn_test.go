package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/iamasit07/arcade/internal/protocol"
)

type fakeTransport struct {
	sent       [][]byte
	closed     bool
	closeCode  int
	closeMsg   string
	failSendAt int
	handler    TransportHandler
}

func (t *fakeTransport) Send(data []byte) error {
	if t.closed {
		return ErrTransportClosed
	}
	if t.failSendAt > 0 && len(t.sent)+1 == t.failSendAt {
		return errors.New("broken pipe")
	}
	t.sent = append(t.sent, data)
	return nil
}

func (t *fakeTransport) Close(code int, reason string) error {
	t.closed = true
	t.closeCode = code
	t.closeMsg = reason
	return nil
}

type fakeDialer struct {
	dials    []*fakeTransport
	failNext error
}

func (d *fakeDialer) Dial(url string, h TransportHandler) (Transport, error) {
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		return nil, err
	}
	t := &fakeTransport{handler: h}
	d.dials = append(d.dials, t)
	return t, nil
}

func (d *fakeDialer) last() *fakeTransport {
	return d.dials[len(d.dials)-1]
}

type fakeCreds bool

func (c fakeCreds) AccessValid() bool { return bool(c) }

func newTestConn(creds Credentials) (*Conn, *fakeDialer, *State) {
	state := NewState()
	router := NewRouter(state, func() string { return "me" })
	dialer := &fakeDialer{}
	conn := NewConn("ws://test/api/live", dialer, creds, func(fn func()) { fn() }, state, router)
	return conn, dialer, state
}

func chatMessages(t *testing.T, frames [][]byte) []string {
	t.Helper()
	var out []string
	for _, data := range frames {
		var env struct {
			Payload protocol.ChatPayload `json:"payload"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame %s: %v", data, err)
		}
		out = append(out, env.Payload.Message)
	}
	return out
}

func TestConnLifecycle(t *testing.T) {
	conn, dialer, state := newTestConn(fakeCreds(true))

	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if conn.Status() != StatusConnecting || state.Status() != StatusConnecting {
		t.Fatalf("expected connecting, got %s", conn.Status())
	}

	// a second connect while connecting is a warning only
	if err := conn.Connect(); err != nil {
		t.Fatalf("second Connect returned %v", err)
	}
	if len(dialer.dials) != 1 {
		t.Fatalf("expected one dial, got %d", len(dialer.dials))
	}

	dialer.last().handler.OnOpen()
	if conn.Status() != StatusConnected {
		t.Fatalf("expected connected, got %s", conn.Status())
	}

	dialer.last().handler.OnClose(1006, "")
	snap := state.Snapshot()
	if snap.Status != StatusDisconnected {
		t.Errorf("expected disconnected, got %s", snap.Status)
	}
	if snap.Error != "WS disconnected: code 1006, reason: Unknown." {
		t.Errorf("unexpected error %q", snap.Error)
	}

	// the discarded transport is never reused
	if err := conn.Connect(); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if len(dialer.dials) != 2 {
		t.Fatalf("expected a fresh dial, got %d", len(dialer.dials))
	}
	if state.Snapshot().Error != "" {
		t.Errorf("connect should clear the error")
	}
}

func TestConnRefusesWithoutCredential(t *testing.T) {
	conn, dialer, state := newTestConn(fakeCreds(false))

	if err := conn.Connect(); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	if len(dialer.dials) != 0 {
		t.Errorf("no dial expected")
	}
	if conn.Status() != StatusDisconnected || state.Snapshot().Error == "" {
		t.Errorf("expected disconnected with an error")
	}
}

func TestConnDialFailure(t *testing.T) {
	conn, dialer, state := newTestConn(nil)
	dialer.failNext = errors.New("no route")

	if err := conn.Connect(); !errors.Is(err, ErrDialFailed) {
		t.Fatalf("expected ErrDialFailed, got %v", err)
	}
	if conn.Status() != StatusDisconnected {
		t.Errorf("expected disconnected, got %s", conn.Status())
	}
	if state.Snapshot().Error == "" {
		t.Errorf("expected an error to be recorded")
	}
}

func TestConnErrorWhileConnecting(t *testing.T) {
	conn, dialer, _ := newTestConn(nil)
	conn.Connect()
	tr := dialer.last()

	tr.handler.OnError(errors.New("handshake failed"))
	if conn.Status() != StatusDisconnected {
		t.Fatalf("expected disconnected, got %s", conn.Status())
	}
	// late events from the failed attempt are ignored
	tr.handler.OnOpen()
	if conn.Status() != StatusDisconnected {
		t.Errorf("stale open must be ignored, got %s", conn.Status())
	}
}

func TestSendQueuesInOrder(t *testing.T) {
	for _, n := range []int{1, 2, 10, 50} {
		t.Run(fmt.Sprintf("%d frames", n), func(t *testing.T) {
			conn, dialer, _ := newTestConn(nil)

			var want []string
			for i := 0; i < n/2; i++ {
				msg := fmt.Sprintf("before-%d", i)
				want = append(want, msg)
				conn.Send(protocol.NewChat("me", msg))
			}
			conn.Connect()
			for i := n / 2; i < n; i++ {
				msg := fmt.Sprintf("connecting-%d", i)
				want = append(want, msg)
				conn.Send(protocol.NewChat("me", msg))
			}
			if conn.Queued() != n {
				t.Fatalf("expected %d queued, got %d", n, conn.Queued())
			}

			dialer.last().handler.OnOpen()
			conn.Send(protocol.NewChat("me", "after"))
			want = append(want, "after")

			got := chatMessages(t, dialer.last().sent)
			if fmt.Sprint(got) != fmt.Sprint(want) {
				t.Errorf("sent order %v, want %v", got, want)
			}
			if conn.Queued() != 0 {
				t.Errorf("queue should be empty after flush")
			}
		})
	}
}

func TestUnexpectedCloseKeepsQueue(t *testing.T) {
	conn, dialer, _ := newTestConn(nil)
	conn.Connect()
	dialer.last().handler.OnClose(1001, "going away")

	conn.Send(protocol.NewChat("me", "one"))
	conn.Send(protocol.NewChat("me", "two"))
	conn.Connect()
	dialer.last().handler.OnOpen()

	got := chatMessages(t, dialer.last().sent)
	if fmt.Sprint(got) != "[one two]" {
		t.Errorf("unexpected flush %v", got)
	}
}

func TestFlushFailureKeepsRemainder(t *testing.T) {
	conn, dialer, state := newTestConn(nil)
	conn.Send(protocol.NewChat("me", "one"))
	conn.Send(protocol.NewChat("me", "two"))
	conn.Send(protocol.NewChat("me", "three"))
	conn.Connect()
	dialer.last().failSendAt = 2
	dialer.last().handler.OnOpen()

	if conn.Status() == StatusConnected {
		t.Errorf("a failed flush must not report connected")
	}
	if conn.Queued() != 2 {
		t.Errorf("expected two frames kept, got %d", conn.Queued())
	}
	if state.Snapshot().Error != "WS failed to send" {
		t.Errorf("unexpected error %q", state.Snapshot().Error)
	}
}

func TestDisconnectResetsState(t *testing.T) {
	setups := map[string]func(c *Conn, d *fakeDialer){
		"never connected": func(c *Conn, d *fakeDialer) {},
		"connecting": func(c *Conn, d *fakeDialer) {
			c.Connect()
		},
		"connected in a room": func(c *Conn, d *fakeDialer) {
			c.Connect()
			h := d.last().handler
			h.OnOpen()
			h.OnMessage([]byte(`{"type":"join_room","sender":"_server","payload":{"roomName":"r1"}}`))
			h.OnMessage([]byte(`{"type":"get_clients","sender":"_server","payload":{"roomName":"r1","clients":["me","you"]}}`))
			h.OnMessage([]byte(`{"type":"chat","sender":"you","payload":{"message":"hi","displayName":"You"}}`))
		},
		"after a close": func(c *Conn, d *fakeDialer) {
			c.Connect()
			d.last().handler.OnOpen()
			d.last().handler.OnClose(1006, "")
		},
		"with queued frames": func(c *Conn, d *fakeDialer) {
			c.Send(protocol.NewChat("me", "queued"))
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			conn, dialer, state := newTestConn(nil)
			setup(conn, dialer)

			conn.Disconnect("")
			conn.Disconnect("")

			snap := state.Snapshot()
			if snap.Room != "" || len(snap.Log) != 0 || len(snap.Clients) != 0 || snap.Error != "" {
				t.Errorf("state not reset: %+v", snap)
			}
			if snap.Status != StatusDisconnected || conn.Queued() != 0 {
				t.Errorf("expected disconnected with empty queue")
			}
			for _, tr := range dialer.dials {
				if !tr.closed && name != "after a close" {
					t.Errorf("transport left open")
				}
			}
		})
	}
}

func TestDisconnectClosesNormally(t *testing.T) {
	conn, dialer, _ := newTestConn(nil)
	conn.Connect()
	tr := dialer.last()
	tr.handler.OnOpen()

	conn.Disconnect("")
	if !tr.closed || tr.closeCode != CloseNormal || tr.closeMsg != DefaultLeaveReason {
		t.Errorf("unexpected close %v %d %q", tr.closed, tr.closeCode, tr.closeMsg)
	}

	// the close event of the old transport must not overwrite the reset
	tr.handler.OnClose(CloseNormal, DefaultLeaveReason)
	tr.handler.OnMessage([]byte(`{"type":"join_room","payload":{"roomName":"late"}}`))
	if conn.state.Snapshot().Error != "" || conn.state.Snapshot().Room != "" {
		t.Errorf("stale events leaked into state: %+v", conn.state.Snapshot())
	}
}
