package live

import (
	"context"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/protocol"
)

// Session is the goroutine-safe handle the features share. It owns the loop,
// the connection manager, the router and the observable state.
type Session struct {
	loop   *Loop
	conn   *Conn
	router *Router
	state  *State
}

type SessionConfig struct {
	URL         string
	Dialer      Dialer
	Credentials Credentials
	// Self returns the local username for video signal filtering.
	Self func() string
}

// NewSession builds a session; nothing happens until Run is started.
func NewSession(cfg SessionConfig) *Session {
	loop := NewLoop()
	state := NewState()
	router := NewRouter(state, cfg.Self)
	conn := NewConn(cfg.URL, cfg.Dialer, cfg.Credentials, func(fn func()) { loop.Post(fn) }, state, router)
	return &Session{loop: loop, conn: conn, router: router, state: state}
}

// Run drives the session until ctx is done, closing any open connection on
// the way out.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Disconnect(DefaultLeaveReason)
	s.loop.Run(ctx)
}

// Connect must not be called from a frame handler.
func (s *Session) Connect(ctx context.Context) error {
	var err error
	if doErr := s.loop.Do(ctx, func() { err = s.conn.Connect() }); doErr != nil {
		return doErr
	}
	return err
}

// Disconnect must not be called from a frame handler.
func (s *Session) Disconnect(ctx context.Context, reason string) error {
	return s.loop.Do(ctx, func() { s.conn.Disconnect(reason) })
}

// Send hands a frame to the connection manager without waiting, so it is
// safe inside handlers. Send failures show up in the observable error.
func (s *Session) Send(f protocol.Frame) error {
	if !s.loop.Post(func() { s.conn.Send(f) }) {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) Status() Status {
	return s.state.Status()
}

func (s *Session) Snapshot() Snapshot {
	return s.state.Snapshot()
}

func (s *Session) Watch(fn func(Snapshot)) (cancel func()) {
	return s.state.Watch(fn)
}

func (s *Session) OnDraw(fn func(protocol.DrawPayload)) (cancel func()) {
	return s.router.OnDraw(fn)
}

func (s *Session) OnGameState(fn func(domain.BoardGameState)) (cancel func()) {
	return s.router.OnGameState(fn)
}

func (s *Session) OnVideoSignal(fn func(protocol.VideoSignal)) (cancel func()) {
	return s.router.OnVideoSignal(fn)
}

func (s *Session) OnRoomChange(fn func(room string)) (cancel func()) {
	return s.router.OnRoomChange(fn)
}

func (s *Session) SendChat(displayName, message string) error {
	return s.Send(protocol.NewChat(displayName, message))
}

func (s *Session) JoinRoom(room string) error {
	return s.Send(protocol.NewJoinRoom(room))
}

func (s *Session) LeaveRoom() error {
	return s.Send(protocol.NewLeaveRoom())
}

func (s *Session) RequestClients() error {
	return s.Send(protocol.NewGetClients())
}

func (s *Session) SendStroke(points []protocol.Point, color string, width float64) error {
	return s.Send(protocol.NewStroke(points, color, width))
}

func (s *Session) ClearCanvas() error {
	return s.Send(protocol.NewClear())
}

func (s *Session) SendVideoSignal(signal protocol.SignalPayload) error {
	return s.Send(protocol.NewVideoSignal(signal))
}

func (s *Session) SendGameAction(action protocol.GameActionKind, name domain.GameName, move *domain.Move) error {
	return s.Send(protocol.NewGameAction(action, name, move))
}
