package live

import (
	"log"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/protocol"
)

// Router turns inbound frames into state updates and handler calls. Dispatch
// runs on the loop; subscriptions may be added from any goroutine.
type Router struct {
	state *State
	self  func() string

	draw  subscribers[protocol.DrawPayload]
	game  subscribers[domain.BoardGameState]
	video subscribers[protocol.VideoSignal]
	room  subscribers[string]
}

// NewRouter builds a router writing into state. self returns the local
// username, used to drop video signals addressed to someone else.
func NewRouter(state *State, self func() string) *Router {
	if self == nil {
		self = func() string { return "" }
	}
	return &Router{state: state, self: self}
}

func (r *Router) OnDraw(fn func(protocol.DrawPayload)) (cancel func()) {
	return r.draw.add(fn)
}

func (r *Router) OnGameState(fn func(domain.BoardGameState)) (cancel func()) {
	return r.game.add(fn)
}

func (r *Router) OnVideoSignal(fn func(protocol.VideoSignal)) (cancel func()) {
	return r.video.add(fn)
}

// OnRoomChange is called with the new room name whenever the server moves
// us, including the Lobby join that follows every reconnect. Leaving calls
// it with "".
func (r *Router) OnRoomChange(fn func(room string)) (cancel func()) {
	return r.room.add(fn)
}

func (r *Router) changeRoom(room string) {
	if r.state.setRoom(room) {
		r.room.publish(room)
	}
}

// Dispatch never fails. Frames that cannot be parsed are logged and leave an
// error in the observable state; unknown types are logged and ignored.
func (r *Router) Dispatch(data []byte) {
	frame, err := protocol.Decode(data)
	if err != nil {
		log.Printf("[LIVE] onmessage failed: %v (%d bytes)", err, len(data))
		r.state.setError("WS onmessage failed")
		return
	}

	switch f := frame.(type) {
	case protocol.Chat:
		r.state.appendLog(LogEntry{Kind: protocol.TypeChat, Sender: f.Sender, DisplayName: f.DisplayName, Message: f.Message})
	case protocol.Status:
		r.state.appendLog(LogEntry{Kind: protocol.TypeStatus, Sender: f.Sender, Message: f.Message})
	case protocol.ErrorFrame:
		r.state.appendLog(LogEntry{Kind: protocol.TypeError, Sender: f.Sender, Message: f.Message})
	case protocol.JoinRoom:
		// the server moves us out of the previous room itself
		r.changeRoom(f.RoomName)
	case protocol.LeaveRoom:
		r.changeRoom("")
	case protocol.Clients:
		if f.RoomName != "" {
			r.changeRoom(f.RoomName)
		}
		r.state.setClients(f.Clients)
	case protocol.Rooms:
		r.state.setRooms(f.Rooms)
	case protocol.RawSignal:
		r.draw.publish(f.Draw)
	case protocol.GameState:
		r.game.publish(f.State)
	case protocol.VideoSignal:
		if !f.Signal.For(r.self()) {
			return
		}
		if r.video.publish(f) == 0 {
			log.Printf("[LIVE] Warning: received video signal %s from %s, but no handler", f.Signal.Type, f.Sender)
		}
	case protocol.Unknown:
		log.Printf("[LIVE] Unknown message type %q from %q, dropped", f.Kind, f.Sender)
	default:
		log.Printf("[LIVE] Unexpected %s frame from the server, dropped", frame.Type())
	}
}
