package protocol

import (
	"encoding/json"

	"github.com/iamasit07/arcade/internal/domain"
)

const ErrMalformedFrame domain.Error = "malformed frame"

type DrawKind string

const (
	DrawStroke DrawKind = "draw"
	DrawClear  DrawKind = "clear"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type DrawPayload struct {
	Type   DrawKind `json:"type"`
	Points []Point  `json:"points,omitempty"`
	Color  string   `json:"color,omitempty"`
	Width  float64  `json:"width,omitempty"`
}

type SignalKind string

const (
	SignalJoin   SignalKind = "join"
	SignalLeave  SignalKind = "leave"
	SignalOffer  SignalKind = "offer"
	SignalAnswer SignalKind = "answer"
	SignalICE    SignalKind = "ice"
)

// SignalPayload relays call negotiation. Offer, answer and candidate are
// opaque session descriptions passed through untouched.
type SignalPayload struct {
	Type      SignalKind      `json:"type"`
	Target    string          `json:"target,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// For reports whether a signal is addressed to user. An empty target is a
// broadcast to the whole room.
func (s SignalPayload) For(user string) bool {
	return s.Target == "" || s.Target == user
}

type GameActionKind string

const (
	ActionGet    GameActionKind = "get"
	ActionCreate GameActionKind = "create"
	ActionJoin   GameActionKind = "join"
	ActionLeave  GameActionKind = "leave"
	ActionMove   GameActionKind = "move"
)

type GameActionPayload struct {
	Action   GameActionKind  `json:"action"`
	GameName domain.GameName `json:"gameName,omitempty"`
	Move     *domain.Move    `json:"move,omitempty"`
}

// Outbound constructors leave the sender empty; the server stamps it.

func NewChat(displayName, message string) Chat {
	return Chat{ChatPayload: ChatPayload{Message: message, DisplayName: displayName}}
}

func NewJoinRoom(room string) JoinRoom {
	return JoinRoom{RoomPayload: RoomPayload{RoomName: room}}
}

func NewLeaveRoom() LeaveRoom {
	return LeaveRoom{}
}

func NewGetClients() Clients {
	return Clients{}
}

func NewStroke(points []Point, color string, width float64) RawSignal {
	return RawSignal{Draw: DrawPayload{Type: DrawStroke, Points: points, Color: color, Width: width}}
}

func NewClear() RawSignal {
	return RawSignal{Draw: DrawPayload{Type: DrawClear}}
}

func NewVideoSignal(signal SignalPayload) VideoSignal {
	return VideoSignal{Signal: signal}
}

func NewGameAction(action GameActionKind, name domain.GameName, move *domain.Move) GameAction {
	return GameAction{Action: GameActionPayload{Action: action, GameName: name, Move: move}}
}

// Server side helpers.

func ServerStatus(message string) Status {
	return Status{Sender: ServerSender, MessagePayload: MessagePayload{Message: message}}
}

func ServerError(message string) ErrorFrame {
	return ErrorFrame{Sender: ServerSender, MessagePayload: MessagePayload{Message: message}}
}

func ServerJoined(room string) JoinRoom {
	return JoinRoom{Sender: ServerSender, RoomPayload: RoomPayload{RoomName: room}}
}

func ServerClients(room string, clients []string) Clients {
	return Clients{Sender: ServerSender, ClientsPayload: ClientsPayload{RoomName: room, Clients: clients}}
}

func ServerGameState(state domain.BoardGameState) GameState {
	return GameState{Sender: ServerSender, State: state}
}

// Bytes encodes a server frame, substituting a generic error frame if the
// payload cannot be marshalled.
func Bytes(f Frame) []byte {
	data, err := Encode(f)
	if err != nil {
		return []byte(`{"type":"error","sender":"_server","payload":{"message":"Internal server error"}}`)
	}
	return data
}
