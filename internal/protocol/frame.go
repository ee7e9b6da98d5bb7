package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/iamasit07/arcade/internal/domain"
)

// FrameType is the discriminant carried in the "type" field of every frame.
type FrameType string

const (
	TypeError       FrameType = "error"
	TypeStatus      FrameType = "status"
	TypeChat        FrameType = "chat"
	TypeVideoSignal FrameType = "video_signal"
	TypeRawSignal   FrameType = "raw_signal"
	TypeGameState   FrameType = "game_state"
	TypeJoinRoom    FrameType = "join_room"
	TypeLeaveRoom   FrameType = "leave_room"
	TypeGetRooms    FrameType = "get_rooms"
	TypeGetClients  FrameType = "get_clients"
)

// ServerSender marks frames produced by the server itself.
const ServerSender = "_server"

// Envelope is the raw wire shape shared by every frame.
type Envelope struct {
	Type    FrameType       `json:"type"`
	Sender  string          `json:"sender"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Frame is one decoded variant. The set of variants is closed; anything the
// decoder does not recognise comes back as Unknown.
type Frame interface {
	Type() FrameType
	From() string
	payload() any
}

type ChatPayload struct {
	Message     string `json:"message"`
	DisplayName string `json:"displayName"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type RoomPayload struct {
	RoomName string `json:"roomName"`
}

type ClientsPayload struct {
	RoomName string   `json:"roomName"`
	Clients  []string `json:"clients"`
}

type RoomsPayload struct {
	Rooms []string `json:"rooms"`
}

type (
	Chat struct {
		Sender string
		ChatPayload
	}
	Status struct {
		Sender string
		MessagePayload
	}
	ErrorFrame struct {
		Sender string
		MessagePayload
	}
	JoinRoom struct {
		Sender string
		RoomPayload
	}
	LeaveRoom struct {
		Sender string
	}
	Clients struct {
		Sender string
		ClientsPayload
	}
	// Rooms answers get_rooms; an empty list is also the request.
	Rooms struct {
		Sender string
		RoomsPayload
	}
	RawSignal struct {
		Sender string
		Draw   DrawPayload
	}
	VideoSignal struct {
		Sender string
		Signal SignalPayload
	}
	// GameState is the server to client broadcast carrying the full state.
	GameState struct {
		Sender string
		State  domain.BoardGameState
	}
	// GameAction is the client to server request sharing the game_state
	// discriminant.
	GameAction struct {
		Sender string
		Action GameActionPayload
	}
	Unknown struct {
		Kind    FrameType
		Sender  string
		Payload json.RawMessage
	}
)

func (f Chat) Type() FrameType        { return TypeChat }
func (f Status) Type() FrameType      { return TypeStatus }
func (f ErrorFrame) Type() FrameType  { return TypeError }
func (f JoinRoom) Type() FrameType    { return TypeJoinRoom }
func (f LeaveRoom) Type() FrameType   { return TypeLeaveRoom }
func (f Clients) Type() FrameType     { return TypeGetClients }
func (f Rooms) Type() FrameType       { return TypeGetRooms }
func (f RawSignal) Type() FrameType   { return TypeRawSignal }
func (f VideoSignal) Type() FrameType { return TypeVideoSignal }
func (f GameState) Type() FrameType   { return TypeGameState }
func (f GameAction) Type() FrameType  { return TypeGameState }
func (f Unknown) Type() FrameType     { return f.Kind }

func (f Chat) From() string        { return f.Sender }
func (f Status) From() string      { return f.Sender }
func (f ErrorFrame) From() string  { return f.Sender }
func (f JoinRoom) From() string    { return f.Sender }
func (f LeaveRoom) From() string   { return f.Sender }
func (f Clients) From() string     { return f.Sender }
func (f Rooms) From() string       { return f.Sender }
func (f RawSignal) From() string   { return f.Sender }
func (f VideoSignal) From() string { return f.Sender }
func (f GameState) From() string   { return f.Sender }
func (f GameAction) From() string  { return f.Sender }
func (f Unknown) From() string     { return f.Sender }

func (f Chat) payload() any        { return f.ChatPayload }
func (f Status) payload() any      { return f.MessagePayload }
func (f ErrorFrame) payload() any  { return f.MessagePayload }
func (f JoinRoom) payload() any    { return f.RoomPayload }
func (f LeaveRoom) payload() any   { return nil }
func (f Clients) payload() any     { return f.ClientsPayload }
func (f Rooms) payload() any       { return f.RoomsPayload }
func (f RawSignal) payload() any   { return f.Draw }
func (f VideoSignal) payload() any { return f.Signal }
func (f GameState) payload() any   { return f.State }
func (f GameAction) payload() any  { return f.Action }
func (f Unknown) payload() any     { return f.Payload }

// Direction picks how a game_state payload is read: the client receives
// full states, the server receives actions.
type Direction int

const (
	ToClient Direction = iota
	ToServer
)

// Encode serializes a frame into one text message.
func Encode(f Frame) ([]byte, error) {
	env := Envelope{Type: f.Type(), Sender: f.From()}
	if p := f.payload(); p != nil {
		if raw, ok := p.(json.RawMessage); ok {
			env.Payload = raw
		} else {
			data, err := json.Marshal(p)
			if err != nil {
				return nil, fmt.Errorf("encode %s payload: %w", f.Type(), err)
			}
			env.Payload = data
		}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Type(), err)
	}
	return data, nil
}

// Decode parses a frame received by the client.
func Decode(data []byte) (Frame, error) {
	return DecodeAs(data, ToClient)
}

// DecodeAs parses one text message. A frame with an unrecognised type is not
// an error; it decodes to Unknown so the caller can log and drop it.
func DecodeAs(data []byte, dir Direction) (Frame, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	sender := env.Sender
	switch env.Type {
	case TypeChat:
		return decodeInto(env, func(p ChatPayload) Frame { return Chat{sender, p} })
	case TypeStatus:
		return decodeInto(env, func(p MessagePayload) Frame { return Status{sender, p} })
	case TypeError:
		return decodeInto(env, func(p MessagePayload) Frame { return ErrorFrame{sender, p} })
	case TypeJoinRoom:
		return decodeInto(env, func(p RoomPayload) Frame { return JoinRoom{sender, p} })
	case TypeLeaveRoom:
		return LeaveRoom{Sender: sender}, nil
	case TypeGetClients:
		return decodeInto(env, func(p ClientsPayload) Frame { return Clients{sender, p} })
	case TypeGetRooms:
		return decodeInto(env, func(p RoomsPayload) Frame { return Rooms{sender, p} })
	case TypeRawSignal:
		return decodeInto(env, func(p DrawPayload) Frame { return RawSignal{sender, p} })
	case TypeVideoSignal:
		return decodeInto(env, func(p SignalPayload) Frame { return VideoSignal{sender, p} })
	case TypeGameState:
		if dir == ToServer {
			return decodeInto(env, func(p GameActionPayload) Frame { return GameAction{sender, p} })
		}
		state := domain.EmptyState()
		if err := decodePayload(env, &state); err != nil {
			return nil, err
		}
		return GameState{Sender: sender, State: state}, nil
	default:
		return Unknown{Kind: env.Type, Sender: sender, Payload: env.Payload}, nil
	}
}

func decodeInto[P any](env Envelope, build func(P) Frame) (Frame, error) {
	var p P
	if err := decodePayload(env, &p); err != nil {
		return nil, err
	}
	return build(p), nil
}

// decodePayload leaves the zero payload in place when the field is absent,
// which is how leave_room and get_clients requests arrive.
func decodePayload(env Envelope, dst any) error {
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, env.Type, err)
	}
	return nil
}
