package live

import (
	"reflect"
	"testing"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/protocol"
)

func TestRouterUnknownFrameIsDropped(t *testing.T) {
	state := NewState()
	r := NewRouter(state, nil)
	r.Dispatch([]byte(`{"type":"join_room","sender":"_server","payload":{"roomName":"r1"}}`))
	before := state.Snapshot()

	calls := 0
	r.OnGameState(func(domain.BoardGameState) { calls++ })
	r.OnDraw(func(protocol.DrawPayload) { calls++ })

	r.Dispatch([]byte(`{"type":"unknown_xyz","sender":"x","payload":{"anything":[1,2,3]}}`))

	if after := state.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("unknown frame changed state: %+v -> %+v", before, after)
	}
	if calls != 0 {
		t.Errorf("unknown frame reached %d handlers", calls)
	}
}

func TestRouterSequentialJoins(t *testing.T) {
	state := NewState()
	r := NewRouter(state, nil)

	r.Dispatch([]byte(`{"type":"join_room","sender":"_server","payload":{"roomName":"first"}}`))
	r.Dispatch([]byte(`{"type":"join_room","sender":"_server","payload":{"roomName":"second"}}`))

	snap := state.Snapshot()
	if snap.Room != "second" {
		t.Errorf("Room = %q, want second", snap.Room)
	}
	if len(snap.Log) != 0 {
		t.Errorf("joins must not log a leave of the first room: %+v", snap.Log)
	}
}

func TestRouterLogOrder(t *testing.T) {
	state := NewState()
	r := NewRouter(state, nil)

	r.Dispatch([]byte(`{"type":"status","sender":"_server","payload":{"message":"bob has joined Lobby"}}`))
	r.Dispatch([]byte(`{"type":"chat","sender":"bob","payload":{"message":"hi","displayName":"Bob"}}`))
	r.Dispatch([]byte(`{"type":"error","sender":"_server","payload":{"message":"No game to join"}}`))

	log := state.Snapshot().Log
	want := []LogEntry{
		{Kind: protocol.TypeStatus, Sender: protocol.ServerSender, Message: "bob has joined Lobby"},
		{Kind: protocol.TypeChat, Sender: "bob", DisplayName: "Bob", Message: "hi"},
		{Kind: protocol.TypeError, Sender: protocol.ServerSender, Message: "No game to join"},
	}
	if !reflect.DeepEqual(log, want) {
		t.Fatalf("log = %+v\nwant %+v", log, want)
	}
	if log[1].IsSystem() || !log[0].IsSystem() || !log[2].IsSystem() {
		t.Errorf("system tagging is wrong")
	}
}

func TestRouterMalformedFrame(t *testing.T) {
	state := NewState()
	r := NewRouter(state, nil)

	r.Dispatch([]byte(`{"type":"chat","payload":`))
	if state.Snapshot().Error != "WS onmessage failed" {
		t.Errorf("Error = %q", state.Snapshot().Error)
	}
	if len(state.Snapshot().Log) != 0 {
		t.Errorf("malformed frame must not be logged as chat")
	}
}

func TestRouterClientsAndRooms(t *testing.T) {
	state := NewState()
	r := NewRouter(state, nil)

	r.Dispatch([]byte(`{"type":"get_clients","sender":"_server","payload":{"roomName":"r","clients":["a","b"]}}`))
	r.Dispatch([]byte(`{"type":"get_rooms","sender":"_server","payload":{"rooms":["Lobby","r"]}}`))
	r.Dispatch([]byte(`{"type":"join_room","sender":"_server","payload":{"roomName":"r"}}`))
	r.Dispatch([]byte(`{"type":"leave_room","sender":"_server"}`))

	snap := state.Snapshot()
	if !reflect.DeepEqual(snap.Clients, []string{"a", "b"}) || !reflect.DeepEqual(snap.Rooms, []string{"Lobby", "r"}) {
		t.Errorf("unexpected lists %+v", snap)
	}
	if snap.Room != "" {
		t.Errorf("leave_room should clear the room, got %q", snap.Room)
	}
}

func TestRouterFanOut(t *testing.T) {
	r := NewRouter(NewState(), nil)

	var order []string
	cancelA := r.OnGameState(func(s domain.BoardGameState) { order = append(order, "a:"+string(s.GameName)) })
	r.OnGameState(func(s domain.BoardGameState) { order = append(order, "b:"+string(s.GameName)) })

	r.Dispatch([]byte(`{"type":"game_state","sender":"_server","payload":{"gameName":"chess","players":[],"turn":0,"board":[],"status":"waiting","winner":"","validMoves":[]}}`))
	cancelA()
	cancelA()
	r.Dispatch([]byte(`{"type":"game_state","sender":"_server","payload":{"gameName":"connect4","players":[],"turn":0,"board":[],"status":"waiting","winner":"","validMoves":[]}}`))

	want := []string{"a:chess", "b:chess", "b:connect4"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRouterVideoSignalFilter(t *testing.T) {
	r := NewRouter(NewState(), func() string { return "me" })

	var got []protocol.SignalKind
	r.OnVideoSignal(func(v protocol.VideoSignal) { got = append(got, v.Signal.Type) })

	r.Dispatch([]byte(`{"type":"video_signal","sender":"a","payload":{"type":"join"}}`))
	r.Dispatch([]byte(`{"type":"video_signal","sender":"a","payload":{"type":"offer","target":"someone"}}`))
	r.Dispatch([]byte(`{"type":"video_signal","sender":"a","payload":{"type":"answer","target":"me"}}`))

	want := []protocol.SignalKind{protocol.SignalJoin, protocol.SignalAnswer}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("delivered %v, want %v", got, want)
	}
}

func TestRouterDraw(t *testing.T) {
	r := NewRouter(NewState(), nil)
	var kinds []protocol.DrawKind
	cancel := r.OnDraw(func(d protocol.DrawPayload) { kinds = append(kinds, d.Type) })
	defer cancel()

	r.Dispatch([]byte(`{"type":"raw_signal","sender":"a","payload":{"type":"draw","points":[{"x":1,"y":1}],"color":"#f00","width":3}}`))
	r.Dispatch([]byte(`{"type":"raw_signal","sender":"a","payload":{"type":"clear"}}`))

	if !reflect.DeepEqual(kinds, []protocol.DrawKind{protocol.DrawStroke, protocol.DrawClear}) {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestRouterRoomChanges(t *testing.T) {
	state := NewState()
	r := NewRouter(state, nil)
	var moves []string
	r.OnRoomChange(func(room string) { moves = append(moves, room) })

	frames := []string{
		`{"type":"join_room","sender":"_server","payload":{"roomName":"Lobby"}}`,
		`{"type":"get_clients","sender":"_server","payload":{"roomName":"Lobby","clients":["a"]}}`,
		`{"type":"join_room","sender":"_server","payload":{"roomName":"den"}}`,
		`{"type":"leave_room","sender":"_server"}`,
		`{"type":"get_clients","sender":"_server","payload":{"roomName":"attic","clients":["a","b"]}}`,
		`{"type":"get_clients","sender":"_server","payload":{"clients":["a"]}}`,
	}
	for _, f := range frames {
		r.Dispatch([]byte(f))
	}

	if want := []string{"Lobby", "den", "", "attic"}; !reflect.DeepEqual(moves, want) {
		t.Errorf("room changes = %q, want %q", moves, want)
	}
	if snap := state.Snapshot(); snap.Room != "attic" || !reflect.DeepEqual(snap.Clients, []string{"a"}) {
		t.Errorf("snapshot = %+v", snap)
	}
}
