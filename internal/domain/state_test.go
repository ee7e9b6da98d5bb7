package domain

import (
	"encoding/json"
	"testing"
)

func TestTurnJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Turn
	}{
		{"seat index", `1`, Turn{Seat: 1}},
		{"player id", `"alice"`, Turn{Seat: -1, Player: "alice"}},
		{"null", `null`, Turn{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Turn
			if err := json.Unmarshal([]byte(tt.raw), &got); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	var bad Turn
	if err := json.Unmarshal([]byte(`{"x":1}`), &bad); err == nil {
		t.Errorf("Expected an error for an object turn")
	}

	out, err := json.Marshal(Turn{Seat: -1, Player: "bob"})
	if err != nil || string(out) != `"bob"` {
		t.Errorf("Marshal player turn = %s, %v", out, err)
	}
}

func TestBoardGameStateDecode(t *testing.T) {
	raw := `{
		"gameName": "connect4",
		"players": ["alice", "bob"],
		"turn": 1,
		"board": [[0,0],[1,2]],
		"status": "in_progress",
		"winner": "",
		"validMoves": [{"to":{"row":0,"col":0}}, {"from":{"row":6,"col":4},"to":{"row":4,"col":4}}]
	}`
	var s BoardGameState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if s.GameName != Connect4 || s.Status != StatusInProgress {
		t.Errorf("Unexpected header %q %q", s.GameName, s.Status)
	}
	if s.TurnPlayer() != "bob" {
		t.Errorf("Expected bob to move, got %q", s.TurnPlayer())
	}
	if !s.CanMove("bob") || s.CanMove("alice") {
		t.Errorf("Turn gating is wrong")
	}
	if len(s.MovesFrom(Position{6, 4})) != 1 {
		t.Errorf("Expected one move from (6,4)")
	}
	m, ok := s.MoveInColumn(0)
	if !ok || m.To != (Position{0, 0}) {
		t.Errorf("MoveInColumn(0) = %v, %v", m, ok)
	}
}

func TestBoardGameStateGating(t *testing.T) {
	waiting := BoardGameState{GameName: TicTacToe, Players: []string{"alice"}, Status: StatusWaiting}
	full := BoardGameState{GameName: TicTacToe, Players: []string{"alice", "bob"}, Status: StatusWaiting}
	playing := BoardGameState{GameName: TicTacToe, Players: []string{"alice", "bob"}, Status: StatusInProgress}
	dropped := BoardGameState{GameName: TicTacToe, Players: []string{"alice", "bob"}, Status: StatusDisconnected}
	empty := EmptyState()

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"create with no game", empty.CanCreate(), true},
		{"create over a game", waiting.CanCreate(), false},
		{"join open seat", waiting.CanJoin("bob"), true},
		{"join twice", waiting.CanJoin("alice"), false},
		{"join full", full.CanJoin("carol"), false},
		{"join in progress", playing.CanJoin("carol"), false},
		{"join nothing", empty.CanJoin("carol"), false},
		{"leave while playing", playing.CanLeave("bob"), true},
		{"leave after disconnect", dropped.CanLeave("alice"), true},
		{"leave as spectator", playing.CanLeave("carol"), false},
		{"move on turn", playing.CanMove("alice"), true},
		{"move off turn", playing.CanMove("bob"), false},
		{"move after disconnect", dropped.CanMove("alice"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestOffersAndClone(t *testing.T) {
	from := Position{Row: 6, Col: 0}
	s := BoardGameState{
		ValidMoves: []Move{
			{To: Position{Row: 1, Col: 1}},
			{From: &from, To: Position{Row: 7, Col: 0}, Change: "q"},
		},
	}
	if !s.Offers(Move{To: Position{Row: 1, Col: 1}}) {
		t.Errorf("Expected drop move to be offered")
	}
	promo := Position{Row: 6, Col: 0}
	if !s.Offers(Move{From: &promo, To: Position{Row: 7, Col: 0}, Change: "q"}) {
		t.Errorf("Expected promotion to be offered")
	}
	if s.Offers(Move{From: &promo, To: Position{Row: 7, Col: 0}}) {
		t.Errorf("Promotion without change must not match")
	}

	cp := s.Clone()
	cp.ValidMoves[1].From.Row = 0
	if s.ValidMoves[1].From.Row != 6 {
		t.Errorf("Clone aliases move origins")
	}
}
