package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Move is a request to the server. It only becomes a fact once it shows up
// inside a new authoritative state.
type Move struct {
	From   *Position `json:"from,omitempty"`
	To     Position  `json:"to"`
	Change string    `json:"change,omitempty"`
}

func (m Move) Equal(other Move) bool {
	if m.To != other.To || m.Change != other.Change {
		return false
	}
	if m.From == nil || other.From == nil {
		return m.From == nil && other.From == nil
	}
	return *m.From == *other.From
}

func (m Move) String() string {
	if m.From == nil {
		return fmt.Sprintf("(%d,%d)", m.To.Row, m.To.Col)
	}
	s := fmt.Sprintf("(%d,%d)->(%d,%d)", m.From.Row, m.From.Col, m.To.Row, m.To.Col)
	if m.Change != "" {
		s += "=" + m.Change
	}
	return s
}

// Turn is either a seat index or a player id depending on the game server.
// It marshals back to whichever form it was given.
type Turn struct {
	Seat   int
	Player string
}

func SeatTurn(seat int) Turn {
	return Turn{Seat: seat}
}

func (t Turn) MarshalJSON() ([]byte, error) {
	if t.Player != "" {
		return json.Marshal(t.Player)
	}
	return json.Marshal(t.Seat)
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Turn{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var player string
		if err := json.Unmarshal(data, &player); err != nil {
			return err
		}
		*t = Turn{Seat: -1, Player: player}
		return nil
	}
	var seat int
	if err := json.Unmarshal(data, &seat); err != nil {
		return fmt.Errorf("turn must be a seat index or player id: %w", err)
	}
	*t = Turn{Seat: seat}
	return nil
}

// BoardGameState is the server's authoritative copy of a room's game. The
// client replaces its mirror wholesale on every broadcast.
type BoardGameState struct {
	GameName   GameName   `json:"gameName"`
	Players    []string   `json:"players"`
	Turn       Turn       `json:"turn"`
	Board      [][]int    `json:"board"`
	Status     GameStatus `json:"status"`
	Winner     string     `json:"winner"`
	ValidMoves []Move     `json:"validMoves"`
}

// EmptyState is what the client shows before the first broadcast arrives.
func EmptyState() BoardGameState {
	return BoardGameState{
		GameName:   NoGame,
		Players:    []string{},
		Turn:       SeatTurn(0),
		Board:      [][]int{{}},
		Status:     StatusWaiting,
		ValidMoves: []Move{},
	}
}

// Seat returns the seat index of player, or -1 when not seated.
func (s *BoardGameState) Seat(player string) int {
	for i, p := range s.Players {
		if p == player {
			return i
		}
	}
	return -1
}

func (s *BoardGameState) IsTurnOf(player string) bool {
	if s.Turn.Player != "" {
		return s.Turn.Player == player
	}
	seat := s.Seat(player)
	return seat >= 0 && seat == s.Turn.Seat
}

// TurnPlayer resolves the turn indicator to a player id.
func (s *BoardGameState) TurnPlayer() string {
	if s.Turn.Player != "" {
		return s.Turn.Player
	}
	if s.Turn.Seat >= 0 && s.Turn.Seat < len(s.Players) {
		return s.Players[s.Turn.Seat]
	}
	return ""
}

func (s *BoardGameState) CanCreate() bool {
	return s.GameName == NoGame
}

func (s *BoardGameState) CanJoin(player string) bool {
	return s.GameName != NoGame &&
		s.Status == StatusWaiting &&
		len(s.Players) < MaxSeats &&
		s.Seat(player) < 0
}

// CanLeave covers playing, finished and disconnected games alike; a seated
// player can always walk away.
func (s *BoardGameState) CanLeave(player string) bool {
	return s.GameName != NoGame && s.Seat(player) >= 0
}

func (s *BoardGameState) CanMove(player string) bool {
	return s.Status == StatusInProgress && s.IsTurnOf(player)
}

// Offers reports whether move is one of the server's valid moves.
func (s *BoardGameState) Offers(move Move) bool {
	for _, m := range s.ValidMoves {
		if m.Equal(move) {
			return true
		}
	}
	return false
}

// MovesFrom filters the valid moves to those starting at pos, for
// highlighting destinations after a piece is picked up.
func (s *BoardGameState) MovesFrom(pos Position) []Move {
	var moves []Move
	for _, m := range s.ValidMoves {
		if m.From != nil && *m.From == pos {
			moves = append(moves, m)
		}
	}
	return moves
}

// MoveInColumn finds the offered drop move for a column, for games where a
// click picks a column rather than a cell.
func (s *BoardGameState) MoveInColumn(col int) (Move, bool) {
	for _, m := range s.ValidMoves {
		if m.From == nil && m.To.Col == col {
			return m, true
		}
	}
	return Move{}, false
}

// Clone deep copies the state so a snapshot handed to the UI cannot alias
// the mirror.
func (s BoardGameState) Clone() BoardGameState {
	out := s
	out.Players = append([]string{}, s.Players...)
	out.Board = make([][]int, len(s.Board))
	for i := range s.Board {
		out.Board[i] = append([]int{}, s.Board[i]...)
	}
	out.ValidMoves = make([]Move, len(s.ValidMoves))
	for i, m := range s.ValidMoves {
		out.ValidMoves[i] = m
		if m.From != nil {
			from := *m.From
			out.ValidMoves[i].From = &from
		}
	}
	return out
}
