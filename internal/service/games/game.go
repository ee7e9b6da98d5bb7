package games

import (
	"log"
	"time"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/pkg/uid"
)

// Outcome of a single move, seen from the player who made it.
type Outcome int

const (
	Ongoing Outcome = iota
	Won
	Drawn
)

// Rules is the per-game part of a match: the board and what a move does to
// it. Seats are 0 and 1; seat 0 always moves first.
type Rules interface {
	Board() [][]int
	Apply(seat int, move domain.Move) (Outcome, error)
	ValidMoves(seat int) []domain.Move
}

// Timing controls how long a dropped player may stay away and how long a
// finished game lingers before the room removes it.
type Timing struct {
	ReconnectWindow time.Duration
	CleanupDelay    time.Duration
}

func DefaultTiming() Timing {
	return Timing{ReconnectWindow: 60 * time.Second, CleanupDelay: 5 * time.Minute}
}

// Game seats two players around a Rules value. It is not safe for concurrent
// use; the owning room serializes access.
type Game struct {
	ID        string
	name      domain.GameName
	rules     Rules
	players   []string
	lineup    []string
	turn      int
	status    domain.GameStatus
	winner    string
	moves     int
	startedAt time.Time
	endedAt   time.Time
	away      map[string]time.Time
	now       func() time.Time
}

func newGame(name domain.GameName, rules Rules, creator string, now func() time.Time) *Game {
	if now == nil {
		now = time.Now
	}
	return &Game{
		ID:      uid.GenerateGameID(),
		name:    name,
		rules:   rules,
		players: []string{creator},
		status:  domain.StatusWaiting,
		away:    make(map[string]time.Time),
		now:     now,
	}
}

func (g *Game) Name() domain.GameName {
	return g.name
}

func (g *Game) Status() domain.GameStatus {
	return g.status
}

func (g *Game) seat(player string) int {
	for i, p := range g.players {
		if p == player {
			return i
		}
	}
	return -1
}

func (g *Game) Seated(player string) bool {
	return g.seat(player) >= 0
}

func (g *Game) Join(player string) error {
	if g.seat(player) >= 0 {
		return domain.ErrAlreadySeated
	}
	if g.status != domain.StatusWaiting {
		return domain.ErrNotJoinable
	}
	if len(g.players) >= domain.MaxSeats {
		return domain.ErrGameFull
	}
	g.players = append(g.players, player)
	if len(g.players) == domain.MaxSeats {
		g.status = domain.StatusInProgress
		g.startedAt = g.now()
		g.lineup = append([]string{}, g.players...)
		log.Printf("[GAME] %s %s started: %s vs %s", g.name, g.ID, g.players[0], g.players[1])
	}
	return nil
}

func (g *Game) Move(player string, move domain.Move) error {
	if g.status != domain.StatusInProgress {
		return domain.ErrNotInProgress
	}
	seat := g.seat(player)
	if seat < 0 {
		return domain.ErrNotSeated
	}
	if seat != g.turn {
		return domain.ErrNotYourTurn
	}

	outcome, err := g.rules.Apply(seat, move)
	if err != nil {
		return err
	}
	g.moves++

	switch outcome {
	case Won:
		g.finish(domain.StatusWin, player)
	case Drawn:
		g.finish(domain.StatusDraw, "")
	default:
		g.turn = 1 - g.turn
	}
	return nil
}

func (g *Game) finish(status domain.GameStatus, winner string) {
	g.status = status
	g.winner = winner
	g.endedAt = g.now()
	log.Printf("[GAME] %s %s ended: status=%s winner=%q moves=%d", g.name, g.ID, status, winner, g.moves)
}

// Leave unseats player. Walking out of a running game forfeits it to the
// opponent. It reports whether the table is now empty.
func (g *Game) Leave(player string) (bool, error) {
	seat := g.seat(player)
	if seat < 0 {
		return false, domain.ErrNotSeated
	}
	if g.status == domain.StatusInProgress || g.status == domain.StatusDisconnected {
		g.finish(domain.StatusFinished, g.players[1-seat])
	}
	delete(g.away, player)
	g.players = append(g.players[:seat], g.players[seat+1:]...)
	return len(g.players) == 0, nil
}

// Disconnect pauses a running game when one of its players drops. It
// reports whether the state changed.
func (g *Game) Disconnect(player string) bool {
	if g.seat(player) < 0 {
		return false
	}
	if g.status != domain.StatusInProgress && g.status != domain.StatusDisconnected {
		return false
	}
	if _, ok := g.away[player]; ok {
		return false
	}
	g.away[player] = g.now()
	g.status = domain.StatusDisconnected
	return true
}

// Reconnect resumes the game once every dropped player is back.
func (g *Game) Reconnect(player string) bool {
	if _, ok := g.away[player]; !ok {
		return false
	}
	delete(g.away, player)
	if len(g.away) == 0 && g.status == domain.StatusDisconnected {
		g.status = domain.StatusInProgress
	}
	return true
}

// Tick applies the clocks. changed means the state should be broadcast,
// expired means the room should drop the game.
func (g *Game) Tick(timing Timing) (changed, expired bool) {
	now := g.now()
	if g.status == domain.StatusDisconnected {
		for player, since := range g.away {
			if now.Sub(since) < timing.ReconnectWindow {
				continue
			}
			winner := ""
			if seat := g.seat(player); seat >= 0 {
				if opp := g.players[1-seat]; g.away[opp].IsZero() {
					winner = opp
				}
			}
			log.Printf("[GAME] %s did not come back to %s %s", player, g.name, g.ID)
			g.away = make(map[string]time.Time)
			g.finish(domain.StatusFinished, winner)
			return true, false
		}
	}
	if g.status.Over() && now.Sub(g.endedAt) > timing.CleanupDelay {
		return false, true
	}
	return false, false
}

func (g *Game) State() domain.BoardGameState {
	moves := []domain.Move{}
	if g.status == domain.StatusInProgress {
		if valid := g.rules.ValidMoves(g.turn); valid != nil {
			moves = valid
		}
	}
	return domain.BoardGameState{
		GameName:   g.name,
		Players:    append([]string{}, g.players...),
		Turn:       domain.SeatTurn(g.turn),
		Board:      g.rules.Board(),
		Status:     g.status,
		Winner:     g.winner,
		ValidMoves: moves,
	}
}

// Record describes a finished game for the history store.
type Record struct {
	ID        string
	GameName  domain.GameName
	Players   []string
	Winner    string
	Status    domain.GameStatus
	Moves     int
	StartedAt time.Time
	EndedAt   time.Time
	Board     [][]int
}

// Record returns the finished game, or false while it is still open.
// Games that never started are not worth keeping.
func (g *Game) Record() (Record, bool) {
	if !g.status.Over() || g.startedAt.IsZero() {
		return Record{}, false
	}
	return Record{
		ID:        g.ID,
		GameName:  g.name,
		Players:   append([]string{}, g.lineup...),
		Winner:    g.winner,
		Status:    g.status,
		Moves:     g.moves,
		StartedAt: g.startedAt,
		EndedAt:   g.endedAt,
		Board:     g.rules.Board(),
	}, true
}
