package boardgame

import (
	"fmt"
	"log"
	"sync"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/protocol"
)

// Source delivers authoritative game states and tells us when the server
// moves us to another room.
type Source interface {
	OnGameState(fn func(domain.BoardGameState)) (cancel func())
	OnRoomChange(fn func(room string)) (cancel func())
}

// Sender hands a game action to the connection.
type Sender interface {
	SendGameAction(action protocol.GameActionKind, name domain.GameName, move *domain.Move) error
}

// Controller mirrors one room's game. Every broadcast replaces the mirror;
// actions are checked against it before a frame goes out, and a rejected
// action sends nothing.
type Controller struct {
	mu        sync.Mutex
	sender    Sender
	self      func() string
	state     domain.BoardGameState
	listeners []func(domain.BoardGameState)
	cancel    func()
}

// Mount subscribes to game states and asks the server for the current one.
// Every room change clears the mirror and asks again.
func Mount(src Source, sender Sender, self func() string) (*Controller, error) {
	c := &Controller{sender: sender, self: self, state: domain.EmptyState()}
	cancelState := src.OnGameState(c.apply)
	cancelRoom := src.OnRoomChange(c.roomChanged)
	c.cancel = func() {
		cancelState()
		cancelRoom()
	}
	if err := sender.SendGameAction(protocol.ActionGet, domain.NoGame, nil); err != nil {
		c.cancel()
		return nil, fmt.Errorf("failed to request game state: %w", err)
	}
	return c, nil
}

func (c *Controller) Unmount() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Controller) apply(s domain.BoardGameState) {
	c.mu.Lock()
	c.state = s.Clone()
	listeners := append([]func(domain.BoardGameState){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s.Clone())
	}
}

// roomChanged drops the previous room's game. Outside any room there is
// nothing to ask for.
func (c *Controller) roomChanged(room string) {
	c.apply(domain.EmptyState())
	if room == "" {
		return
	}
	if err := c.Refresh(); err != nil {
		log.Printf("[GAME] Failed to request state for %s: %v", room, err)
	}
}

// OnChange is called with a copy of every new state.
func (c *Controller) OnChange(fn func(domain.BoardGameState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) State() domain.BoardGameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Actions lists what the local player may do right now, for enabling
// buttons. Move appears only when at least one move is offered.
func (c *Controller) Actions() []protocol.GameActionKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	me := c.self()
	var actions []protocol.GameActionKind
	if c.state.CanCreate() {
		actions = append(actions, protocol.ActionCreate)
	}
	if c.state.CanJoin(me) {
		actions = append(actions, protocol.ActionJoin)
	}
	if c.state.CanMove(me) && len(c.state.ValidMoves) > 0 {
		actions = append(actions, protocol.ActionMove)
	}
	if c.state.CanLeave(me) {
		actions = append(actions, protocol.ActionLeave)
	}
	return actions
}

func (c *Controller) Refresh() error {
	return c.sender.SendGameAction(protocol.ActionGet, domain.NoGame, nil)
}

func (c *Controller) Create(name domain.GameName) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownGame, name)
	}
	c.mu.Lock()
	ok := c.state.CanCreate()
	c.mu.Unlock()
	if !ok {
		return domain.ErrGameExists
	}
	return c.send(protocol.ActionCreate, name, nil)
}

func (c *Controller) Join() error {
	c.mu.Lock()
	s := c.state
	me := c.self()
	c.mu.Unlock()

	switch {
	case s.GameName == domain.NoGame:
		return domain.ErrNoGame
	case s.Seat(me) >= 0:
		return domain.ErrAlreadySeated
	case s.Status != domain.StatusWaiting:
		return domain.ErrNotJoinable
	case len(s.Players) >= domain.MaxSeats:
		return domain.ErrGameFull
	}
	return c.send(protocol.ActionJoin, s.GameName, nil)
}

// Leave does not ask for confirmation; that is the UI's job.
func (c *Controller) Leave() error {
	c.mu.Lock()
	s := c.state
	me := c.self()
	c.mu.Unlock()

	if s.GameName == domain.NoGame {
		return domain.ErrNothingToLeave
	}
	if !s.CanLeave(me) {
		return domain.ErrNotSeated
	}
	return c.send(protocol.ActionLeave, s.GameName, nil)
}

func canMove(s *domain.BoardGameState, me string) error {
	if s.Status != domain.StatusInProgress {
		return domain.ErrNotInProgress
	}
	if !s.IsTurnOf(me) {
		return domain.ErrNotYourTurn
	}
	return nil
}

// Move sends m only if it is our turn and the server offered it.
func (c *Controller) Move(m domain.Move) error {
	c.mu.Lock()
	s := c.state
	me := c.self()
	c.mu.Unlock()

	if err := canMove(&s, me); err != nil {
		return err
	}
	if !s.Offers(m) {
		return fmt.Errorf("%w: %s", domain.ErrMoveNotOffered, m)
	}
	return c.send(protocol.ActionMove, s.GameName, &m)
}

// DropInColumn moves in a gravity game by column.
func (c *Controller) DropInColumn(col int) error {
	c.mu.Lock()
	s := c.state
	me := c.self()
	c.mu.Unlock()

	if err := canMove(&s, me); err != nil {
		return err
	}
	m, ok := s.MoveInColumn(col)
	if !ok {
		return domain.ErrColumnFull
	}
	return c.send(protocol.ActionMove, s.GameName, &m)
}

func (c *Controller) send(action protocol.GameActionKind, name domain.GameName, m *domain.Move) error {
	if err := c.sender.SendGameAction(action, name, m); err != nil {
		log.Printf("[GAME] Failed to send %s: %v", action, err)
		return err
	}
	return nil
}
