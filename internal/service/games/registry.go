package games

import (
	"fmt"
	"sort"
	"time"

	"github.com/iamasit07/arcade/internal/domain"
)

// Factory builds fresh rules for a new game.
type Factory func() Rules

type Registry struct {
	factories map[domain.GameName]Factory
	now       func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[domain.GameName]Factory), now: time.Now}
}

// DefaultRegistry knows every game the client can ask for.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.TicTacToe, NewTicTacToe)
	r.Register(domain.Connect4, NewConnect4)
	r.Register(domain.Chess, NewChess)
	return r
}

func (r *Registry) Register(name domain.GameName, factory Factory) {
	r.factories[name] = factory
}

// SetClock replaces the time source handed to every game created after the
// call.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Registry) Names() []domain.GameName {
	names := make([]domain.GameName, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Create seats creator at a new game of the given kind.
func (r *Registry) Create(name domain.GameName, creator string) (*Game, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownGame, name)
	}
	return newGame(name, factory(), creator, r.now), nil
}
