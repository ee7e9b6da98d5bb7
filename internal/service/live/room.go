package live

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/protocol"
	"github.com/iamasit07/arcade/internal/service/games"
)

const (
	errGameExists   domain.Error = "Game already exists in this room"
	errNoGameToJoin domain.Error = "No game to join"
	errNoGame       domain.Error = "No game in progress"
	errMissingMove  domain.Error = "missing move payload"
)

// room is a named group of members with at most one board game. The hub's
// lock guards every field.
type room struct {
	name     string
	members  map[string]*member
	game     *games.Game
	archived bool
}

func newRoom(name string) *room {
	return &room{name: name, members: make(map[string]*member)}
}

func (r *room) clientIDs() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *room) state() domain.BoardGameState {
	if r.game == nil {
		return domain.EmptyState()
	}
	return r.game.State()
}

func (h *Hub) broadcastGame(r *room) {
	h.broadcast(r, protocol.ServerGameState(r.state()), "")
}

func (h *Hub) handleGame(r *room, m *member, action protocol.GameActionPayload) {
	id := m.peer.ID()

	var err error
	switch action.Action {
	case protocol.ActionGet:
		h.reply(m, protocol.ServerGameState(r.state()))
		return
	case protocol.ActionCreate:
		err = h.createGame(r, id, action.GameName)
	case protocol.ActionJoin:
		if r.game == nil {
			err = errNoGameToJoin
		} else {
			err = r.game.Join(id)
		}
	case protocol.ActionMove:
		switch {
		case r.game == nil:
			err = errNoGame
		case action.Move == nil:
			err = errMissingMove
		default:
			err = r.game.Move(id, *action.Move)
		}
	case protocol.ActionLeave:
		if r.game == nil {
			err = errNoGame
			break
		}
		var empty bool
		if empty, err = r.game.Leave(id); err == nil && empty {
			log.Printf("[GAME] Last player left %s game in %s", r.game.Name(), r.name)
			h.archive(r)
			r.game = nil
		}
	default:
		err = fmt.Errorf("unknown action: %s", action.Action)
	}

	if err != nil {
		h.reply(m, protocol.ServerError("Failed to handle game state: "+err.Error()))
		return
	}
	h.archive(r)
	h.broadcastGame(r)
}

func (h *Hub) createGame(r *room, creator string, name domain.GameName) error {
	if r.game != nil {
		return errGameExists
	}
	g, err := h.registry.Create(name, creator)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownGame) {
			log.Printf("[GAME] %s asked for unsupported game %q", creator, name)
		}
		return err
	}
	r.game = g
	r.archived = false
	log.Printf("[GAME] %s created %s game %s in %s", creator, name, g.ID, r.name)
	return nil
}
