package live

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/protocol"
	"github.com/iamasit07/arcade/internal/service/games"
)

// Lobby is the room every connection starts in. It is never deleted.
const Lobby = "Lobby"

// Peer is one authenticated connection as the hub sees it.
type Peer interface {
	ID() string
	DisplayName() string
	// Send queues data without blocking and reports whether it was queued.
	Send(data []byte) bool
	Close()
}

type GameRepository interface {
	SaveGame(ctx context.Context, rec games.Record) error
}

type Options struct {
	Registry *games.Registry
	Timing   games.Timing
	// History is optional; finished games are dropped when it is nil.
	History GameRepository
}

type member struct {
	peer Peer
	room string
}

// Hub owns every room and routes frames between members. A user id has at
// most one live connection; a new one replaces the old.
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]*room
	clients  map[string]*member
	registry *games.Registry
	timing   games.Timing
	history  GameRepository
}

func NewHub(opts Options) *Hub {
	if opts.Registry == nil {
		opts.Registry = games.DefaultRegistry()
	}
	if opts.Timing == (games.Timing{}) {
		opts.Timing = games.DefaultTiming()
	}
	h := &Hub{
		rooms:    make(map[string]*room),
		clients:  make(map[string]*member),
		registry: opts.Registry,
		timing:   opts.Timing,
		history:  opts.History,
	}
	h.rooms[Lobby] = newRoom(Lobby)
	return h
}

// Register adds p to the lobby, closing any older connection of the same
// user.
func (h *Hub) Register(p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[p.ID()]; ok {
		log.Printf("[WS] Replacing existing connection for %s", p.ID())
		h.leaveRoomLocked(old)
		old.peer.Close()
	}
	m := &member{peer: p}
	h.clients[p.ID()] = m
	h.joinLocked(m, Lobby)
	log.Printf("[WS] %s (%s) connected", p.ID(), p.DisplayName())
}

// Unregister removes p unless it has already been replaced by a newer
// connection for the same user.
func (h *Hub) Unregister(p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.clients[p.ID()]
	if !ok || m.peer != p {
		return
	}
	h.leaveRoomLocked(m)
	delete(h.clients, p.ID())
	log.Printf("[WS] %s disconnected", p.ID())
}

// Rooms lists room names, lobby included, sorted.
func (h *Hub) Rooms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.roomNamesLocked()
}

// RoomSummary is one row of the room listing.
type RoomSummary struct {
	Name    string
	Members int
	Game    *domain.BoardGameState
}

// Overview lists every room with its member count and game, sorted by name.
func (h *Hub) Overview() []RoomSummary {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]RoomSummary, 0, len(h.rooms))
	for _, name := range h.roomNamesLocked() {
		r := h.rooms[name]
		sum := RoomSummary{Name: name, Members: len(r.members)}
		if r.game != nil {
			s := r.game.State()
			sum.Game = &s
		}
		out = append(out, sum)
	}
	return out
}

func (h *Hub) roomNamesLocked() []string {
	names := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle processes one text message from p.
func (h *Hub) Handle(p Peer, data []byte) {
	frame, err := protocol.DecodeAs(data, protocol.ToServer)
	if err != nil {
		log.Printf("[WS] Invalid message from %s: %v", p.ID(), err)
		p.Send(protocol.Bytes(protocol.ServerError("Invalid message format")))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.clients[p.ID()]
	if !ok || m.peer != p {
		return
	}

	switch f := frame.(type) {
	case protocol.JoinRoom:
		name := strings.TrimSpace(f.RoomName)
		if name == "" {
			h.reply(m, protocol.ServerError("Room name is required"))
			return
		}
		h.joinLocked(m, name)
	case protocol.LeaveRoom:
		h.joinLocked(m, Lobby)
	case protocol.Rooms:
		h.reply(m, protocol.Rooms{Sender: protocol.ServerSender, RoomsPayload: protocol.RoomsPayload{Rooms: h.roomNamesLocked()}})
	case protocol.Clients:
		if r := h.rooms[m.room]; r != nil {
			h.reply(m, protocol.ServerClients(r.name, r.clientIDs()))
		}
	case protocol.Chat:
		if r := h.rooms[m.room]; r != nil {
			h.broadcast(r, protocol.Chat{
				Sender:      p.ID(),
				ChatPayload: protocol.ChatPayload{Message: f.Message, DisplayName: p.DisplayName()},
			}, "")
		}
	case protocol.RawSignal:
		if r := h.rooms[m.room]; r != nil {
			h.broadcast(r, protocol.RawSignal{Sender: p.ID(), Draw: f.Draw}, p.ID())
		}
	case protocol.VideoSignal:
		if r := h.rooms[m.room]; r != nil {
			h.relaySignal(r, m, f.Signal)
		}
	case protocol.GameAction:
		if r := h.rooms[m.room]; r != nil {
			h.handleGame(r, m, f.Action)
		}
	default:
		h.reply(m, protocol.ServerError(fmt.Sprintf("Unknown message type: %s", frame.Type())))
	}
}

func (h *Hub) reply(m *member, f protocol.Frame) {
	h.deliver(m, protocol.Bytes(f))
}

// deliver drops a peer whose buffer is full; its read loop then
// unregisters it.
func (h *Hub) deliver(m *member, data []byte) {
	if !m.peer.Send(data) {
		log.Printf("[WS] Send buffer full for %s, closing connection", m.peer.ID())
		m.peer.Close()
	}
}

// broadcast sends f to everyone in r except the member named skip.
func (h *Hub) broadcast(r *room, f protocol.Frame, skip string) {
	data := protocol.Bytes(f)
	for _, id := range r.clientIDs() {
		if id == skip {
			continue
		}
		h.deliver(r.members[id], data)
	}
}

func (h *Hub) relaySignal(r *room, from *member, signal protocol.SignalPayload) {
	f := protocol.VideoSignal{Sender: from.peer.ID(), Signal: signal}
	if signal.Target == "" {
		h.broadcast(r, f, from.peer.ID())
		return
	}
	if target, ok := r.members[signal.Target]; ok {
		h.reply(target, f)
	}
}

func (h *Hub) joinLocked(m *member, name string) {
	if m.room == name {
		return
	}
	if m.room != "" {
		h.leaveRoomLocked(m)
	}

	r, ok := h.rooms[name]
	if !ok {
		r = newRoom(name)
		h.rooms[name] = r
		log.Printf("[ROOM] Created %s", name)
	}
	id := m.peer.ID()
	r.members[id] = m
	m.room = name

	h.reply(m, protocol.ServerJoined(name))
	h.broadcast(r, protocol.ServerStatus(fmt.Sprintf("%s has joined %s", m.peer.DisplayName(), name)), "")
	h.broadcast(r, protocol.ServerClients(name, r.clientIDs()), "")

	if r.game == nil {
		return
	}
	if r.game.Reconnect(id) {
		log.Printf("[GAME] %s is back in %s", id, name)
		h.broadcastGame(r)
		return
	}
	h.reply(m, protocol.ServerGameState(r.state()))
}

func (h *Hub) leaveRoomLocked(m *member) {
	r, ok := h.rooms[m.room]
	m.room = ""
	if !ok {
		return
	}
	id := m.peer.ID()
	delete(r.members, id)

	h.broadcast(r, protocol.ServerStatus(fmt.Sprintf("%s has left %s", m.peer.DisplayName(), r.name)), "")
	h.broadcast(r, protocol.ServerClients(r.name, r.clientIDs()), "")

	if r.game != nil && r.game.Disconnect(id) {
		h.broadcastGame(r)
	}
	h.dropIfIdleLocked(r)
}

func (h *Hub) dropIfIdleLocked(r *room) {
	if r.name == Lobby || len(r.members) > 0 {
		return
	}
	if r.game != nil {
		status := r.game.Status()
		if status == domain.StatusInProgress || status == domain.StatusDisconnected {
			return
		}
		h.archive(r)
	}
	delete(h.rooms, r.name)
	log.Printf("[ROOM] Deleted empty room %s", r.name)
}

// Tick runs the game clocks of every room and removes idle rooms.
func (h *Hub) Tick() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range h.rooms {
		if r.game != nil {
			changed, expired := r.game.Tick(h.timing)
			if changed {
				h.archive(r)
				h.broadcastGame(r)
			}
			if expired {
				log.Printf("[CLEANUP] Removing finished %s game from %s", r.game.Name(), r.name)
				h.archive(r)
				r.game = nil
				h.broadcastGame(r)
			}
		}
		h.dropIfIdleLocked(r)
	}
}

// archive hands a finished game to the history store once.
func (h *Hub) archive(r *room) {
	if r.game == nil || r.archived {
		return
	}
	rec, ok := r.game.Record()
	if !ok {
		return
	}
	r.archived = true
	if h.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.history.SaveGame(ctx, rec); err != nil {
			log.Printf("[DB] Failed to save game %s: %v", rec.ID, err)
		}
	}()
}
