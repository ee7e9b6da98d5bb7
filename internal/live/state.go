package live

import (
	"sync"

	"github.com/iamasit07/arcade/internal/protocol"
)

// LogEntry is one line of the room log. Chat, status and error frames share
// the log in arrival order; Kind tells them apart for styling.
type LogEntry struct {
	Kind        protocol.FrameType
	Sender      string
	DisplayName string
	Message     string
}

// IsSystem reports whether the line came from the server rather than a user.
func (e LogEntry) IsSystem() bool {
	return e.Sender == protocol.ServerSender || e.Kind != protocol.TypeChat
}

// Snapshot is a copy of the observable session state.
type Snapshot struct {
	Status  Status
	Room    string
	Log     []LogEntry
	Clients []string
	Rooms   []string
	Error   string
}

// State is read by UI goroutines and written by the loop.
type State struct {
	mu       sync.RWMutex
	snap     Snapshot
	watchers subscribers[Snapshot]
}

func NewState() *State {
	return &State{snap: Snapshot{Status: StatusDisconnected}}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *State) copyLocked() Snapshot {
	out := s.snap
	out.Log = append([]LogEntry(nil), s.snap.Log...)
	out.Clients = append([]string(nil), s.snap.Clients...)
	out.Rooms = append([]string(nil), s.snap.Rooms...)
	return out
}

// Watch calls fn with a fresh snapshot after every change.
func (s *State) Watch(fn func(Snapshot)) (cancel func()) {
	return s.watchers.add(fn)
}

func (s *State) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	snap := s.copyLocked()
	s.mu.Unlock()
	s.watchers.publish(snap)
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Status
}

func (s *State) setStatus(status Status) {
	s.update(func(snap *Snapshot) { snap.Status = status })
}

func (s *State) setError(msg string) {
	s.update(func(snap *Snapshot) { snap.Error = msg })
}

// setRoom reports whether room differs from the current one.
func (s *State) setRoom(room string) bool {
	changed := false
	s.update(func(snap *Snapshot) {
		changed = snap.Room != room
		snap.Room = room
	})
	return changed
}

func (s *State) setClients(clients []string) {
	s.update(func(snap *Snapshot) { snap.Clients = append([]string{}, clients...) })
}

func (s *State) setRooms(rooms []string) {
	s.update(func(snap *Snapshot) { snap.Rooms = append([]string{}, rooms...) })
}

func (s *State) appendLog(e LogEntry) {
	s.update(func(snap *Snapshot) { snap.Log = append(snap.Log, e) })
}

// reset clears everything tied to a connection. Status is left to the
// connection manager.
func (s *State) reset() {
	s.update(func(snap *Snapshot) {
		snap.Room = ""
		snap.Log = nil
		snap.Clients = nil
		snap.Rooms = nil
		snap.Error = ""
	})
}
