package call

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/pion/stun/v3"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/protocol"
)

const (
	ErrNotInCall   domain.Error = "not in a call"
	ErrUnknownPeer domain.Error = "unknown peer"
	ErrWrongPhase  domain.Error = "peer is not in the right negotiation phase"
)

// DefaultICEServer is the public STUN server the web client used.
const DefaultICEServer = "stun:stun.l.google.com:19302"

// Phase of negotiation with one remote peer.
type Phase string

const (
	// PhaseNeedOffer: the peer announced itself and we owe it an offer.
	PhaseNeedOffer Phase = "need_offer"
	// PhaseOffered: our offer is out, waiting for the answer.
	PhaseOffered Phase = "offered"
	// PhaseNeedAnswer: the peer sent an offer and we owe it an answer.
	PhaseNeedAnswer Phase = "need_answer"
	PhaseNegotiated Phase = "negotiated"
)

type EventKind string

const (
	EventPeerJoined EventKind = "peer_joined"
	EventOffer      EventKind = "offer"
	EventAnswer     EventKind = "answer"
	EventCandidate  EventKind = "candidate"
	EventPeerLeft   EventKind = "peer_left"
)

// Event tells the media layer what to do next for a peer. Data carries the
// remote description or candidate untouched.
type Event struct {
	Kind EventKind
	Peer string
	Data json.RawMessage
}

type Source interface {
	OnVideoSignal(fn func(protocol.VideoSignal)) (cancel func())
}

type Signaler interface {
	SendVideoSignal(signal protocol.SignalPayload) error
}

type Config struct {
	Self       func() string
	ICEServers []string
}

// Tracker keeps per-peer negotiation state for a mesh call. It never touches
// media; the caller produces descriptions and candidates and feeds them in.
type Tracker struct {
	mu       sync.Mutex
	self     func() string
	signaler Signaler
	ice      []*stun.URI
	inCall   bool
	peers    map[string]Phase
	handlers []func(Event)
	cancel   func()
}

func NewTracker(src Source, signaler Signaler, cfg Config) (*Tracker, error) {
	servers := cfg.ICEServers
	if len(servers) == 0 {
		servers = []string{DefaultICEServer}
	}
	ice := make([]*stun.URI, 0, len(servers))
	for _, raw := range servers {
		uri, err := stun.ParseURI(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ICE server %q: %w", raw, err)
		}
		ice = append(ice, uri)
	}

	t := &Tracker{
		self:     cfg.Self,
		signaler: signaler,
		ice:      ice,
		peers:    make(map[string]Phase),
	}
	t.cancel = src.OnVideoSignal(t.handle)
	return t, nil
}

func (t *Tracker) Close() {
	if t.cancel != nil {
		t.cancel()
	}
}

// ICEServers returns the parsed server list for the media layer.
func (t *Tracker) ICEServers() []string {
	out := make([]string, len(t.ice))
	for i, uri := range t.ice {
		out[i] = uri.String()
	}
	return out
}

func (t *Tracker) OnEvent(fn func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, fn)
}

func (t *Tracker) emit(e Event) {
	t.mu.Lock()
	handlers := append([]func(Event){}, t.handlers...)
	t.mu.Unlock()
	for _, fn := range handlers {
		fn(e)
	}
}

func (t *Tracker) InCall() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inCall
}

// Peers returns each known peer and its phase, sorted by name.
func (t *Tracker) Peers() []PeerPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PeerPhase, 0, len(t.peers))
	for name, phase := range t.peers {
		out = append(out, PeerPhase{Peer: name, Phase: phase})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Peer < out[j].Peer })
	return out
}

type PeerPhase struct {
	Peer  string
	Phase Phase
}

func (t *Tracker) Phase(peer string) (Phase, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[peer]
	return p, ok
}

// Join announces us to the room; everyone already in the call will be asked
// to send an offer.
func (t *Tracker) Join() error {
	t.mu.Lock()
	t.inCall = true
	t.mu.Unlock()
	return t.signaler.SendVideoSignal(protocol.SignalPayload{Type: protocol.SignalJoin})
}

// Leave tells the room we are gone and forgets every peer.
func (t *Tracker) Leave() error {
	t.mu.Lock()
	if !t.inCall {
		t.mu.Unlock()
		return ErrNotInCall
	}
	t.inCall = false
	t.peers = make(map[string]Phase)
	t.mu.Unlock()
	return t.signaler.SendVideoSignal(protocol.SignalPayload{Type: protocol.SignalLeave})
}

func (t *Tracker) SendOffer(peer string, offer json.RawMessage) error {
	if err := t.advance(peer, PhaseNeedOffer, PhaseOffered); err != nil {
		return err
	}
	return t.signaler.SendVideoSignal(protocol.SignalPayload{Type: protocol.SignalOffer, Target: peer, Offer: offer})
}

func (t *Tracker) SendAnswer(peer string, answer json.RawMessage) error {
	if err := t.advance(peer, PhaseNeedAnswer, PhaseNegotiated); err != nil {
		return err
	}
	return t.signaler.SendVideoSignal(protocol.SignalPayload{Type: protocol.SignalAnswer, Target: peer, Answer: answer})
}

// SendCandidate relays a local ICE candidate to a known peer.
func (t *Tracker) SendCandidate(peer string, candidate json.RawMessage) error {
	t.mu.Lock()
	_, ok := t.peers[peer]
	inCall := t.inCall
	t.mu.Unlock()
	if !inCall {
		return ErrNotInCall
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}
	return t.signaler.SendVideoSignal(protocol.SignalPayload{Type: protocol.SignalICE, Target: peer, Candidate: candidate})
}

// Drop forgets a peer whose media connection failed.
func (t *Tracker) Drop(peer string) {
	t.mu.Lock()
	_, ok := t.peers[peer]
	delete(t.peers, peer)
	t.mu.Unlock()
	if ok {
		t.emit(Event{Kind: EventPeerLeft, Peer: peer})
	}
}

func (t *Tracker) advance(peer string, from, to Phase) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.inCall {
		return ErrNotInCall
	}
	phase, ok := t.peers[peer]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}
	if phase != from {
		return fmt.Errorf("%w: %s is %s", ErrWrongPhase, peer, phase)
	}
	t.peers[peer] = to
	return nil
}

func (t *Tracker) handle(f protocol.VideoSignal) {
	peer := f.Sender
	if peer == "" || (t.self != nil && peer == t.self()) {
		return
	}
	sig := f.Signal

	t.mu.Lock()
	if !t.inCall {
		t.mu.Unlock()
		return
	}
	phase, known := t.peers[peer]
	var ev *Event
	switch sig.Type {
	case protocol.SignalJoin:
		t.peers[peer] = PhaseNeedOffer
		ev = &Event{Kind: EventPeerJoined, Peer: peer}
	case protocol.SignalOffer:
		t.peers[peer] = PhaseNeedAnswer
		ev = &Event{Kind: EventOffer, Peer: peer, Data: sig.Offer}
	case protocol.SignalAnswer:
		if known && phase == PhaseOffered {
			t.peers[peer] = PhaseNegotiated
			ev = &Event{Kind: EventAnswer, Peer: peer, Data: sig.Answer}
		} else {
			log.Printf("[CALL] Ignoring answer from %s in phase %q", peer, phase)
		}
	case protocol.SignalICE:
		if known {
			ev = &Event{Kind: EventCandidate, Peer: peer, Data: sig.Candidate}
		}
	case protocol.SignalLeave:
		if known {
			delete(t.peers, peer)
			ev = &Event{Kind: EventPeerLeft, Peer: peer}
		}
	default:
		log.Printf("[CALL] Unknown signal type %q from %s", sig.Type, peer)
	}
	t.mu.Unlock()

	if ev != nil {
		t.emit(*ev)
	}
}
