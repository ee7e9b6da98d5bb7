package auth

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/iamasit07/arcade/internal/domain"
)

const (
	ErrRefreshFailed domain.Error = "access refresh failed"
	ErrNotLoggedIn   domain.Error = "not logged in"
)

// Refresher trades the refresh cookie for a new access credential.
type Refresher interface {
	Refresh(ctx context.Context) (Credential, error)
}

// Persister keeps the identity across restarts. Implementations never see a
// token, only what Credential holds.
type Persister interface {
	Save(c Credential) error
	Clear() error
}

type GateConfig struct {
	Refresher     Refresher
	Persister     Persister
	Clock         Clock
	RefreshBefore time.Duration
	// RefreshTimeout bounds a refresh started by the timer.
	RefreshTimeout time.Duration
}

// Gate owns the access expiry and keeps it fresh while any dependent is
// registered. A failed refresh logs the user out.
type Gate struct {
	mu         sync.Mutex
	cfg        GateConfig
	cred       Credential
	dependents map[string]struct{}
	timer      Timer
	timerSeq   uint64
	refreshing bool

	listeners []func(Credential)
}

func NewGate(cfg GateConfig) *Gate {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.RefreshTimeout == 0 {
		cfg.RefreshTimeout = 15 * time.Second
	}
	return &Gate{cfg: cfg, dependents: make(map[string]struct{})}
}

// OnChange registers fn for every login, refresh and logout. Listeners are
// called without the gate's lock held.
func (g *Gate) OnChange(fn func(Credential)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

func (g *Gate) notify(c Credential) {
	g.mu.Lock()
	listeners := append([]func(Credential){}, g.listeners...)
	g.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

func (g *Gate) Credential() Credential {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cred
}

func (g *Gate) LoggedIn() bool {
	return g.Credential().LoggedIn()
}

// AccessValid reports now < expiry.
func (g *Gate) AccessValid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.validLocked()
}

func (g *Gate) validLocked() bool {
	return !g.cred.AccessExp.IsZero() && g.cfg.Clock.Now().Before(g.cred.AccessExp)
}

// Restore loads a persisted identity without writing it back. The cookies
// behind the stored expiry did not survive the restart, so access starts out
// lapsed and the first reconciliation tick must refresh it.
func (g *Gate) Restore(c Credential) {
	c.AccessExp = time.Time{}
	g.mu.Lock()
	g.cred = c
	g.stopLocked()
	g.mu.Unlock()
	g.notify(c)
}

// Login installs the credential from a login or refresh response.
func (g *Gate) Login(c Credential) {
	g.mu.Lock()
	g.cred = c
	g.scheduleLocked()
	g.mu.Unlock()

	if g.cfg.Persister != nil {
		if err := g.cfg.Persister.Save(c); err != nil {
			log.Printf("[SESSION] Failed to persist credential for %s: %v", c.Username, err)
		}
	}
	g.notify(c)
}

// Logout clears local state only; calling the logout endpoint is up to
// the caller.
func (g *Gate) Logout() {
	g.mu.Lock()
	g.cred = Credential{}
	g.stopLocked()
	g.mu.Unlock()

	if g.cfg.Persister != nil {
		if err := g.cfg.Persister.Clear(); err != nil {
			log.Printf("[SESSION] Failed to clear persisted credential: %v", err)
		}
	}
	g.notify(Credential{})
}

// AddDependent registers interest in a live session. Adding the first
// dependent schedules a refresh.
func (g *Gate) AddDependent(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.dependents[id]; ok {
		return
	}
	g.dependents[id] = struct{}{}
	if len(g.dependents) == 1 {
		g.scheduleLocked()
	}
}

// RemoveDependent drops interest; removing the last one cancels any pending
// refresh.
func (g *Gate) RemoveDependent(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.dependents[id]; !ok {
		return
	}
	delete(g.dependents, id)
	if len(g.dependents) == 0 {
		g.stopLocked()
	}
}

func (g *Gate) HasDependents() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.dependents) > 0
}

func (g *Gate) stopLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	// a timer that already fired but has not run yet sees a new sequence
	g.timerSeq++
}

// scheduleLocked arms a single refresh at max(expiry - lead - now, 0). An
// expired credential is left to the reconciliation tick.
func (g *Gate) scheduleLocked() {
	g.stopLocked()
	if len(g.dependents) == 0 || !g.validLocked() {
		return
	}

	delay := g.cred.AccessExp.Sub(g.cfg.Clock.Now()) - g.cfg.RefreshBefore
	if delay < 0 {
		delay = 0
	}
	seq := g.timerSeq
	g.timer = g.cfg.Clock.AfterFunc(delay, func() { g.fire(seq) })
	log.Printf("[SESSION] Access refresh scheduled in %s", delay)
}

func (g *Gate) fire(seq uint64) {
	g.mu.Lock()
	if seq != g.timerSeq {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.RefreshTimeout)
	defer cancel()
	if err := g.Refresh(ctx); err != nil {
		log.Printf("[SESSION] Scheduled refresh failed: %v", err)
	}
}

// Refresh performs one refresh round trip. Success reschedules from the new
// expiry; failure logs out. Concurrent calls while one is running return nil
// immediately.
func (g *Gate) Refresh(ctx context.Context) error {
	g.mu.Lock()
	if g.refreshing {
		g.mu.Unlock()
		return nil
	}
	if g.cfg.Refresher == nil {
		g.mu.Unlock()
		return ErrNotLoggedIn
	}
	g.refreshing = true
	g.mu.Unlock()

	cred, err := g.cfg.Refresher.Refresh(ctx)

	g.mu.Lock()
	g.refreshing = false
	g.mu.Unlock()

	if err != nil {
		log.Printf("[SESSION] Refresh failed, logging out: %v", err)
		g.Logout()
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	g.Login(cred)
	return nil
}
