package reconnect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/iamasit07/arcade/internal/live"
)

func TestPolicyBackOff(t *testing.T) {
	p := Policy{Initial: 5 * time.Second, Max: 10 * time.Second, MaxAttempts: 4}
	b := p.NewBackOff()
	want := []time.Duration{5 * time.Second, 10 * time.Second, 10 * time.Second, backoff.Stop}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("wait %d = %s, want %s", i+1, got, w)
		}
	}
	b.Reset()
	if got := b.NextBackOff(); got != 5*time.Second {
		t.Errorf("after reset = %s, want 5s", got)
	}

	unlimited := Policy{Initial: time.Second, Max: 2 * time.Second}.NewBackOff()
	for i := 0; i < 100; i++ {
		if unlimited.NextBackOff() == backoff.Stop {
			t.Fatalf("zero MaxAttempts means unlimited, stopped at %d", i)
		}
	}
}

func TestPolicyJitter(t *testing.T) {
	p := DefaultPolicy()
	p.MaxAttempts = 0
	b := p.NewBackOff()
	b.NextBackOff()
	for i := 0; i < 100; i++ {
		if d := b.NextBackOff(); d < 5*time.Second || d > 15*time.Second {
			t.Fatalf("wait %s outside [5s, 15s]", d)
		}
	}
}

func TestPolicyRestAfterBurst(t *testing.T) {
	if got := DefaultPolicy().RestAfterBurst(); got != time.Minute {
		t.Errorf("RestAfterBurst = %s, want 1m", got)
	}
	if got := (Policy{Max: 10 * time.Second}).RestAfterBurst(); got != 10*time.Second {
		t.Errorf("without a cooldown the rest falls back to Max, got %s", got)
	}
}

type fakeGate struct {
	dependents bool
	valid      bool
	loggedIn   bool
	refreshes  int
	refreshOK  bool
}

func (g *fakeGate) HasDependents() bool { return g.dependents }
func (g *fakeGate) AccessValid() bool   { return g.valid }
func (g *fakeGate) LoggedIn() bool      { return g.loggedIn }

func (g *fakeGate) Refresh(ctx context.Context) error {
	g.refreshes++
	if g.refreshOK {
		g.valid = true
		return nil
	}
	g.loggedIn = false
	return errors.New("refresh rejected")
}

type fakeSession struct {
	status      live.Status
	connects    int
	disconnects int
	connectErr  error
}

func (s *fakeSession) Status() live.Status { return s.status }

func (s *fakeSession) Connect(ctx context.Context) error {
	s.connects++
	if s.connectErr != nil {
		return s.connectErr
	}
	s.status = live.StatusConnecting
	return nil
}

func (s *fakeSession) Disconnect(ctx context.Context, reason string) error {
	s.disconnects++
	s.status = live.StatusDisconnected
	return nil
}

func newTestSupervisor(gate *fakeGate, session *fakeSession, policy Policy) (*Supervisor, *time.Time) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sup := NewSupervisor(gate, session, policy)
	sup.now = func() time.Time { return now }
	return sup, &now
}

func TestTickWithoutDependentsDisconnects(t *testing.T) {
	gate := &fakeGate{valid: true, loggedIn: true}
	session := &fakeSession{status: live.StatusConnected}
	sup, _ := newTestSupervisor(gate, session, DefaultPolicy())

	sup.Tick(context.Background())
	if session.disconnects != 1 || session.connects != 0 {
		t.Errorf("expected a disconnect and no connect, got %d/%d", session.disconnects, session.connects)
	}
	sup.Tick(context.Background())
	if session.disconnects != 1 {
		t.Errorf("already disconnected sessions are left alone")
	}
}

func TestTickRefreshesThenConnects(t *testing.T) {
	gate := &fakeGate{dependents: true, loggedIn: true, refreshOK: true}
	session := &fakeSession{status: live.StatusDisconnected}
	sup, _ := newTestSupervisor(gate, session, DefaultPolicy())

	sup.Tick(context.Background())
	if gate.refreshes != 1 {
		t.Fatalf("expected one refresh, got %d", gate.refreshes)
	}
	if session.connects != 1 || session.status != live.StatusConnecting {
		t.Errorf("expected a connect after refresh, got %d (%s)", session.connects, session.status)
	}
}

func TestTickFailedRefreshTearsDown(t *testing.T) {
	gate := &fakeGate{dependents: true, loggedIn: true}
	session := &fakeSession{status: live.StatusConnected}
	sup, _ := newTestSupervisor(gate, session, DefaultPolicy())

	sup.Tick(context.Background())
	if session.disconnects != 1 || session.connects != 0 {
		t.Errorf("expected teardown, got %d disconnects %d connects", session.disconnects, session.connects)
	}

	sup.Tick(context.Background())
	if gate.refreshes != 1 {
		t.Errorf("logged-out gate must not be refreshed again, got %d", gate.refreshes)
	}
}

func TestTickBacksOff(t *testing.T) {
	gate := &fakeGate{dependents: true, valid: true, loggedIn: true}
	session := &fakeSession{status: live.StatusDisconnected, connectErr: errors.New("dial failed")}
	policy := Policy{Initial: 5 * time.Second, Max: 10 * time.Second, MaxAttempts: 3, Cooldown: time.Minute}
	sup, now := newTestSupervisor(gate, session, policy)
	ctx := context.Background()

	steps := []struct {
		advance  time.Duration
		connects int
	}{
		{0, 1},
		{time.Second, 1},
		{4 * time.Second, 2},
		{5 * time.Second, 2},
		{5 * time.Second, 3},
		{30 * time.Second, 3},
		{30 * time.Second, 4},
		{4 * time.Second, 4},
		{time.Second, 5},
	}
	for i, step := range steps {
		*now = now.Add(step.advance)
		sup.Tick(ctx)
		if session.connects != step.connects {
			t.Fatalf("step %d: connects = %d, want %d", i, session.connects, step.connects)
		}
	}

	// reaching connected resets the budget
	session.status = live.StatusConnected
	sup.Tick(ctx)
	if sup.Attempts() != 0 || sup.resting {
		t.Errorf("connected session should reset backoff, attempts=%d", sup.Attempts())
	}
	session.status = live.StatusDisconnected
	sup.Tick(ctx)
	if session.connects != 6 {
		t.Errorf("expected an immediate reconnect after a drop, got %d", session.connects)
	}
}

func TestTickRecoversAfterOutage(t *testing.T) {
	gate := &fakeGate{dependents: true, valid: true, loggedIn: true}
	session := &fakeSession{status: live.StatusDisconnected, connectErr: errors.New("connection refused")}
	sup, now := newTestSupervisor(gate, session, DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 300; i++ {
		sup.Tick(ctx)
		*now = now.Add(time.Second)
	}
	during := session.connects
	if during <= DefaultPolicy().MaxAttempts {
		t.Fatalf("a five minute outage should span several bursts, got %d connects", during)
	}

	session.connectErr = nil
	for i := 0; i < 120 && session.status != live.StatusConnecting; i++ {
		sup.Tick(ctx)
		*now = now.Add(time.Second)
	}
	if session.status != live.StatusConnecting || session.connects == during {
		t.Errorf("supervisor did not reconnect once the server came back (status %s)", session.status)
	}
}

func TestTickWaitsWhileConnecting(t *testing.T) {
	gate := &fakeGate{dependents: true, valid: true, loggedIn: true}
	session := &fakeSession{status: live.StatusConnecting}
	sup, _ := newTestSupervisor(gate, session, DefaultPolicy())
	sup.Tick(context.Background())
	if session.connects != 0 || session.disconnects != 0 {
		t.Errorf("connecting session must be left alone")
	}
}
