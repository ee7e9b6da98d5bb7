package reconnect

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/iamasit07/arcade/internal/live"
)

// Gate is the part of the auth gate the supervisor consults.
type Gate interface {
	HasDependents() bool
	AccessValid() bool
	LoggedIn() bool
	Refresh(ctx context.Context) error
}

// Session is the part of the live session the supervisor drives.
type Session interface {
	Status() live.Status
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context, reason string) error
}

// Supervisor reconciles the connection with the credential on every tick:
// it refreshes an expired access credential, drops the connection when
// nobody needs it or access is gone, and reconnects with backoff otherwise.
// A spent burst of attempts only pauses reconnecting; it never stops it.
// Tick is not goroutine-safe; Run calls it from a single goroutine.
type Supervisor struct {
	gate    Gate
	session Session
	policy  Policy
	now     func() time.Time

	backoff  backoff.BackOff
	attempts int
	nextAt   time.Time
	resting  bool
}

func NewSupervisor(gate Gate, session Session, policy Policy) *Supervisor {
	return &Supervisor{
		gate:    gate,
		session: session,
		policy:  policy,
		now:     time.Now,
		backoff: policy.NewBackOff(),
	}
}

// Attempts is the number of connects tried since the last successful open.
func (s *Supervisor) Attempts() int {
	return s.attempts
}

func (s *Supervisor) reset() {
	s.attempts = 0
	s.nextAt = time.Time{}
	s.resting = false
	s.backoff.Reset()
}

func (s *Supervisor) disconnect(ctx context.Context) {
	if s.session.Status() == live.StatusDisconnected {
		return
	}
	if err := s.session.Disconnect(ctx, live.DefaultLeaveReason); err != nil {
		log.Printf("[RECONNECT] Disconnect failed: %v", err)
	}
}

func (s *Supervisor) Tick(ctx context.Context) {
	if !s.gate.HasDependents() {
		s.disconnect(ctx)
		s.reset()
		return
	}

	if !s.gate.AccessValid() {
		if s.gate.LoggedIn() {
			if err := s.gate.Refresh(ctx); err != nil {
				log.Printf("[RECONNECT] Access refresh failed: %v", err)
			}
		}
		if !s.gate.AccessValid() {
			s.disconnect(ctx)
			s.reset()
			return
		}
	}

	switch s.session.Status() {
	case live.StatusConnected:
		if s.attempts > 0 {
			log.Printf("[RECONNECT] Connected after %d attempt(s)", s.attempts)
		}
		s.reset()
	case live.StatusConnecting:
	case live.StatusDisconnected:
		now := s.now()
		if s.attempts > 0 && now.Before(s.nextAt) {
			return
		}
		if s.resting {
			log.Printf("[RECONNECT] Resuming after %d attempts", s.attempts)
			s.resting = false
		}
		s.attempts++
		if err := s.session.Connect(ctx); err != nil {
			log.Printf("[RECONNECT] Attempt %d failed: %v", s.attempts, err)
		}
		delay := s.backoff.NextBackOff()
		if delay == backoff.Stop {
			delay = s.policy.RestAfterBurst()
			log.Printf("[RECONNECT] %d attempts failed, next try in %s", s.attempts, delay)
			s.resting = true
			s.backoff.Reset()
		}
		s.nextAt = now.Add(delay)
	}
}

// Run ticks immediately and then every interval until ctx is done.
func (s *Supervisor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
