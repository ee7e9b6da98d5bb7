package reconnect

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is capped exponential backoff with jitter, run in bursts: after
// MaxAttempts failed connects the supervisor rests for Cooldown and starts
// a fresh burst.
type Policy struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int // per burst, 0 means no limit
	Cooldown    time.Duration
	// Jitter is the randomization factor; each wait lands in
	// [d*(1-Jitter), d*(1+Jitter)].
	Jitter float64
}

func DefaultPolicy() Policy {
	return Policy{
		Initial:     5 * time.Second,
		Max:         10 * time.Second,
		MaxAttempts: 10,
		Cooldown:    time.Minute,
		Jitter:      0.5,
	}
}

// NewBackOff returns a fresh schedule for one burst. NextBackOff answers
// backoff.Stop once MaxAttempts connects have been spent.
func (p Policy) NewBackOff() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.Initial,
		RandomizationFactor: p.Jitter,
		Multiplier:          2,
		MaxInterval:         p.Max,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	if p.MaxAttempts <= 0 {
		return b
	}
	// The first connect of a burst happens without a wait.
	return backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
}

// RestAfterBurst is the pause before a new burst starts.
func (p Policy) RestAfterBurst() time.Duration {
	if p.Cooldown > 0 {
		return p.Cooldown
	}
	return p.Max
}
