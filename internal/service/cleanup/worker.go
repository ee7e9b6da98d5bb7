package cleanup

import (
	"context"
	"log"
	"time"
)

// Ticker is anything with periodic housekeeping; the live hub runs its game
// clocks and drops idle rooms on each call.
type Ticker interface {
	Tick()
}

type Worker struct {
	Target   Ticker
	Interval time.Duration
}

func NewWorker(target Ticker, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{Target: target, Interval: interval}
}

// Start runs the ticker in the background until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("[CLEANUP] Background worker stopped")
				return
			case <-ticker.C:
				w.Target.Tick()
			}
		}
	}()
	log.Printf("[CLEANUP] Background worker started (every %s)", w.Interval)
}
