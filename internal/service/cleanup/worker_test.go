package cleanup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type counter struct{ n atomic.Int32 }

func (c *counter) Tick() { c.n.Add(1) }

func TestWorkerTicksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &counter{}
	NewWorker(c, 5*time.Millisecond).Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for c.n.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks", c.n.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(20 * time.Millisecond)
	stopped := c.n.Load()
	time.Sleep(30 * time.Millisecond)
	if got := c.n.Load(); got > stopped+1 {
		t.Errorf("still ticking after cancel: %d -> %d", stopped, got)
	}
}

func TestDefaultInterval(t *testing.T) {
	if w := NewWorker(&counter{}, 0); w.Interval != time.Second {
		t.Errorf("interval = %s", w.Interval)
	}
}
