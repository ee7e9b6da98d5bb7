package live

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iamasit07/arcade/internal/protocol"
)

// StrokeSender is satisfied by Session.
type StrokeSender interface {
	SendStroke(points []protocol.Point, color string, width float64) error
	ClearCanvas() error
}

// StrokeBatcher buffers the points of the stroke being drawn and sends them
// as one draw frame per interval. Each flushed batch after the first repeats
// the previous batch's last point so receivers draw a continuous line.
type StrokeBatcher struct {
	mu       sync.Mutex
	sender   StrokeSender
	interval time.Duration
	color    string
	width    float64
	pending  []protocol.Point
	last     *protocol.Point
	drawing  bool
}

func NewStrokeBatcher(sender StrokeSender, interval time.Duration) *StrokeBatcher {
	return &StrokeBatcher{sender: sender, interval: interval, color: "#000000", width: 2}
}

// SetPen flushes what was drawn with the old pen before switching.
func (b *StrokeBatcher) SetPen(color string, width float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
	b.color, b.width = color, width
}

func (b *StrokeBatcher) Begin(p protocol.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
	b.drawing = true
	b.last = nil
	b.pending = append(b.pending[:0], p)
}

// Add records a point of the current stroke; points outside a stroke are
// dropped.
func (b *StrokeBatcher) Add(p protocol.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.drawing {
		return
	}
	b.pending = append(b.pending, p)
}

func (b *StrokeBatcher) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drawing = false
	b.flushLocked()
	b.last = nil
}

// Clear drops anything buffered and clears the canvas right away.
func (b *StrokeBatcher) Clear() error {
	b.mu.Lock()
	b.pending = b.pending[:0]
	b.last = nil
	b.mu.Unlock()
	return b.sender.ClearCanvas()
}

func (b *StrokeBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

func (b *StrokeBatcher) flushLocked() {
	if len(b.pending) == 0 {
		return
	}
	points := make([]protocol.Point, 0, len(b.pending)+1)
	if b.last != nil {
		points = append(points, *b.last)
	}
	points = append(points, b.pending...)
	if len(points) < 2 && b.drawing && b.last == nil {
		// a lone starting point waits for the next one
		return
	}

	if err := b.sender.SendStroke(points, b.color, b.width); err != nil {
		log.Printf("[DRAW] Failed to send stroke: %v", err)
	}
	end := points[len(points)-1]
	b.last = &end
	b.pending = b.pending[:0]
}

// Run flushes every interval until ctx is done.
func (b *StrokeBatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.Flush()
			return
		case <-ticker.C:
			b.Flush()
		}
	}
}
