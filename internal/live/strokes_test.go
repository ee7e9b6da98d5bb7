package live

import (
	"errors"
	"testing"
	"time"

	"github.com/iamasit07/arcade/internal/protocol"
)

type strokeCall struct {
	points []protocol.Point
	color  string
	width  float64
	clear  bool
}

type fakeStrokes struct {
	calls []strokeCall
	err   error
}

func (f *fakeStrokes) SendStroke(points []protocol.Point, color string, width float64) error {
	f.calls = append(f.calls, strokeCall{points: append([]protocol.Point{}, points...), color: color, width: width})
	return f.err
}

func (f *fakeStrokes) ClearCanvas() error {
	f.calls = append(f.calls, strokeCall{clear: true})
	return f.err
}

func pt(x, y float64) protocol.Point { return protocol.Point{X: x, Y: y} }

func TestStrokeBatching(t *testing.T) {
	sender := &fakeStrokes{}
	b := NewStrokeBatcher(sender, 100*time.Millisecond)

	b.Begin(pt(0, 0))
	b.Flush()
	if len(sender.calls) != 0 {
		t.Fatalf("a lone starting point should wait, got %+v", sender.calls)
	}

	b.Add(pt(1, 1))
	b.Add(pt(2, 2))
	b.Flush()
	b.Add(pt(3, 3))
	b.End()
	b.Flush()

	if len(sender.calls) != 2 {
		t.Fatalf("expected two batches, got %+v", sender.calls)
	}
	first, second := sender.calls[0], sender.calls[1]
	if len(first.points) != 3 || first.points[2] != pt(2, 2) {
		t.Errorf("first batch = %+v", first.points)
	}
	if len(second.points) != 2 || second.points[0] != pt(2, 2) || second.points[1] != pt(3, 3) {
		t.Errorf("second batch should continue from the last point, got %+v", second.points)
	}
	if first.color != "#000000" || first.width != 2 {
		t.Errorf("default pen = %s/%v", first.color, first.width)
	}
}

func TestStrokeDotAndPen(t *testing.T) {
	sender := &fakeStrokes{}
	b := NewStrokeBatcher(sender, time.Second)

	b.SetPen("#ff0000", 5)
	b.Begin(pt(4, 4))
	b.End()
	if len(sender.calls) != 1 || len(sender.calls[0].points) != 1 || sender.calls[0].color != "#ff0000" {
		t.Fatalf("a click should send a single dot, got %+v", sender.calls)
	}

	b.Add(pt(9, 9))
	b.Flush()
	if len(sender.calls) != 1 {
		t.Errorf("points outside a stroke must be dropped")
	}
}

func TestStrokeClearIsImmediate(t *testing.T) {
	sender := &fakeStrokes{}
	b := NewStrokeBatcher(sender, time.Hour)

	b.Begin(pt(0, 0))
	b.Add(pt(1, 0))
	if err := b.Clear(); err != nil {
		t.Fatal(err)
	}
	b.End()
	if len(sender.calls) != 1 || !sender.calls[0].clear {
		t.Errorf("clear should go out at once and drop buffered points, got %+v", sender.calls)
	}

	sender.err = errors.New("session closed")
	if err := b.Clear(); err == nil {
		t.Errorf("clear should report send failures")
	}
}
