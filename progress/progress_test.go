package progress

import (
	"testing"
	"time"
)

type recordingSink struct {
	updates []int
}

func (r *recordingSink) Update(current, total int, status string) {
	r.updates = append(r.updates, current)
}

func TestThrottledSuppressesRapidUpdates(t *testing.T) {
	rec := &recordingSink{}
	sink := NewThrottled(rec, time.Hour)

	sink.Update(1, 10, "working")
	sink.Update(2, 10, "working")
	sink.Update(3, 10, "working")

	if len(rec.updates) != 1 {
		t.Fatalf("expected only the first update to pass, got %v", rec.updates)
	}
	if rec.updates[0] != 1 {
		t.Errorf("first update should pass through, got %d", rec.updates[0])
	}
}

func TestThrottledAlwaysPassesCompletion(t *testing.T) {
	rec := &recordingSink{}
	sink := NewThrottled(rec, time.Hour)

	sink.Update(1, 10, "working")
	sink.Update(10, 10, "done")

	if len(rec.updates) != 2 {
		t.Fatalf("completion update must never be throttled, got %v", rec.updates)
	}
	if rec.updates[1] != 10 {
		t.Errorf("completion update missing, got %v", rec.updates)
	}
}

func TestThrottledPassesAfterInterval(t *testing.T) {
	rec := &recordingSink{}
	sink := NewThrottled(rec, 10*time.Millisecond)

	sink.Update(1, 10, "working")
	time.Sleep(20 * time.Millisecond)
	sink.Update(2, 10, "working")

	if len(rec.updates) != 2 {
		t.Fatalf("update after interval should pass, got %v", rec.updates)
	}
}
