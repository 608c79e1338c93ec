// Package progress decouples pipeline progress emission from UI update
// pacing. Pipelines emit as often as they like, sinks decide what actually
// reaches the user.
package progress

import (
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Sink receives progress updates of a long running download.
type Sink interface {
	Update(current, total int, status string)
}

// ReportFunc adapts a plain function into a Sink.
type ReportFunc func(current, total int, status string)

func (f ReportFunc) Update(current, total int, status string) {
	f(current, total, status)
}

// Discard is a Sink that drops every update.
var Discard Sink = ReportFunc(func(int, int, string) {})

const defaultMinInterval = 2 * time.Second

// Throttled forwards updates to an inner sink at most once per interval.
// The completion update (current == total) always passes through so the
// user never misses the terminal state. The throttle state lives here, not
// in the emitting pipeline, so pipelines stay free of UI rate knowledge.
type Throttled struct {
	inner    Sink
	interval time.Duration

	mu       sync.Mutex
	lastEmit time.Time
}

// NewThrottled wraps `inner` with a minimum emit interval. Non-positive
// interval falls back to 2 seconds.
func NewThrottled(inner Sink, interval time.Duration) *Throttled {
	if interval <= 0 {
		interval = defaultMinInterval
	}

	return &Throttled{
		inner:    inner,
		interval: interval,
	}
}

func (t *Throttled) Update(current, total int, status string) {
	t.mu.Lock()
	now := time.Now()
	if now.Sub(t.lastEmit) < t.interval && current < total {
		t.mu.Unlock()
		return
	}
	t.lastEmit = now
	t.mu.Unlock()

	t.inner.Update(current, total, status)
}

// Bar is a terminal progress bar Sink for CLI use.
type Bar struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int
}

func NewBar() *Bar {
	return &Bar{}
}

func (b *Bar) Update(current, total int, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil || b.total != total {
		b.bar = progressbar.Default(int64(total))
		b.total = total
	}

	b.bar.Describe(status)
	b.bar.Set(current)
}
