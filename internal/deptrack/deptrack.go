// Package deptrack implements the per-hook DependencyTracker (spec
// §4.10): a map from step name to a readiness latch that dependent
// steps can wait on without busy-polling. Cycle detection is a
// load-time concern handled by internal/config, not here.
package deptrack

import (
	"context"
	"sync"
)

// Tracker tracks step completion across a single hook run.
type Tracker struct {
	mu      sync.Mutex
	latches map[string]chan struct{}
}

// New builds a Tracker pre-populated with a latch for every step name in
// the hook, so WaitFor never races MarkDone's first call for a given
// name.
func New(stepNames []string) *Tracker {
	t := &Tracker{latches: make(map[string]chan struct{}, len(stepNames))}
	for _, name := range stepNames {
		t.latches[name] = make(chan struct{})
	}
	return t
}

func (t *Tracker) latch(name string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.latches[name]
	if !ok {
		ch = make(chan struct{})
		t.latches[name] = ch
	}
	return ch
}

// MarkDone releases the latch for name, unblocking every WaitFor(name)
// call. Safe to call at most once per name; a second call panics, since
// it indicates a scheduler bug (a step completing twice).
func (t *Tracker) MarkDone(name string) {
	close(t.latch(name))
}

// WaitFor blocks until name's latch is released, the context is
// cancelled, or deadline. Callers hold no semaphore permit while
// waiting: the scheduler's runStep acquires its permit only after every
// dependency is done (spec §4.4 step 1) — this package only tracks
// readiness, not permits.
func (t *Tracker) WaitFor(ctx context.Context, name string) error {
	select {
	case <-t.latch(name):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsDone reports readiness without blocking.
func (t *Tracker) IsDone(name string) bool {
	select {
	case <-t.latch(name):
		return true
	default:
		return false
	}
}
