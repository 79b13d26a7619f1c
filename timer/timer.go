// Package timer provides a cancellable, fire-once delayed callback that
// runs as a dispatcher worker.
package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"authbox/dispatch"
)

// ErrBusy is returned by Set while a deadline is already armed.
var ErrBusy = errors.New("timer already armed")

type arm struct {
	d   time.Duration
	gen uint64
}

// Timer owns at most one pending deadline. When it expires without being
// cancelled, the timer posts an event carrying its name to the sink.
type Timer struct {
	name string
	sink dispatch.Sink
	cb   dispatch.Callback

	mu    sync.Mutex
	armed bool
	gen   uint64

	set  chan arm
	wake chan struct{}
}

// New returns an unarmed timer that posts cb with name as its source.
func New(name string, sink dispatch.Sink, cb dispatch.Callback) *Timer {
	return &Timer{
		name: name,
		sink: sink,
		cb:   cb,
		set:  make(chan arm, 1),
		wake: make(chan struct{}, 1),
	}
}

func (t *Timer) Name() string { return t.name }

// Armed reports whether a deadline is pending.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Set arms a deadline d from now. It fails with ErrBusy, leaving the
// existing deadline untouched, if one is already armed.
func (t *Timer) Set(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.armed {
		return ErrBusy
	}
	t.armed = true
	t.gen++
	t.set <- arm{d: d, gen: t.gen}
	return nil
}

// Cancel discards any pending deadline. It is safe to call at any time.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	t.gen++
	select {
	case <-t.set:
	default:
	}
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Step waits for one armed deadline and either fires it or observes its
// cancellation.
func (t *Timer) Step(ctx context.Context) error {
	var a arm
	select {
	case a = <-t.set:
	case <-t.wake:
		// stale wake from a Cancel while idle
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	start := time.Now()
	tm := time.NewTimer(a.d)
	defer tm.Stop()
	for {
		select {
		case <-tm.C:
		case <-t.wake:
		case <-ctx.Done():
			return ctx.Err()
		}

		t.mu.Lock()
		if t.gen != a.gen {
			t.mu.Unlock()
			return nil
		}
		if elapsed := time.Since(start); elapsed < a.d {
			// woken early without a cancel; wait out the remainder
			t.mu.Unlock()
			tm.Reset(a.d - elapsed)
			continue
		}
		t.armed = false
		t.mu.Unlock()

		t.sink.Post(dispatch.Event{Callback: t.cb, Source: t.name})
		return nil
	}
}
