package dispatch

import (
	"sync"
	"time"
)

// Recorder is a Sink that keeps every posted event. It stands in for the
// Dispatcher when exercising a peripheral on its own.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	posted chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{posted: make(chan struct{}, 1)}
}

func (r *Recorder) Post(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	select {
	case r.posted <- struct{}{}:
	default:
	}
}

// Events returns a copy of everything posted so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Len returns the number of posted events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// WaitFor blocks until at least n events have been posted or timeout
// passes, and returns the events seen.
func (r *Recorder) WaitFor(n int, timeout time.Duration) []Event {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if evs := r.Events(); len(evs) >= n {
			return evs
		}
		select {
		case <-r.posted:
		case <-deadline.C:
			return r.Events()
		}
	}
}
