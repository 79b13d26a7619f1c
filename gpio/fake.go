package gpio

import (
	"fmt"
	"sync"
	"time"
)

// Write is one recorded output change.
type Write struct {
	Pin   int
	Value bool
}

// FakeChip is an in-memory Chip for tests and dry runs.
type FakeChip struct {
	mu       sync.Mutex
	levels   map[int]bool
	writes   []Write
	watchers map[int]fakeWatch
	closed   bool
}

type fakeWatch struct {
	edge Edge
	fn   func(pin int)
}

// NewFakeChip returns a FakeChip with every input reading high, as a
// pulled-up line would.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		levels:   make(map[int]bool),
		watchers: make(map[int]fakeWatch),
	}
}

func (f *FakeChip) Write(pin int, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("write pin %d: chip closed", pin)
	}
	f.levels[pin] = value
	f.writes = append(f.writes, Write{Pin: pin, Value: value})
	return nil
}

func (f *FakeChip) Read(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false, fmt.Errorf("read pin %d: chip closed", pin)
	}
	v, ok := f.levels[pin]
	if !ok {
		return true, nil
	}
	return v, nil
}

func (f *FakeChip) Watch(pin int, edge Edge, _ time.Duration, fn func(pin int)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.watchers[pin]; ok {
		return fmt.Errorf("watch pin %d: already watched", pin)
	}
	f.watchers[pin] = fakeWatch{edge: edge, fn: fn}
	return nil
}

func (f *FakeChip) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// SetInput changes the level of pin, firing any watcher whose edge matches.
func (f *FakeChip) SetInput(pin int, value bool) {
	f.mu.Lock()
	prev, ok := f.levels[pin]
	if !ok {
		prev = true
	}
	f.levels[pin] = value
	w, watched := f.watchers[pin]
	f.mu.Unlock()

	if !watched || prev == value {
		return
	}
	if w.edge == EdgeBoth ||
		(w.edge == EdgeFalling && !value) ||
		(w.edge == EdgeRising && value) {
		w.fn(pin)
	}
}

// Trigger calls the watcher on pin directly, as if a matching edge arrived.
func (f *FakeChip) Trigger(pin int) {
	f.mu.Lock()
	w, ok := f.watchers[pin]
	f.mu.Unlock()
	if ok {
		w.fn(pin)
	}
}

// Watched reports whether pin has a watcher.
func (f *FakeChip) Watched(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.watchers[pin]
	return ok
}

// Level returns the last value written to or set on pin.
func (f *FakeChip) Level(pin int) (value, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok = f.levels[pin]
	return value, ok
}

// Writes returns a copy of the output log.
func (f *FakeChip) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// WritesTo returns the values written to one pin, in order.
func (f *FakeChip) WritesTo(pin int) []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bool
	for _, w := range f.writes {
		if w.Pin == pin {
			out = append(out, w.Value)
		}
	}
	return out
}
