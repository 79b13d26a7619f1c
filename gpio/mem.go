//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/gpio"
)

// Mem implements Chip on /dev/gpiomem. Only one Mem may be open at a time.
type Mem struct {
	mu      sync.Mutex
	pins    map[int]*gpio.Pin
	watched map[int]*memWatch
}

type memWatch struct {
	debounce time.Duration
	last     time.Time
	fn       func(pin int)
}

// NewMem maps the GPIO registers.
func NewMem() (*Mem, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpiomem: %w", err)
	}
	return &Mem{
		pins:    make(map[int]*gpio.Pin),
		watched: make(map[int]*memWatch),
	}, nil
}

func (m *Mem) pin(n int, output bool) *gpio.Pin {
	p, ok := m.pins[n]
	if ok {
		return p
	}
	p = gpio.NewPin(n)
	if output {
		p.Output()
	} else {
		p.Input()
		p.PullUp()
	}
	m.pins[n] = p
	return p
}

// Write implements Chip.Write.
func (m *Mem) Write(pin int, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.pin(pin, true)
	if value {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// Read implements Chip.Read.
func (m *Mem) Read(pin int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return bool(m.pin(pin, false).Read()), nil
}

// Watch implements Chip.Watch. Debouncing is done in software since
// gpiomem has no kernel debounce.
func (m *Mem) Watch(pin int, edge Edge, debounce time.Duration, fn func(pin int)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.watched[pin]; ok {
		return fmt.Errorf("watch pin %d: already watched", pin)
	}
	var e gpio.Edge
	switch edge {
	case EdgeFalling:
		e = gpio.EdgeFalling
	case EdgeRising:
		e = gpio.EdgeRising
	default:
		e = gpio.EdgeBoth
	}

	w := &memWatch{debounce: debounce, fn: fn}
	p := m.pin(pin, false)
	err := p.Watch(e, func(*gpio.Pin) {
		now := time.Now()
		if w.debounce > 0 && now.Sub(w.last) < w.debounce {
			return
		}
		w.last = now
		w.fn(pin)
	})
	if err != nil {
		return fmt.Errorf("watch pin %d: %w", pin, err)
	}
	m.watched[pin] = w
	return nil
}

// Close implements Chip.Close.
func (m *Mem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for n := range m.watched {
		m.pins[n].Unwatch()
		delete(m.watched, n)
	}
	m.pins = make(map[int]*gpio.Pin)
	return gpio.Close()
}
