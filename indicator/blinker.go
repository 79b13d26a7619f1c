package indicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPeriod is the blink half-cycle.
const DefaultPeriod = 500 * time.Millisecond

// Output is whatever the light is wired to.
type Output interface {
	Set(on bool) error
}

type cmdKind int

const (
	cmdOn cmdKind = iota
	cmdBlink
)

type command struct {
	kind  cmdKind
	value bool
	count int
}

// Blinker runs a light as a dispatcher worker. On, Off and Blink only
// queue a command; the output is touched from Step alone.
type Blinker struct {
	name   string
	log    zerolog.Logger
	out    Output
	period time.Duration

	mu      sync.Mutex
	pending []command
	notify  chan struct{}
	shown   bool

	st state
	tm *time.Timer
}

func NewBlinker(name string, out Output, period time.Duration, log zerolog.Logger) *Blinker {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Blinker{
		name:   name,
		log:    log,
		out:    out,
		period: period,
		notify: make(chan struct{}, 1),
	}
}

func (b *Blinker) Name() string { return b.name }

func (b *Blinker) On() error  { b.push(command{kind: cmdOn, value: true}); return nil }
func (b *Blinker) Off() error { b.push(command{kind: cmdOn, value: false}); return nil }

// Blink flashes the light count times and then restores its steady
// value. Zero blinks until the next command.
func (b *Blinker) Blink(count int) error {
	if count < 0 {
		return fmt.Errorf("blink %s: negative count %d", b.name, count)
	}
	b.push(command{kind: cmdBlink, count: count})
	return nil
}

// Value returns the value last written to the output.
func (b *Blinker) Value() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown
}

func (b *Blinker) push(c command) {
	b.mu.Lock()
	b.pending = append(b.pending, c)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *Blinker) pop() (command, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return command{}, false
	}
	c := b.pending[0]
	b.pending = b.pending[1:]
	return c, true
}

// Step handles every queued command, or one tick if none arrives within
// a half-cycle.
func (b *Blinker) Step(ctx context.Context) error {
	if b.tm == nil {
		b.tm = time.NewTimer(b.period)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.notify:
		for {
			c, ok := b.pop()
			if !ok {
				break
			}
			var v bool
			switch c.kind {
			case cmdOn:
				v = b.st.on(c.value)
			case cmdBlink:
				v = b.st.blink(c.count)
			}
			if err := b.write(v); err != nil {
				return err
			}
		}
		b.tm.Reset(b.period)
	case <-b.tm.C:
		b.tm.Reset(b.period)
		if v, changed := b.st.tick(); changed {
			return b.write(v)
		}
	}
	return nil
}

func (b *Blinker) write(v bool) error {
	if err := b.out.Set(v); err != nil {
		return fmt.Errorf("light %s: %w", b.name, err)
	}
	b.mu.Lock()
	b.shown = v
	b.mu.Unlock()
	b.log.Debug().Bool("value", v).Msg("light")
	return nil
}
