// Package buzzer plays feedback sounds on a plain buzzer or a PWM-driven
// transducer.
package buzzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"authbox/gpio"
)

// Sounder produces a tone. Zero is silence.
type Sounder interface {
	Tone(freq int) error
}

// Pin is a Sounder for a self-oscillating buzzer: any tone drives the
// line high.
type Pin struct {
	Chip gpio.Chip
	Num  int
}

func (p Pin) Tone(freq int) error {
	return p.Chip.Write(p.Num, freq > 0)
}

type step struct {
	freq int
	d    time.Duration // zero holds the tone until the next command
}

type pattern struct {
	name   string
	steps  []step
	repeat bool
}

// Voice is the set of patterns a buzzer plays.
type Voice struct {
	on, off, beep, beepbeep, happy, sad pattern
}

const (
	beepOn  = 300 * time.Millisecond
	beepOff = 300 * time.Millisecond
	note    = 500 * time.Millisecond

	// resonant frequency of the usual piezo transducers
	transducerHz = 4000
)

func voice(on int, happy, sad []step) Voice {
	beep := []step{{on, beepOn}, {0, beepOff}}
	return Voice{
		on:       pattern{name: "on", steps: []step{{on, 0}}},
		off:      pattern{name: "off", steps: []step{{0, 0}}},
		beep:     pattern{name: "beep", steps: beep},
		beepbeep: pattern{name: "beepbeep", steps: beep, repeat: true},
		happy:    pattern{name: "happy", steps: happy},
		sad:      pattern{name: "sad", steps: sad},
	}
}

// Plain is the voice of an on/off buzzer.
var Plain = voice(1,
	[]step{{1, 100 * time.Millisecond}, {0, 100 * time.Millisecond}, {1, 100 * time.Millisecond}},
	[]step{{1, 600 * time.Millisecond}},
)

// Tonal is the voice of a PWM-driven transducer.
var Tonal = voice(transducerHz,
	[]step{{440, note}, {550, note}, {660, note}},
	[]step{{528, note}, {330, note}},
)

// Buzzer implements peripheral.Buzzer as a dispatcher worker. Commands
// replace any that are pending and interrupt the pattern being played.
type Buzzer struct {
	name  string
	out   Sounder
	voice Voice
	log   zerolog.Logger

	mu      sync.Mutex
	pending *pattern
	playing string
	notify  chan struct{}
}

// New silences out and returns a Buzzer playing v on it.
func New(name string, out Sounder, v Voice, log zerolog.Logger) (*Buzzer, error) {
	if err := out.Tone(0); err != nil {
		return nil, fmt.Errorf("buzzer %s: %w", name, err)
	}
	return &Buzzer{
		name:    name,
		out:     out,
		voice:   v,
		log:     log,
		playing: "off",
		notify:  make(chan struct{}, 1),
	}, nil
}

func (b *Buzzer) Name() string { return b.name }

func (b *Buzzer) On() error       { return b.push(b.voice.on) }
func (b *Buzzer) Off() error      { return b.push(b.voice.off) }
func (b *Buzzer) Beep() error     { return b.push(b.voice.beep) }
func (b *Buzzer) BeepBeep() error { return b.push(b.voice.beepbeep) }
func (b *Buzzer) Happy() error    { return b.push(b.voice.happy) }
func (b *Buzzer) Sad() error      { return b.push(b.voice.sad) }

// Playing names the pattern most recently started.
func (b *Buzzer) Playing() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

func (b *Buzzer) push(p pattern) error {
	b.mu.Lock()
	b.pending = &p
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

func (b *Buzzer) take() (pattern, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return pattern{}, false
	}
	p := *b.pending
	b.pending = nil
	b.playing = p.name
	return p, true
}

func (b *Buzzer) hasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}

// Step plays one command.
func (b *Buzzer) Step(ctx context.Context) error {
	var p pattern
	for {
		var ok bool
		if p, ok = b.take(); ok {
			break
		}
		select {
		case <-b.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.log.Debug().Str("pattern", p.name).Msg("buzzer")
	for {
		for _, s := range p.steps {
			if err := b.out.Tone(s.freq); err != nil {
				return fmt.Errorf("buzzer %s: %w", b.name, err)
			}
			if s.d == 0 {
				return nil
			}
			if interrupted, err := b.wait(ctx, s.d); interrupted || err != nil {
				b.out.Tone(0)
				return err
			}
		}
		if !p.repeat {
			break
		}
	}
	if err := b.out.Tone(0); err != nil {
		return fmt.Errorf("buzzer %s: %w", b.name, err)
	}
	return nil
}

// wait sleeps for d unless a new command arrives first.
func (b *Buzzer) wait(ctx context.Context, d time.Duration) (bool, error) {
	t := time.NewTimer(d)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			return false, nil
		case <-ctx.Done():
			return true, ctx.Err()
		case <-b.notify:
			if b.hasPending() {
				// leave a wakeup for the next Step
				select {
				case b.notify <- struct{}{}:
				default:
				}
				return true, nil
			}
		}
	}
}
