// Package button provides lit push buttons and three-position selector
// switches.
package button

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"authbox/dispatch"
	"authbox/gpio"
	"authbox/indicator"
)

const debounce = 10 * time.Millisecond

// Button is an active-low push button with a light in it. Presses post
// onDown with the button's name; the light blinks at the indicator's
// default rate.
type Button struct {
	name  string
	input int
	light *indicator.Blinker
}

// New watches input for presses and drives the light on output, which
// starts off.
func New(name string, chip gpio.Chip, input, output int, sink dispatch.Sink, onDown dispatch.Callback, log zerolog.Logger) (*Button, error) {
	if err := chip.Write(output, false); err != nil {
		return nil, fmt.Errorf("button %s light: %w", name, err)
	}
	b := &Button{
		name:  name,
		input: input,
		light: indicator.NewBlinker(name, indicator.Pin{Chip: chip, Num: output}, indicator.DefaultPeriod, log),
	}
	err := chip.Watch(input, gpio.EdgeFalling, debounce, func(int) {
		log.Debug().Msg("button down")
		sink.Post(dispatch.Event{Callback: onDown, Source: name})
	})
	if err != nil {
		return nil, fmt.Errorf("button %s input: %w", name, err)
	}
	return b, nil
}

func (b *Button) Name() string { return b.name }

// Step runs the light.
func (b *Button) Step(ctx context.Context) error { return b.light.Step(ctx) }

func (b *Button) On() error             { return b.light.On() }
func (b *Button) Off() error            { return b.light.Off() }
func (b *Button) Blink(count int) error { return b.light.Blink(count) }

// Lit reports whether the light is currently on.
func (b *Button) Lit() bool { return b.light.Value() }
