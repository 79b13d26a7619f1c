// Package relay switches a power relay on a GPIO line.
package relay

import (
	"fmt"
	"sync"

	"authbox/gpio"
)

// Polarity is the line level that energizes the relay.
type Polarity bool

const (
	ActiveHigh Polarity = true
	ActiveLow  Polarity = false
)

// ParsePolarity accepts the names used in pins entries.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "ActiveHigh", "active_high", "high":
		return ActiveHigh, nil
	case "ActiveLow", "active_low", "low":
		return ActiveLow, nil
	default:
		return false, fmt.Errorf("unknown relay type %q (want ActiveHigh or ActiveLow)", s)
	}
}

func (p Polarity) String() string {
	if p == ActiveHigh {
		return "ActiveHigh"
	}
	return "ActiveLow"
}

// Relay implements peripheral.Switch. It has no worker.
type Relay struct {
	chip     gpio.Chip
	pin      int
	polarity Polarity

	mu sync.Mutex
	on bool
}

// New claims pin and leaves the relay off.
func New(chip gpio.Chip, pin int, polarity Polarity) (*Relay, error) {
	r := &Relay{chip: chip, pin: pin, polarity: polarity}
	if err := r.Off(); err != nil {
		return nil, err
	}
	return r, nil
}

// On implements peripheral.Switch.On.
func (r *Relay) On() error { return r.set(true) }

// Off implements peripheral.Switch.Off.
func (r *Relay) Off() error { return r.set(false) }

// IsOn reports the last state set.
func (r *Relay) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

func (r *Relay) set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	level := on == bool(r.polarity)
	if err := r.chip.Write(r.pin, level); err != nil {
		return fmt.Errorf("relay pin %d: %w", r.pin, err)
	}
	r.on = on
	return nil
}
