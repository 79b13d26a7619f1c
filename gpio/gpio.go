// Package gpio abstracts the digital I/O used by authbox peripherals.
// Pins are GPIO line offsets (BCM numbering on a Raspberry Pi).
package gpio

import (
	"fmt"
	"time"
)

// Edge selects which transitions a watch reports.
type Edge int

const (
	EdgeFalling Edge = iota
	EdgeRising
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeFalling:
		return "falling"
	case EdgeRising:
		return "rising"
	case EdgeBoth:
		return "both"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

// Chip is the digital I/O surface peripherals are built on.
type Chip interface {
	// Write drives an output pin, claiming it as an output on first use.
	Write(pin int, value bool) error

	// Read returns the level of a pin, claiming it as a pulled-up input on first use.
	Read(pin int) (bool, error)

	// Watch calls fn from a driver goroutine for every matching edge on pin.
	// Edges closer together than debounce are suppressed; zero disables debouncing.
	Watch(pin int, edge Edge, debounce time.Duration, fn func(pin int)) error

	// Close releases every claimed pin.
	Close() error
}

// Config holds the GPIO driver selection.
type Config struct {
	Driver string `yaml:"driver"` // "cdev" (default), "mem", "fake"
	Chip   string `yaml:"chip"`   // e.g. "gpiochip0", cdev only
}

// New opens the Chip selected by cfg.
func New(cfg Config) (Chip, error) {
	switch cfg.Driver {
	case "", "cdev":
		if cfg.Chip == "" {
			cfg.Chip = "gpiochip0"
		}
		return NewCdev(cfg.Chip)
	case "mem":
		return NewMem()
	case "fake":
		return NewFakeChip(), nil
	default:
		return nil, fmt.Errorf("unknown gpio driver %q", cfg.Driver)
	}
}
