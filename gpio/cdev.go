//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "authbox"

// Cdev implements Chip on the Linux GPIO character device.
type Cdev struct {
	chip  string
	mu    sync.Mutex
	lines map[int]*gpiocdev.Line
}

// NewCdev prepares a Chip for the named gpiochip. Lines are requested lazily.
func NewCdev(chip string) (*Cdev, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chip, err)
	}
	c.Close()
	return &Cdev{chip: chip, lines: make(map[int]*gpiocdev.Line)}, nil
}

// Write implements Chip.Write.
func (c *Cdev) Write(pin int, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.lines[pin]; ok {
		if err := l.SetValue(level(value)); err != nil {
			return fmt.Errorf("set pin %d: %w", pin, err)
		}
		return nil
	}
	l, err := gpiocdev.RequestLine(c.chip, pin,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsOutput(level(value)))
	if err != nil {
		return fmt.Errorf("request output pin %d: %w", pin, err)
	}
	c.lines[pin] = l
	return nil
}

// Read implements Chip.Read.
func (c *Cdev) Read(pin int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[pin]
	if !ok {
		var err error
		l, err = gpiocdev.RequestLine(c.chip, pin,
			gpiocdev.WithConsumer(consumer),
			gpiocdev.AsInput,
			gpiocdev.WithPullUp)
		if err != nil {
			return false, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		c.lines[pin] = l
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

// Watch implements Chip.Watch.
func (c *Cdev) Watch(pin int, edge Edge, debounce time.Duration, fn func(pin int)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lines[pin]; ok {
		return fmt.Errorf("watch pin %d: already claimed", pin)
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.WithConsumer(consumer),
		gpiocdev.WithPullUp,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			fn(evt.Offset)
		}),
	}
	switch edge {
	case EdgeFalling:
		opts = append(opts, gpiocdev.WithFallingEdge)
	case EdgeRising:
		opts = append(opts, gpiocdev.WithRisingEdge)
	default:
		opts = append(opts, gpiocdev.WithBothEdges)
	}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}

	l, err := gpiocdev.RequestLine(c.chip, pin, opts...)
	if err != nil {
		return fmt.Errorf("watch pin %d: %w", pin, err)
	}
	c.lines[pin] = l
	return nil
}

// Close implements Chip.Close. Outputs are left at their last value.
func (c *Cdev) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for pin, l := range c.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
		delete(c.lines, pin)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(v bool) int {
	if v {
		return 1
	}
	return 0
}
