package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"authbox/gpio"
)

const (
	DefaultWiegandCapacity = 100
	DefaultWiegandIdle     = 15 * time.Millisecond
)

// Wiegand frames the pulses on a reader's D0 and D1 lines into a bit
// string. A frame ends at the first idle gap after its first bit, so two
// cards presented with no gap between them come back as one reading.
type Wiegand struct {
	d0, d1   int
	capacity int
	idle     time.Duration
	bits     chan byte
	log      zerolog.Logger
}

// NewWiegand watches falling edges on d0 and d1. capacity bounds the
// bits held for one frame; it is far above any real card length and
// exists so a noisy line still ends a read.
func NewWiegand(chip gpio.Chip, d0, d1, capacity int, idle time.Duration, log zerolog.Logger) (*Wiegand, error) {
	if capacity <= 0 {
		capacity = DefaultWiegandCapacity
	}
	if idle <= 0 {
		idle = DefaultWiegandIdle
	}
	w := &Wiegand{
		d0:       d0,
		d1:       d1,
		capacity: capacity,
		idle:     idle,
		bits:     make(chan byte, capacity),
		log:      log,
	}
	if err := chip.Watch(d0, gpio.EdgeFalling, 0, func(int) { w.edge('0') }); err != nil {
		return nil, fmt.Errorf("wiegand d0: %w", err)
	}
	if err := chip.Watch(d1, gpio.EdgeFalling, 0, func(int) { w.edge('1') }); err != nil {
		return nil, fmt.Errorf("wiegand d1: %w", err)
	}
	return w, nil
}

func (w *Wiegand) edge(bit byte) {
	select {
	case w.bits <- bit:
	default:
		w.log.Warn().Int("capacity", w.capacity).Msg("wiegand queue full, dropping bit")
	}
}

// Read implements Reader.Read.
func (w *Wiegand) Read(ctx context.Context) (string, error) {
	buf := make([]byte, 0, w.capacity)
	select {
	case b := <-w.bits:
		buf = append(buf, b)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	idle := time.NewTimer(w.idle)
	defer idle.Stop()
	for len(buf) < w.capacity {
		select {
		case b := <-w.bits:
			buf = append(buf, b)
			idle.Reset(w.idle)
		case <-idle.C:
			return string(buf), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	dropped := w.drain()
	w.log.Warn().Int("bits", len(buf)).Int("dropped", dropped).Msg("wiegand frame hit capacity, resetting")
	return string(buf), nil
}

// drain empties the queue and returns how many bits it discarded.
func (w *Wiegand) drain() int {
	n := 0
	for {
		select {
		case <-w.bits:
			n++
		default:
			return n
		}
	}
}

// Buffered returns the number of bits waiting to be framed.
func (w *Wiegand) Buffered() int { return len(w.bits) }

// Close implements Reader.Close. The lines belong to the chip.
func (w *Wiegand) Close() error { return nil }
