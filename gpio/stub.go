//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: hardware drivers require linux")

type unsupported struct{}

func (unsupported) Write(int, bool) error                               { return errUnsupported }
func (unsupported) Read(int) (bool, error)                              { return false, errUnsupported }
func (unsupported) Watch(int, Edge, time.Duration, func(pin int)) error { return errUnsupported }
func (unsupported) Close() error                                        { return nil }

// NewCdev is unavailable off linux.
func NewCdev(chip string) (Chip, error) {
	return nil, errUnsupported
}

// NewMem is unavailable off linux.
func NewMem() (Chip, error) {
	return nil, errUnsupported
}
