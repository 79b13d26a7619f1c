//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/hjkoskel/govattu"
)

const (
	pwmPin     = 18       // PWM0 via ALT5
	pwmDivisor = 19       // same divisor the servo driver used for 50Hz at range 20000
	pwmBase    = 19200000 // oscillator
)

// PWMTone drives a square wave on the hardware PWM0 channel.
type PWMTone struct {
	mu sync.Mutex
	hw govattu.Vattu
}

// NewPWMTone claims pin (which must be 18) for PWM0.
func NewPWMTone(pin int) (*PWMTone, error) {
	if pin != pwmPin {
		return nil, fmt.Errorf("pwm tone: pin %d has no PWM0 function, use %d", pin, pwmPin)
	}
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("pwm tone: %w", err)
	}
	hw.PinMode(pwmPin, govattu.ALT5)
	hw.PwmSetMode(true, true, false, false)
	hw.PwmSetClock(pwmDivisor)
	hw.Pwm0Set(0)
	return &PWMTone{hw: hw}, nil
}

// Tone plays freq Hz until the next call. Zero silences the output.
func (t *PWMTone) Tone(freq int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if freq <= 0 {
		t.hw.Pwm0Set(0)
		return nil
	}
	rng := uint32(pwmBase / pwmDivisor / freq)
	t.hw.Pwm0SetRange(rng)
	t.hw.Pwm0Set(rng / 2)
	return nil
}

func (t *PWMTone) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hw.Pwm0Set(0)
	return t.hw.Close()
}
