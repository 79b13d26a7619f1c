//go:build !linux

package gpio

// PWMTone is unavailable off linux.
type PWMTone struct{}

func NewPWMTone(pin int) (*PWMTone, error) { return nil, errUnsupported }

func (*PWMTone) Tone(freq int) error { return errUnsupported }
func (*PWMTone) Close() error        { return nil }
