package indicator

// Noop is a light that is not wired to anything. It stands in for an
// optional light that was not configured.
type Noop struct{}

func (Noop) On() error       { return nil }
func (Noop) Off() error      { return nil }
func (Noop) Blink(int) error { return nil }
