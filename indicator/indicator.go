// Package indicator drives a single on/off light that can also blink.
package indicator

// state is the blink state machine for one light. It is not safe for
// concurrent use; the Blinker worker owns it.
type state struct {
	steady    bool // value restored when a finite blink ends
	value     bool // value currently shown
	blinking  bool
	forever   bool
	remaining int
}

// on enters Steady(v).
func (s *state) on(v bool) bool {
	s.blinking = false
	s.steady = v
	s.value = v
	return s.value
}

// blink enters Blinking with its first phase shown at once, opposite to
// the steady value, even when it overrides a blink in progress. count 0
// blinks until the next command.
func (s *state) blink(count int) bool {
	s.blinking = true
	s.forever = count <= 0
	s.remaining = count*2 - 1
	s.value = !s.steady
	return s.value
}

// tick advances one half-cycle and reports whether the output changed.
func (s *state) tick() (bool, bool) {
	if !s.blinking {
		return s.value, false
	}
	prev := s.value
	s.value = !s.value
	if !s.forever {
		s.remaining--
		if s.remaining <= 0 {
			s.blinking = false
			s.value = s.steady
		}
	}
	return s.value, s.value != prev
}
