package peripheral

import "fmt"

// Group holds one or more peripherals configured under a single name.
// Operations run on every member in order and stop at the first error, so
// members after a failing one are not called. Reads come from the first
// member only.
type Group[T any] struct {
	members []T
}

// NewGroup panics if members is empty.
func NewGroup[T any](members ...T) Group[T] {
	if len(members) == 0 {
		panic("peripheral: empty group")
	}
	return Group[T]{members: members}
}

// Each calls fn on every member in order.
func (g Group[T]) Each(fn func(T) error) error {
	for i, m := range g.members {
		if err := fn(m); err != nil {
			if len(g.members) == 1 {
				return err
			}
			return fmt.Errorf("member %d: %w", i, err)
		}
	}
	return nil
}

// First returns the member that answers reads.
func (g Group[T]) First() T { return g.members[0] }

func (g Group[T]) Members() []T { return append([]T(nil), g.members...) }

func (g Group[T]) Len() int { return len(g.members) }

// SwitchGroup is a Switch over several switches.
type SwitchGroup struct{ Group[Switch] }

func NewSwitchGroup(members ...Switch) SwitchGroup {
	return SwitchGroup{NewGroup(members...)}
}

func (g SwitchGroup) On() error  { return g.Each(Switch.On) }
func (g SwitchGroup) Off() error { return g.Each(Switch.Off) }

// LightGroup is a Light over several lights.
type LightGroup struct{ Group[Light] }

func NewLightGroup(members ...Light) LightGroup {
	return LightGroup{NewGroup(members...)}
}

func (g LightGroup) On() error  { return g.Each(Light.On) }
func (g LightGroup) Off() error { return g.Each(Light.Off) }

func (g LightGroup) Blink(count int) error {
	return g.Each(func(l Light) error { return l.Blink(count) })
}

// BuzzerGroup is a Buzzer over several buzzers.
type BuzzerGroup struct{ Group[Buzzer] }

func NewBuzzerGroup(members ...Buzzer) BuzzerGroup {
	return BuzzerGroup{NewGroup(members...)}
}

func (g BuzzerGroup) On() error       { return g.Each(Buzzer.On) }
func (g BuzzerGroup) Off() error      { return g.Each(Buzzer.Off) }
func (g BuzzerGroup) Beep() error     { return g.Each(Buzzer.Beep) }
func (g BuzzerGroup) BeepBeep() error { return g.Each(Buzzer.BeepBeep) }
func (g BuzzerGroup) Happy() error    { return g.Each(Buzzer.Happy) }
func (g BuzzerGroup) Sad() error      { return g.Each(Buzzer.Sad) }
