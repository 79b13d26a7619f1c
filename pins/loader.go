// Package pins builds peripherals from the pins section of the
// configuration and registers their workers with the dispatcher.
package pins

import (
	"errors"
	"fmt"
	"sort"

	"authbox/dispatch"
	"authbox/eventpipe"
	"authbox/indicator"
	"authbox/logging"
	"authbox/peripheral"
	"authbox/timer"
)

// Registrar is the dispatcher as seen by the loader.
type Registrar interface {
	dispatch.Sink
	Register(dispatch.Worker)
}

// Loader builds named peripherals. Every worker it creates is registered
// before Load returns, so a failed load leaves nothing running.
type Loader struct {
	env     Env
	reg     Registrar
	entries map[string]string
	classes map[string]Factory
}

// NewLoader reads entries (pins key -> entry) using env. env.Sink is
// replaced by reg.
func NewLoader(env Env, reg Registrar, entries map[string]string) *Loader {
	env.Sink = reg
	return &Loader{env: env, reg: reg, entries: entries, classes: Classes}
}

// Names lists the configured pins keys.
func (l *Loader) Names() []string {
	var names []string
	for n := range l.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is configured.
func (l *Loader) Has(name string) bool {
	_, ok := l.entries[name]
	return ok
}

// Load builds every instance configured under name.
func (l *Loader) Load(name string, h Handlers) ([]any, error) {
	value, ok := l.entries[name]
	if !ok {
		return nil, &ConfigError{Name: name, Err: errors.New("not configured")}
	}
	specs, err := peripheral.ParseSpec(value)
	if err != nil {
		return nil, &ConfigError{Name: name, Err: err}
	}

	// check every class before building anything
	for _, s := range specs {
		if _, ok := l.classes[s.Class]; !ok {
			return nil, &ConfigError{Name: name, Class: s.Class, Err: ErrUnknownClass}
		}
	}

	var built []any
	for _, s := range specs {
		env := l.env
		env.Log = logging.Peripheral(l.env.Log, name, s.Class)
		env.Log.Info().Strs("args", s.Args).Msg("instantiating")

		p, err := l.classes[s.Class](env, name, s.Args, h)
		if err != nil {
			var ae *argError
			if errors.As(err, &ae) {
				return nil, &ConfigError{Name: name, Class: s.Class, Err: err}
			}
			return nil, fmt.Errorf("pins.%s: %s: %w", name, s.Class, err)
		}
		built = append(built, p)
	}
	for _, p := range built {
		if w, ok := p.(dispatch.Worker); ok {
			l.reg.Register(w)
		}
	}
	return built, nil
}

func wrongType(name string, p any, want string) error {
	return &ConfigError{Name: name, Err: fmt.Errorf("%T is not a %s", p, want)}
}

// Light loads name as a light, grouping multiple instances. An EventPipe
// entry is accepted with a light that does nothing.
func (l *Loader) Light(name string, h Handlers) (peripheral.Light, error) {
	ps, err := l.Load(name, h)
	if err != nil {
		return nil, err
	}
	lights := make([]peripheral.Light, len(ps))
	for i, p := range ps {
		switch lt := p.(type) {
		case peripheral.Light:
			lights[i] = lt
		case *eventpipe.EventPipe:
			// a pipe can stand in for a button but has nothing to light
			lights[i] = indicator.Noop{}
		default:
			return nil, wrongType(name, p, "light")
		}
	}
	if len(lights) == 1 {
		return lights[0], nil
	}
	return peripheral.NewLightGroup(lights...), nil
}

// Switch loads name as an on/off output, grouping multiple instances.
func (l *Loader) Switch(name string) (peripheral.Switch, error) {
	ps, err := l.Load(name, Handlers{})
	if err != nil {
		return nil, err
	}
	sws := make([]peripheral.Switch, len(ps))
	for i, p := range ps {
		sw, ok := p.(peripheral.Switch)
		if !ok {
			return nil, wrongType(name, p, "switch")
		}
		sws[i] = sw
	}
	if len(sws) == 1 {
		return sws[0], nil
	}
	return peripheral.NewSwitchGroup(sws...), nil
}

// Buzzer loads name as a buzzer, grouping multiple instances.
func (l *Loader) Buzzer(name string) (peripheral.Buzzer, error) {
	ps, err := l.Load(name, Handlers{})
	if err != nil {
		return nil, err
	}
	bzs := make([]peripheral.Buzzer, len(ps))
	for i, p := range ps {
		bz, ok := p.(peripheral.Buzzer)
		if !ok {
			return nil, wrongType(name, p, "buzzer")
		}
		bzs[i] = bz
	}
	if len(bzs) == 1 {
		return bzs[0], nil
	}
	return peripheral.NewBuzzerGroup(bzs...), nil
}

// Timer creates and registers an unconfigured timer that posts onFire.
func (l *Loader) Timer(name string, onFire dispatch.Callback) *timer.Timer {
	t := timer.New(name, l.reg, onFire)
	l.reg.Register(t)
	return t
}
