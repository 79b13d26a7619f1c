package pins

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"authbox/button"
	"authbox/buzzer"
	"authbox/dispatch"
	"authbox/eventpipe"
	"authbox/gpio"
	"authbox/reader"
	"authbox/relay"
	"authbox/timer"
)

// Handlers are the callbacks a peripheral may post. Unused ones may be nil.
type Handlers struct {
	OnScan   dispatch.Callback
	OnDown   dispatch.Callback
	OnChange dispatch.Callback
	OnFire   dispatch.Callback
}

// Env is what factories build peripherals from.
type Env struct {
	Sink    dispatch.Sink
	Chip    gpio.Chip
	Devices reader.DeviceSource
	Log     zerolog.Logger
}

// Factory builds one peripheral instance from its positional arguments.
// The result is registered as a worker if it implements dispatch.Worker.
type Factory func(env Env, name string, args []string, h Handlers) (any, error)

// Classes maps class names in pins entries to their factories.
var Classes = map[string]Factory{
	"WiegandReader":        newWiegandReader,
	"HIDKeystrokingReader": newHIDReader,
	"SerialReader":         newSerialReader,
	"EventPipe":            newEventPipe,
	"Button":               newButton,
	"ThreePosSwitch":       newThreePosSwitch,
	"Relay":                newRelay,
	"Buzzer":               newBuzzer,
	"TonalBuzzer":          newTonalBuzzer,
	"Timer":                newTimer,
}

func argCount(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return badArgs("want %d arguments, got %d", min, len(args))
		}
		return badArgs("want %d to %d arguments, got %d", min, max, len(args))
	}
	return nil
}

func ints(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			return nil, badArgs("argument %d: %q is not a pin or count", i+1, a)
		}
		out[i] = n
	}
	return out, nil
}

func newWiegandReader(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 2, 4); err != nil {
		return nil, err
	}
	n, err := ints(args)
	if err != nil {
		return nil, err
	}
	capacity, idle := 0, time.Duration(0)
	if len(n) > 2 {
		capacity = n[2]
	}
	if len(n) > 3 {
		idle = time.Duration(n[3]) * time.Millisecond
	}
	r, err := reader.NewWiegand(env.Chip, n[0], n[1], capacity, idle, env.Log)
	if err != nil {
		return nil, err
	}
	return reader.NewWorker(name, r, env.Sink, h.OnScan, env.Log), nil
}

func newHIDReader(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	r, err := reader.NewKeyboard(env.Devices, args[0], env.Log)
	if err != nil {
		return nil, err
	}
	return reader.NewWorker(name, r, env.Sink, h.OnScan, env.Log), nil
}

func newSerialReader(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 1, 2); err != nil {
		return nil, err
	}
	baud := 0
	if len(args) == 2 {
		n, err := ints(args[1:])
		if err != nil {
			return nil, err
		}
		baud = n[0]
	}
	r, err := reader.NewSerial(args[0], baud, env.Log)
	if err != nil {
		return nil, err
	}
	return reader.NewWorker(name, r, env.Sink, h.OnScan, env.Log), nil
}

func newEventPipe(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	return eventpipe.New(name, args[0], env.Sink, eventpipe.Handlers{OnScan: h.OnScan, OnDown: h.OnDown}, env.Log)
}

func newButton(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 2, 2); err != nil {
		return nil, err
	}
	n, err := ints(args)
	if err != nil {
		return nil, err
	}
	return button.New(name, env.Chip, n[0], n[1], env.Sink, h.OnDown, env.Log)
}

func newThreePosSwitch(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 5, 5); err != nil {
		return nil, err
	}
	n, err := ints(args)
	if err != nil {
		return nil, err
	}
	return button.NewThreePosSwitch(name, env.Chip, n[0], n[1], n[2], n[3], n[4], env.Sink, h.OnChange, env.Log)
}

func newRelay(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 2, 2); err != nil {
		return nil, err
	}
	p, err := relay.ParsePolarity(args[0])
	if err != nil {
		return nil, badArgs("%v", err)
	}
	n, err := ints(args[1:])
	if err != nil {
		return nil, err
	}
	return relay.New(env.Chip, n[0], p)
}

func newBuzzer(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	n, err := ints(args)
	if err != nil {
		return nil, err
	}
	return buzzer.New(name, buzzer.Pin{Chip: env.Chip, Num: n[0]}, buzzer.Plain, env.Log)
}

func newTonalBuzzer(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	n, err := ints(args)
	if err != nil {
		return nil, err
	}
	tone, err := gpio.NewPWMTone(n[0])
	if err != nil {
		return nil, err
	}
	return buzzer.New(name, tone, buzzer.Tonal, env.Log)
}

func newTimer(env Env, name string, args []string, h Handlers) (any, error) {
	if err := argCount(args, 0, 0); err != nil {
		return nil, err
	}
	return timer.New(name, env.Sink, h.OnFire), nil
}
