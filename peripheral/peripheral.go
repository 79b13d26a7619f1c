// Package peripheral defines what business logic can do to configured
// hardware, and how several identical devices answer to one name.
package peripheral

// Switch is anything that turns on and off: relays, lights, buzzers.
type Switch interface {
	On() error
	Off() error
}

// Light is a Switch that can also blink. A count of zero blinks until the
// next command.
type Light interface {
	Switch
	Blink(count int) error
}

// Buzzer plays the stock feedback sounds.
type Buzzer interface {
	Switch
	Beep() error
	BeepBeep() error
	Happy() error
	Sad() error
}
