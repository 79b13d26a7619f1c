package indicator

import "authbox/gpio"

// Pin is an Output on one GPIO line.
type Pin struct {
	Chip gpio.Chip
	Num  int
}

func (p Pin) Set(on bool) error {
	return p.Chip.Write(p.Num, on)
}
