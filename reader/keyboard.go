package reader

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Keyboard reads badges from a reader that types them followed by Enter.
type Keyboard struct {
	dev InputDevice
	dec KeyDecoder
	log zerolog.Logger
}

// NewKeyboard finds the named device and grabs it.
func NewKeyboard(src DeviceSource, name string, log zerolog.Logger) (*Keyboard, error) {
	dev, err := FindDevice(src, name)
	if err != nil {
		return nil, err
	}
	if err := dev.Grab(); err != nil {
		dev.Close()
		return nil, err
	}
	log.Info().Str("device", dev.Name()).Msg("opened keyboard reader")
	return &Keyboard{dev: dev, log: log}, nil
}

// Read implements Reader.Read. A bare Enter yields an empty badge, which
// the reader worker does not post.
func (k *Keyboard) Read(ctx context.Context) (string, error) {
	for {
		ev, err := k.dev.ReadKey(ctx)
		if err != nil {
			k.dec.Reset()
			return "", fmt.Errorf("keyboard reader: %w", err)
		}
		if s, done := k.dec.Feed(ev.Code, ev.Down); done {
			return s, nil
		}
	}
}

// Close implements Reader.Close.
func (k *Keyboard) Close() error {
	return k.dev.Close()
}
