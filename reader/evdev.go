package reader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/kenshaw/evdev"
)

// EvdevSource finds devices under /dev/input.
type EvdevSource struct {
	Glob string // defaults to /dev/input/event*
}

func (s EvdevSource) List() ([]DeviceInfo, error) {
	pattern := s.Glob
	if pattern == "" {
		pattern = "/dev/input/event*"
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var infos []DeviceInfo
	for _, p := range paths {
		dev, err := evdev.OpenFile(p)
		if err != nil {
			continue
		}
		infos = append(infos, DeviceInfo{Path: p, Name: dev.Name()})
		dev.Close()
	}
	return infos, nil
}

func (s EvdevSource) Open(path string) (InputDevice, error) {
	dev, err := evdev.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", path, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &evdevDevice{
		dev:    dev,
		path:   path,
		events: dev.Poll(ctx),
		cancel: cancel,
	}, nil
}

type evdevDevice struct {
	dev    *evdev.Evdev
	path   string
	events <-chan *evdev.EventEnvelope
	cancel context.CancelFunc
}

func (d *evdevDevice) Name() string { return d.dev.Name() }

func (d *evdevDevice) Grab() error {
	if err := d.dev.Lock(); err != nil {
		return fmt.Errorf("grab %s: %w", d.path, err)
	}
	return nil
}

func (d *evdevDevice) ReadKey(ctx context.Context) (KeyEvent, error) {
	for {
		select {
		case <-ctx.Done():
			return KeyEvent{}, ctx.Err()
		case event, ok := <-d.events:
			if !ok || event == nil {
				return KeyEvent{}, fmt.Errorf("input device %s closed", d.path)
			}
			switch event.Type.(type) {
			case evdev.KeyType:
				// value 2 is autorepeat
				if event.Value == 2 {
					continue
				}
				return KeyEvent{Code: uint16(event.Code), Down: event.Value == 1}, nil
			}
		}
	}
}

func (d *evdevDevice) Close() error {
	d.cancel()
	return d.dev.Close()
}
