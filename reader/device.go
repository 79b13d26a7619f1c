package reader

import (
	"context"
	"fmt"
	"strings"
)

// KeyEvent is one key transition from an input device.
type KeyEvent struct {
	Code uint16
	Down bool
}

// DeviceInfo describes an input device found by a DeviceSource.
type DeviceInfo struct {
	Path string
	Name string
}

// InputDevice is an open keyboard-class device.
type InputDevice interface {
	Name() string

	// Grab takes the device exclusively so no other process sees its keys.
	Grab() error

	// ReadKey blocks for the next key event.
	ReadKey(ctx context.Context) (KeyEvent, error)

	Close() error
}

// DeviceSource enumerates and opens input devices.
type DeviceSource interface {
	List() ([]DeviceInfo, error)
	Open(path string) (InputDevice, error)
}

// DeviceNotFoundError reports a configured device name that matched
// nothing, with the names that were found.
type DeviceNotFoundError struct {
	Name      string
	Available []string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("input device %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// FindDevice opens the device with the given name, or the given path when
// name is a /dev path.
func FindDevice(src DeviceSource, name string) (InputDevice, error) {
	if strings.HasPrefix(name, "/dev/") {
		return src.Open(name)
	}
	infos, err := src.List()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	var names []string
	for _, info := range infos {
		if info.Name == name {
			return src.Open(info.Path)
		}
		names = append(names, info.Name)
	}
	return nil, &DeviceNotFoundError{Name: name, Available: names}
}
