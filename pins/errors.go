package pins

import (
	"errors"
	"fmt"
)

// ErrUnknownClass is wrapped by the ConfigError for an unregistered class.
var ErrUnknownClass = errors.New("unknown peripheral class")

// ConfigError reports a pins entry that cannot be built.
type ConfigError struct {
	Name  string // pins key
	Class string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("pins.%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("pins.%s: %s: %v", e.Name, e.Class, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// argError marks a malformed argument list; the loader fills in the name.
type argError struct{ msg string }

func (e *argError) Error() string { return e.msg }

func badArgs(format string, a ...any) error {
	return &argError{msg: fmt.Sprintf(format, a...)}
}
