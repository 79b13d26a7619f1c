// Package eventpipe lets operators and test rigs inject events through a
// named pipe, as if a badge had been read or a button pressed.
//
// Command format, one per line:
//
//	scan <badge>      - badge read (aliases: rfid, tag)
//	press [<name>]    - button down, from the named button or the pipe itself (alias: down)
//	shutdown          - stop the dispatcher
//
// Blank lines and lines starting with # are ignored.
package eventpipe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"authbox/dispatch"
)

// Handlers receive the events a pipe injects.
type Handlers struct {
	OnScan dispatch.Callback
	OnDown dispatch.Callback
}

type kind int

const (
	cmdScan kind = iota
	cmdPress
	cmdShutdown
)

type command struct {
	kind kind
	arg  string
}

// EventPipe reads commands from a FIFO it creates.
type EventPipe struct {
	name     string
	path     string
	sink     dispatch.Sink
	handlers Handlers
	log      zerolog.Logger

	file    *os.File
	scanner *bufio.Scanner
}

// New creates the FIFO at path, replacing anything already there.
func New(name, path string, sink dispatch.Sink, h Handlers, log zerolog.Logger) (*EventPipe, error) {
	if path == "" {
		return nil, errors.New("event pipe: empty path")
	}
	os.Remove(path)
	if err := unix.Mkfifo(path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("event pipe listening")
	return &EventPipe{name: name, path: path, sink: sink, handlers: h, log: log}, nil
}

func (p *EventPipe) Name() string { return p.name }

// Step handles one command line.
func (p *EventPipe) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.file == nil {
		// read-write so the open does not wait for a writer and the
		// pipe never reports EOF between writers
		f, err := os.OpenFile(p.path, os.O_RDWR, 0)
		if err != nil {
			return fmt.Errorf("open event pipe: %w", err)
		}
		p.attach(f)
	}

	if !p.scanner.Scan() {
		err := p.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		p.file.Close()
		p.file, p.scanner = nil, nil
		return fmt.Errorf("read event pipe: %w", err)
	}
	p.handle(p.scanner.Text())
	return nil
}

func (p *EventPipe) attach(f *os.File) {
	p.file = f
	p.scanner = bufio.NewScanner(f)
}

func (p *EventPipe) handle(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	c, err := parseLine(line)
	if err != nil {
		p.log.Warn().Err(err).Str("line", line).Msg("event pipe parse error")
		return
	}

	switch c.kind {
	case cmdScan:
		p.sink.Post(dispatch.Event{Callback: p.handlers.OnScan, Source: p.name, Value: c.arg})
	case cmdPress:
		src := c.arg
		if src == "" {
			src = p.name
		}
		p.sink.Post(dispatch.Event{Callback: p.handlers.OnDown, Source: src})
	case cmdShutdown:
		p.log.Info().Msg("shutdown requested on event pipe")
		p.sink.Post(dispatch.Shutdown)
	}
}

// Close removes the pipe.
func (p *EventPipe) Close() error {
	if p.file != nil {
		p.file.Close()
	}
	return os.Remove(p.path)
}

func parseLine(line string) (command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return command{}, errors.New("empty command")
	}

	switch cmd := strings.ToLower(parts[0]); cmd {
	case "scan", "rfid", "tag":
		if len(parts) != 2 {
			return command{}, fmt.Errorf("%s requires one badge", cmd)
		}
		return command{kind: cmdScan, arg: parts[1]}, nil
	case "press", "down":
		if len(parts) > 2 {
			return command{}, fmt.Errorf("%s takes at most one name", cmd)
		}
		c := command{kind: cmdPress}
		if len(parts) == 2 {
			c.arg = parts[1]
		}
		return c, nil
	case "shutdown":
		return command{kind: cmdShutdown}, nil
	default:
		return command{}, fmt.Errorf("unknown command: %s", cmd)
	}
}
