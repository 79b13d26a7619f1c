// Package auth runs the external authorization command for a badge.
//
// The command line is split with shell-like quoting but never passed to a
// shell. Each resulting argument is formatted on its own, so a badge value
// always lands in exactly one argument whatever characters it contains.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one authorization run.
const DefaultTimeout = 10 * time.Second

// Runner executes argv and returns its exit code.
type Runner interface {
	Run(ctx context.Context, argv []string) (int, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty command")
	}
	err := exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// Command is a parsed authorization command template.
type Command struct {
	template []string
	runner   Runner
	timeout  time.Duration
	log      zerolog.Logger
}

// NewCommand splits tmpl into an argument template. A nil runner uses
// ExecRunner; a zero timeout uses DefaultTimeout.
func NewCommand(tmpl string, runner Runner, timeout time.Duration, log zerolog.Logger) (*Command, error) {
	argv, err := shlex.Split(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse auth command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("auth command is empty")
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Command{template: argv, runner: runner, timeout: timeout, log: log}, nil
}

// Args formats every template argument with values.
func (c *Command) Args(values ...string) ([]string, error) {
	out := make([]string, len(c.template))
	for i, t := range c.template {
		s, err := format(t, values)
		if err != nil {
			return nil, fmt.Errorf("auth command argument %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Authorize runs the command for badge and reports whether it exited 0.
// A command that cannot be run or times out denies access.
func (c *Command) Authorize(ctx context.Context, badge string) (bool, error) {
	argv, err := c.Args(badge)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	code, err := c.runner.Run(ctx, argv)
	log := c.log.With().Str("badge", badge).Dur("took", time.Since(start)).Logger()
	if err != nil {
		log.Error().Err(err).Str("command", argv[0]).Msg("authorization command failed")
		return false, fmt.Errorf("run %s: %w", argv[0], err)
	}
	log.Info().Int("exit", code).Msg("authorization")
	return code == 0, nil
}

// format replaces {} and {N} with values, and {{ and }} with braces.
func format(s string, values []string) (string, error) {
	var b strings.Builder
	next := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unclosed '{' in %q", s)
			}
			field := s[i+1 : i+end]
			idx := next
			if field == "" {
				next++
			} else {
				n, err := strconv.Atoi(field)
				if err != nil || n < 0 {
					return "", fmt.Errorf("bad field {%s} in %q", field, s)
				}
				idx = n
			}
			if idx >= len(values) {
				return "", fmt.Errorf("field %d out of range in %q", idx, s)
			}
			b.WriteString(values[idx])
			i += end
		case c == '}':
			return "", fmt.Errorf("single '}' in %q", s)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
