package button

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"authbox/dispatch"
	"authbox/gpio"
)

// Position of a three-position switch.
type Position string

const (
	Green  Position = "green"
	Yellow Position = "yellow"
	Red    Position = "red"
	Error  Position = "error" // both inputs low: a wiring fault
)

// DefaultPollInterval paces switch reads, which doubles as debouncing.
const DefaultPollInterval = 500 * time.Millisecond

// decode maps the two active-low inputs to a position.
func decode(in1, in2 bool) Position {
	switch {
	case in1 && !in2:
		return Green
	case in1 && in2:
		return Yellow
	case !in1 && in2:
		return Red
	default:
		return Error
	}
}

// lamps returns the green, yellow and red outputs for p.
func lamps(p Position) [3]bool {
	switch p {
	case Green:
		return [3]bool{true, false, false}
	case Yellow:
		return [3]bool{false, true, false}
	case Red:
		return [3]bool{false, false, true}
	default:
		return [3]bool{true, true, true}
	}
}

// ThreePosSwitch mirrors a selector switch onto three lamps and posts
// onChange with the new Position whenever it moves.
type ThreePosSwitch struct {
	name     string
	chip     gpio.Chip
	in1, in2 int
	lamps    [3]int
	sink     dispatch.Sink
	onChange dispatch.Callback
	poll     time.Duration
	log      zerolog.Logger

	pos Position
}

func NewThreePosSwitch(name string, chip gpio.Chip, in1, in2, green, yellow, red int, sink dispatch.Sink, onChange dispatch.Callback, log zerolog.Logger) (*ThreePosSwitch, error) {
	s := &ThreePosSwitch{
		name:     name,
		chip:     chip,
		in1:      in1,
		in2:      in2,
		lamps:    [3]int{green, yellow, red},
		sink:     sink,
		onChange: onChange,
		poll:     DefaultPollInterval,
		log:      log,
	}
	for _, p := range s.lamps {
		if err := chip.Write(p, false); err != nil {
			return nil, fmt.Errorf("switch %s lamp: %w", name, err)
		}
	}
	return s, nil
}

func (s *ThreePosSwitch) Name() string { return s.name }

// Position returns the last position read, or "" before the first read.
func (s *ThreePosSwitch) Position() Position { return s.pos }

func (s *ThreePosSwitch) Step(ctx context.Context) error {
	select {
	case <-time.After(s.poll):
	case <-ctx.Done():
		return ctx.Err()
	}
	changed, err := s.update()
	if err != nil {
		return err
	}
	if changed {
		s.sink.Post(dispatch.Event{Callback: s.onChange, Source: s.name, Value: string(s.pos)})
	}
	return nil
}

// update reads the inputs and drives the lamps, reporting whether the
// position changed.
func (s *ThreePosSwitch) update() (bool, error) {
	in1, err := s.chip.Read(s.in1)
	if err != nil {
		return false, fmt.Errorf("switch %s: %w", s.name, err)
	}
	in2, err := s.chip.Read(s.in2)
	if err != nil {
		return false, fmt.Errorf("switch %s: %w", s.name, err)
	}
	pos := decode(in1, in2)
	if pos == s.pos {
		return false, nil
	}
	s.pos = pos
	s.log.Info().Bool("in1", in1).Bool("in2", in2).Str("position", string(pos)).Msg("switch moved")
	for i, v := range lamps(pos) {
		if err := s.chip.Write(s.lamps[i], v); err != nil {
			return true, fmt.Errorf("switch %s lamp: %w", s.name, err)
		}
	}
	return true, nil
}
