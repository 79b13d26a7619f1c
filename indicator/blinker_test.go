package indicator

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"authbox/gpio"
)

type recordingOutput struct {
	mu     sync.Mutex
	values []bool
	err    error
}

func (r *recordingOutput) Set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.values = append(r.values, on)
	return nil
}

func (r *recordingOutput) Values() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.values...)
}

func runBlinker(t *testing.T, b *Blinker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.Cleanup(func() {
		cancel()
		<-done
	})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			b.Step(ctx)
		}
	}()
}

func TestBlinkerBlinksAndRestores(t *testing.T) {
	out := &recordingOutput{}
	b := NewBlinker("light", out, 10*time.Millisecond, zerolog.Nop())
	runBlinker(t, b)

	b.Blink(2)
	time.Sleep(150 * time.Millisecond)

	want := []bool{true, false, true, false}
	if got := out.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}
	if b.Value() {
		t.Error("Value() = true after blink ended")
	}
}

func TestBlinkerOnStopsBlink(t *testing.T) {
	out := &recordingOutput{}
	b := NewBlinker("light", out, 10*time.Millisecond, zerolog.Nop())
	runBlinker(t, b)

	b.Blink(0)
	time.Sleep(55 * time.Millisecond)
	b.On()
	time.Sleep(20 * time.Millisecond)
	n := len(out.Values())
	time.Sleep(60 * time.Millisecond)

	got := out.Values()
	if len(got) != n {
		t.Errorf("output changed %d more times after On", len(got)-n)
	}
	if !got[len(got)-1] || !b.Value() {
		t.Errorf("light not on after On: %v", got)
	}
}

func TestBlinkerCommandsInOrder(t *testing.T) {
	out := &recordingOutput{}
	b := NewBlinker("light", out, time.Hour, zerolog.Nop())
	b.On()
	b.Off()
	b.On()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if got := out.Values(); !reflect.DeepEqual(got, []bool{true, false, true}) {
		t.Errorf("output = %v", got)
	}
}

func TestBlinkerWriteError(t *testing.T) {
	out := &recordingOutput{err: errors.New("line busy")}
	b := NewBlinker("light", out, time.Hour, zerolog.Nop())
	b.On()
	if err := b.Step(context.Background()); err == nil {
		t.Error("Step succeeded with a failing output")
	}
}

func TestBlinkerNegativeCount(t *testing.T) {
	b := NewBlinker("light", &recordingOutput{}, 0, zerolog.Nop())
	if err := b.Blink(-1); err == nil {
		t.Error("Blink(-1) succeeded")
	}
}

func TestPinOutput(t *testing.T) {
	chip := gpio.NewFakeChip()
	p := Pin{Chip: chip, Num: 7}
	p.Set(true)
	p.Set(false)
	if got := chip.WritesTo(7); !reflect.DeepEqual(got, []bool{true, false}) {
		t.Errorf("writes = %v", got)
	}
}
