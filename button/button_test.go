package button

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"authbox/dispatch"
	"authbox/gpio"
)

func TestButtonPostsOnDown(t *testing.T) {
	chip := gpio.NewFakeChip()
	rec := dispatch.NewRecorder()
	b, err := New("on_button", chip, 5, 6, rec, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	chip.SetInput(5, false) // press
	chip.SetInput(5, true)  // release
	chip.SetInput(5, false)

	evs := rec.Events()
	if len(evs) != 2 {
		t.Fatalf("posted %d events, want 2", len(evs))
	}
	if evs[0].Source != "on_button" {
		t.Errorf("source = %q", evs[0].Source)
	}
	if b.Lit() {
		t.Error("light on before any command")
	}
	if v, _ := chip.Level(6); v {
		t.Error("light pin not initialized low")
	}
}

// Blinking a button with the default rate, as the lit button on a
// session box does: the light toggles every half second.
func TestButtonBlink(t *testing.T) {
	chip := gpio.NewFakeChip()
	b, err := New("b", chip, 5, 6, dispatch.NewRecorder(), nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for ctx.Err() == nil {
			b.Step(ctx)
		}
	}()

	b.Blink(0)
	time.Sleep(1250 * time.Millisecond)
	b.Off()
	time.Sleep(50 * time.Millisecond)

	want := []bool{false, true, false, true, false}
	if got := chip.WritesTo(6); !reflect.DeepEqual(got, want) {
		t.Errorf("light writes = %v, want %v", got, want)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in1, in2 bool
		want     Position
		lamps    [3]bool
	}{
		{true, false, Green, [3]bool{true, false, false}},
		{true, true, Yellow, [3]bool{false, true, false}},
		{false, true, Red, [3]bool{false, false, true}},
		{false, false, Error, [3]bool{true, true, true}},
	}
	for _, tt := range tests {
		got := decode(tt.in1, tt.in2)
		if got != tt.want {
			t.Errorf("decode(%v, %v) = %q, want %q", tt.in1, tt.in2, got, tt.want)
		}
		if l := lamps(got); l != tt.lamps {
			t.Errorf("lamps(%q) = %v, want %v", got, l, tt.lamps)
		}
	}
}

func TestThreePosSwitch(t *testing.T) {
	chip := gpio.NewFakeChip()
	rec := dispatch.NewRecorder()
	s, err := NewThreePosSwitch("mode", chip, 1, 2, 10, 11, 12, rec, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	s.poll = time.Millisecond
	ctx := context.Background()

	// inputs idle high: yellow
	if err := s.Step(ctx); err != nil {
		t.Fatal(err)
	}
	s.Step(ctx) // no change, no event
	chip.SetInput(2, false)
	s.Step(ctx)
	chip.SetInput(1, false)
	s.Step(ctx)

	var got []string
	for _, e := range rec.Events() {
		got = append(got, e.Value)
	}
	if want := []string{"yellow", "green", "error"}; !reflect.DeepEqual(got, want) {
		t.Errorf("changes = %v, want %v", got, want)
	}
	for _, p := range []int{10, 11, 12} {
		if v, _ := chip.Level(p); !v {
			t.Errorf("lamp %d off in error position", p)
		}
	}
	if s.Position() != Error {
		t.Errorf("Position() = %q", s.Position())
	}
}
