package buzzer

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"authbox/gpio"
)

type recordingSounder struct {
	mu    sync.Mutex
	tones []int
}

func (r *recordingSounder) Tone(freq int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tones = append(r.tones, freq)
	return nil
}

func (r *recordingSounder) Tones() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.tones...)
}

func start(t *testing.T, v Voice) (*Buzzer, *recordingSounder) {
	t.Helper()
	out := &recordingSounder{}
	b, err := New("buzzer", out, v, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
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
	return b, out
}

func TestBeepOnce(t *testing.T) {
	b, out := start(t, Plain)
	b.Beep()
	time.Sleep(800 * time.Millisecond)
	if got, want := out.Tones(), []int{0, 1, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("tones = %v, want %v", got, want)
	}
}

func TestBeepBeepUntilOff(t *testing.T) {
	b, out := start(t, Plain)
	b.BeepBeep()
	time.Sleep(1300 * time.Millisecond)
	b.Off()
	time.Sleep(50 * time.Millisecond)

	tones := out.Tones()
	ons := 0
	for _, f := range tones {
		if f > 0 {
			ons++
		}
	}
	if ons < 2 {
		t.Errorf("beepbeep sounded %d times in 1.3s: %v", ons, tones)
	}
	if tones[len(tones)-1] != 0 {
		t.Errorf("not silent after Off: %v", tones)
	}
	n := len(tones)
	time.Sleep(700 * time.Millisecond)
	if len(out.Tones()) != n {
		t.Error("kept beeping after Off")
	}
	if b.Playing() != "off" {
		t.Errorf("Playing() = %q", b.Playing())
	}
}

func TestTonalMelodies(t *testing.T) {
	tests := []struct {
		name string
		play func(*Buzzer) error
		want []int
	}{
		{"happy", (*Buzzer).Happy, []int{0, 440, 550, 660, 0}},
		{"sad", (*Buzzer).Sad, []int{0, 528, 330, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, out := start(t, Tonal)
			tt.play(b)
			time.Sleep(1700 * time.Millisecond)
			if got := out.Tones(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tones = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandInterruptsPattern(t *testing.T) {
	b, out := start(t, Tonal)
	b.Happy()
	time.Sleep(100 * time.Millisecond)
	b.On()
	time.Sleep(100 * time.Millisecond)

	if got, want := out.Tones(), []int{0, 440, 0, transducerHz}; !reflect.DeepEqual(got, want) {
		t.Errorf("tones = %v, want %v", got, want)
	}
	if b.Playing() != "on" {
		t.Errorf("Playing() = %q, want on", b.Playing())
	}
}

func TestLatestCommandWins(t *testing.T) {
	out := &recordingSounder{}
	b, err := New("buzzer", out, Plain, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	b.Beep()
	b.Sad()
	b.On()
	if err := b.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := out.Tones(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("tones = %v, want [0 1]", got)
	}
}

func TestPinSounder(t *testing.T) {
	chip := gpio.NewFakeChip()
	p := Pin{Chip: chip, Num: 21}
	p.Tone(4000)
	p.Tone(0)
	if got := chip.WritesTo(21); !reflect.DeepEqual(got, []bool{true, false}) {
		t.Errorf("writes = %v", got)
	}
}
