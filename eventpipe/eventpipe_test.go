package eventpipe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"authbox/dispatch"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{"scan 1234", command{cmdScan, "1234"}, false},
		{"RFID 00ab", command{cmdScan, "00ab"}, false},
		{"tag", command{}, true},
		{"press on_button", command{cmdPress, "on_button"}, false},
		{"down", command{cmdPress, ""}, false},
		{"press a b", command{}, true},
		{"shutdown", command{kind: cmdShutdown}, false},
		{"rotary 1", command{}, true},
	}
	for _, tt := range tests {
		got, err := parseLine(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLine(%q) err = %v", tt.line, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestStepPostsEvents(t *testing.T) {
	rec := dispatch.NewRecorder()
	p := &EventPipe{name: "pipe", sink: rec, log: zerolog.Nop()}

	input := strings.Join([]string{
		"# injected by the bench rig",
		"",
		"scan 8:8",
		"bogus",
		"press off_button",
		"down",
		"shutdown",
	}, "\n")
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		w.WriteString(input + "\n")
		w.Close()
	}()
	p.attach(r)

	ctx := context.Background()
	for p.Step(ctx) == nil {
	}

	evs := rec.Events()
	if len(evs) != 4 {
		t.Fatalf("posted %d events, want 4: %+v", len(evs), evs)
	}
	if evs[0].Source != "pipe" || evs[0].Value != "8:8" {
		t.Errorf("scan event = %+v", evs[0])
	}
	if evs[1].Source != "off_button" {
		t.Errorf("press source = %q", evs[1].Source)
	}
	if evs[2].Source != "pipe" {
		t.Errorf("bare press source = %q", evs[2].Source)
	}
	if !evs[3].IsShutdown() {
		t.Error("last event is not the shutdown sentinel")
	}
	if p.file != nil {
		t.Error("pipe not released after EOF")
	}
}

func TestNewCreatesFIFO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events")
	os.WriteFile(path, []byte("stale"), 0644)

	p, err := New("pipe", path, dispatch.NewRecorder(), Handlers{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		t.Errorf("mode = %v, want a named pipe", fi.Mode())
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("pipe still exists after Close")
	}
}
