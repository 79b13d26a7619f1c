package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"61", 61 * time.Second},
		{"61s", 61 * time.Second},
		{"61m", 61 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1m30s", 90 * time.Second},
		{"1.2h", 4320 * time.Second},
		{"1.5s", 1500 * time.Millisecond},
		{"0.1s", 100 * time.Millisecond},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDurationErrors(t *testing.T) {
	for _, in := range []string{"", "30x", "s", "1m 30s", "1.2.3s", "-5s", "5s!", "100ms"} {
		if d, err := ParseDuration(in); err == nil {
			t.Errorf("ParseDuration(%q) = %v, want error", in, d)
		}
	}
}

func TestSectionGet(t *testing.T) {
	s := Section{
		"a":      "b",
		"c":      "{d}{d}",
		"d":      "d2",
		"broken": "{missing}",
		"cmd":    "/bin/check {dir}/{0} {}",
		"dir":    "/var/lib/{name}",
		"name":   "authbox",
	}
	tests := []struct {
		key, want string
	}{
		{"a", "b"},
		{"c", "d2d2"},
		{"cmd", "/bin/check /var/lib/authbox/{0} {}"},
	}
	for _, tt := range tests {
		got, err := s.Get(tt.key)
		if err != nil {
			t.Errorf("Get(%q): %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}

	if _, err := s.Get("broken"); err == nil {
		t.Error("reference to a missing key resolved")
	}
	if _, err := s.Get("nope"); err == nil {
		t.Error("missing key resolved")
	}
}

func TestSectionCycle(t *testing.T) {
	s := Section{"a": "{b}", "b": "x{a}", "self": "{self}"}
	for _, k := range []string{"a", "self"} {
		if _, err := s.Get(k); !errors.Is(err, ErrCycle) {
			t.Errorf("Get(%q) error = %v, want ErrCycle", k, err)
		}
	}
}

func TestSectionRepeatedReferenceIsNotCycle(t *testing.T) {
	s := Section{"a": "{b}-{b}", "b": "{c}", "c": "x"}
	got, err := s.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if got != "x-x" {
		t.Errorf("got %q, want x-x", got)
	}
}

func TestSectionDuration(t *testing.T) {
	s := Section{"duration": "20s", "bad": "soon", "base": "3", "ref": "{base}m"}

	if d, err := s.Duration("duration", "5m"); err != nil || d != 20*time.Second {
		t.Errorf("duration = %v, %v", d, err)
	}
	if d, err := s.Duration("warning", "10s"); err != nil || d != 10*time.Second {
		t.Errorf("default warning = %v, %v", d, err)
	}
	if d, err := s.Duration("ref", "1s"); err != nil || d != 3*time.Minute {
		t.Errorf("interpolated duration = %v, %v", d, err)
	}
	if _, err := s.Duration("bad", "1s"); err == nil {
		t.Error("bad duration parsed")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authbox.yaml")
	data := `
mode: lockbox
log:
  level: debug
  format: json
gpio:
  driver: fake
pins:
  badge_reader: WiegandReader:17:27
  output_relay: Relay:ActiveLow:26
auth:
  command: /bin/true {0}
  duration: 2s
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "lockbox" || cfg.Log.Level != "debug" || cfg.GPIO.Driver != "fake" {
		t.Errorf("decoded %+v", cfg)
	}
	if cfg.Pins["output_relay"] != "Relay:ActiveLow:26" {
		t.Errorf("pins = %v", cfg.Pins)
	}
	if cmd, _ := cfg.Auth.Get("command"); cmd != "/bin/true {0}" {
		t.Errorf("auth.command = %q", cmd)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("mode: qa\n"), 0644)
	if _, err := LoadConfig(empty); err == nil {
		t.Error("config without pins loaded")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip(err)
	}
	got, err := expandHome("~/.authbox.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".authbox.yaml"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, _ := expandHome("/etc/authbox.yaml"); got != "/etc/authbox.yaml" {
		t.Errorf("absolute path changed to %q", got)
	}
}
