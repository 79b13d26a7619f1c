package main

import (
	"testing"
	"time"

	"authbox/dispatch"
	"authbox/gpio"
)

const (
	onInput  = 5
	offInput = 13
	output   = 26
)

func twoButtonConfig(duration, warning string) *Config {
	return &Config{
		Mode: "twobutton",
		Pins: map[string]string{
			"on_button":     "Button:5:6",
			"off_button":    "Button:13:19",
			"enable_output": "Relay:ActiveHigh:26",
			"badge_reader":  "WiegandReader:17:27",
			"buzzer":        "Buzzer:21",
		},
		Auth: Section{
			"command":  "touch enabled",
			"duration": duration,
			"warning":  warning,
		},
	}
}

func newTestTwoButton(t *testing.T, cfg *Config, runner *fakeRunner) (*TwoButton, *gpio.FakeChip) {
	t.Helper()
	app, chip := testApp(t, cfg, runner)
	tb, err := newTwoButton(app)
	if err != nil {
		t.Fatal(err)
	}
	return tb, chip
}

func TestTwoButtonAuthFlow(t *testing.T) {
	tb, chip := newTestTwoButton(t, twoButtonConfig("20s", "10s"), &fakeRunner{})
	relayOn := func() bool { return level(chip, output) }

	if tb.authorized || relayOn() {
		t.Fatal("authorized or enabled at startup")
	}

	// scan authorizes but waits for the on button
	if err := tb.badgeScan("badge_reader", "1234"); err != nil {
		t.Fatal(err)
	}
	if !tb.authorized || relayOn() {
		t.Fatalf("after scan: authorized=%v relay=%v", tb.authorized, relayOn())
	}
	if !tb.expecting.Armed() {
		t.Error("expecting-press timer not armed")
	}

	if err := tb.onButtonDown("on_button", ""); err != nil {
		t.Fatal(err)
	}
	if !tb.authorized || !relayOn() {
		t.Fatalf("after on: authorized=%v relay=%v", tb.authorized, relayOn())
	}
	if tb.expecting.Armed() {
		t.Error("expecting-press timer still armed")
	}
	if !tb.warning.Armed() || !tb.expire.Armed() {
		t.Error("session timers not armed")
	}

	// pressing on again does not extend or fail
	if err := tb.onButtonDown("on_button", ""); err != nil {
		t.Errorf("second press: %v", err)
	}

	if err := tb.abort("off_button", ""); err != nil {
		t.Fatal(err)
	}
	if tb.authorized || relayOn() {
		t.Fatalf("after off: authorized=%v relay=%v", tb.authorized, relayOn())
	}
	if tb.warning.Armed() || tb.expire.Armed() || tb.expecting.Armed() {
		t.Error("timer left armed after abort")
	}
}

func TestTwoButtonPressWithoutBadge(t *testing.T) {
	tb, _ := newTestTwoButton(t, twoButtonConfig("20s", "10s"), &fakeRunner{})
	if err := tb.onButtonDown("on_button", ""); err != nil {
		t.Fatal(err)
	}
	if tb.running || tb.expire.Armed() {
		t.Error("session started without a badge")
	}
}

func TestTwoButtonDeniedScan(t *testing.T) {
	tb, _ := newTestTwoButton(t, twoButtonConfig("20s", "10s"), &fakeRunner{code: 2})
	if err := tb.badgeScan("badge_reader", "1234"); err != nil {
		t.Fatal(err)
	}
	if tb.authorized || tb.expecting.Armed() {
		t.Error("denied badge authorized")
	}
}

func TestTwoButtonWarningLongerThanSession(t *testing.T) {
	tb, _ := newTestTwoButton(t, twoButtonConfig("5s", "10s"), &fakeRunner{})
	tb.badgeScan("badge_reader", "1")
	if err := tb.onButtonDown("on_button", ""); err != nil {
		t.Fatal(err)
	}
	if tb.warning.Armed() {
		t.Error("warning armed with no time before it")
	}
	if !tb.expire.Armed() {
		t.Error("expire not armed")
	}
}

func TestTwoButtonDefaults(t *testing.T) {
	cfg := twoButtonConfig("", "")
	delete(cfg.Auth, "duration")
	delete(cfg.Auth, "warning")
	tb, _ := newTestTwoButton(t, cfg, &fakeRunner{})
	if tb.duration != 5*time.Minute || tb.warnDuration != 10*time.Second {
		t.Errorf("defaults = %v, %v", tb.duration, tb.warnDuration)
	}
}

// The whole session through the dispatcher, driven by the badge and a
// real edge on the on button, ending when the session expires.
func TestTwoButtonSessionExpires(t *testing.T) {
	app, chip := testApp(t, twoButtonConfig("0.3s", "0.1s"), &fakeRunner{})
	tb, err := newTwoButton(app)
	if err != nil {
		t.Fatal(err)
	}
	runApp(t, app)

	app.disp.Post(dispatch.Event{Callback: tb.badgeScan, Source: "badge_reader", Value: "1234"})
	chip.SetInput(onInput, false)
	eventually(t, time.Second, "output on", func() bool { return level(chip, output) })
	started := time.Now()

	eventually(t, 2*time.Second, "output off", func() bool { return !level(chip, output) })
	if d := time.Since(started); d < 200*time.Millisecond {
		t.Errorf("session ended after %v", d)
	}
}

func TestTwoButtonOffButton(t *testing.T) {
	app, chip := testApp(t, twoButtonConfig("1m", "10s"), &fakeRunner{})
	tb, err := newTwoButton(app)
	if err != nil {
		t.Fatal(err)
	}
	runApp(t, app)

	app.disp.Post(dispatch.Event{Callback: tb.badgeScan, Source: "badge_reader", Value: "1234"})
	chip.SetInput(onInput, false)
	eventually(t, time.Second, "output on", func() bool { return level(chip, output) })

	chip.SetInput(offInput, false)
	eventually(t, time.Second, "output off", func() bool { return !level(chip, output) })
}
