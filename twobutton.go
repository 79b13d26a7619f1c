package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"authbox/peripheral"
	"authbox/pins"
	"authbox/timer"
)

// ExpectingPressWindow is how long an authorized badge waits for the on
// button before the authorization lapses.
const ExpectingPressWindow = 30 * time.Second

// TwoButton enables an output between an authorized scan plus an on-button
// press and the off button, a lapsed scan, or the end of the session.
type TwoButton struct {
	ctx context.Context
	log zerolog.Logger

	auth   authorizer
	on     peripheral.Light
	off    peripheral.Light
	output peripheral.Switch
	buzzer peripheral.Buzzer

	warning   *timer.Timer
	expire    *timer.Timer
	expecting *timer.Timer

	duration     time.Duration
	warnDuration time.Duration

	authorized bool
	running    bool
}

func newTwoButton(app *App) (*TwoButton, error) {
	cmd, err := app.authCommand()
	if err != nil {
		return nil, err
	}
	duration, err := app.cfg.Auth.Duration("duration", "5m")
	if err != nil {
		return nil, err
	}
	warn, err := app.cfg.Auth.Duration("warning", "10s")
	if err != nil {
		return nil, err
	}
	tb := &TwoButton{
		ctx:          app.ctx,
		log:          app.log.With().Str("mode", "twobutton").Logger(),
		auth:         cmd,
		duration:     duration,
		warnDuration: warn,
	}

	l := app.loader
	if tb.on, err = l.Light("on_button", pins.Handlers{OnDown: tb.onButtonDown}); err != nil {
		return nil, err
	}
	if tb.off, err = l.Light("off_button", pins.Handlers{OnDown: tb.abort}); err != nil {
		return nil, err
	}
	if _, err = l.Load("badge_reader", pins.Handlers{OnScan: tb.badgeScan}); err != nil {
		return nil, err
	}
	if tb.output, err = l.Switch("enable_output"); err != nil {
		return nil, err
	}
	if tb.buzzer, err = l.Buzzer("buzzer"); err != nil {
		return nil, err
	}
	tb.warning = l.Timer("warning_timer", tb.warn)
	tb.expire = l.Timer("expire_timer", tb.abort)
	tb.expecting = l.Timer("expecting_press_timer", tb.abort)
	return tb, nil
}

func (tb *TwoButton) badgeScan(source, badge string) error {
	if tb.running {
		tb.log.Info().Str("badge", badge).Msg("scan ignored, session running")
		return nil
	}
	ok, err := tb.auth.Authorize(tb.ctx, badge)
	if err != nil || !ok {
		// failures are logged by Authorize
		return tb.buzzer.Sad()
	}
	tb.log.Info().Str("badge", badge).Msg("authorized, waiting for on button")
	tb.authorized = true
	if err := tb.buzzer.Happy(); err != nil {
		return err
	}
	tb.expecting.Cancel()
	if err := tb.expecting.Set(ExpectingPressWindow); err != nil {
		return err
	}
	return tb.on.Blink(0)
}

func (tb *TwoButton) onButtonDown(source, _ string) error {
	if !tb.authorized {
		return tb.buzzer.Sad()
	}
	if tb.running {
		// the session runs from the first press
		return nil
	}
	tb.expecting.Cancel()
	if err := tb.on.On(); err != nil {
		return err
	}
	if err := tb.output.On(); err != nil {
		return err
	}
	tb.running = true
	tb.log.Info().Dur("for", tb.duration).Msg("output enabled")

	if w := tb.duration - tb.warnDuration; w > 0 {
		if err := tb.warning.Set(w); err != nil {
			return err
		}
	}
	return tb.expire.Set(tb.duration)
}

func (tb *TwoButton) warn(source, _ string) error {
	tb.log.Info().Dur("left", tb.warnDuration).Msg("session ending soon")
	if err := tb.buzzer.BeepBeep(); err != nil {
		return err
	}
	return tb.on.Blink(0)
}

// abort ends the session or a pending authorization, whatever its source.
func (tb *TwoButton) abort(source, _ string) error {
	tb.log.Info().Str("source", source).Msg("output disabled")
	tb.authorized = false
	tb.running = false
	tb.warning.Cancel()
	tb.expire.Cancel()
	tb.expecting.Cancel()
	// every output is switched off even if one fails
	return errors.Join(
		tb.output.Off(),
		tb.on.Off(),
		tb.buzzer.Off(),
	)
}
