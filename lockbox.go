package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"authbox/peripheral"
	"authbox/pins"
	"authbox/timer"
)

// authorizer decides whether a badge may use the machine.
type authorizer interface {
	Authorize(ctx context.Context, badge string) (bool, error)
}

// Lockbox pops a cabinet lock for a while after an authorized scan.
type Lockbox struct {
	ctx      context.Context
	log      zerolog.Logger
	auth     authorizer
	relay    peripheral.Switch
	disable  *timer.Timer
	duration time.Duration
}

func newLockbox(app *App) (*Lockbox, error) {
	cmd, err := app.authCommand()
	if err != nil {
		return nil, err
	}
	duration, err := app.cfg.Auth.Duration("duration", "1s")
	if err != nil {
		return nil, err
	}
	l := &Lockbox{
		ctx:      app.ctx,
		log:      app.log.With().Str("mode", "lockbox").Logger(),
		auth:     cmd,
		duration: duration,
	}

	if _, err := app.loader.Load("badge_reader", pins.Handlers{OnScan: l.badgeScan}); err != nil {
		return nil, err
	}
	if l.relay, err = app.loader.Switch("output_relay"); err != nil {
		return nil, err
	}
	l.disable = app.loader.Timer("disable_timer", l.disableOutput)
	return l, nil
}

func (l *Lockbox) badgeScan(source, badge string) error {
	ok, err := l.auth.Authorize(l.ctx, badge)
	if err != nil || !ok {
		// failures are logged by Authorize
		return nil
	}
	l.disable.Cancel()
	if err := l.relay.On(); err != nil {
		return err
	}
	l.log.Info().Str("badge", badge).Dur("for", l.duration).Msg("unlocked")
	return l.disable.Set(l.duration)
}

func (l *Lockbox) disableOutput(source, _ string) error {
	l.log.Info().Msg("locked")
	return l.relay.Off()
}
