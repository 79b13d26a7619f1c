package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"authbox/peripheral"
	"authbox/pins"
	"authbox/timer"
)

// RelayToggleInterval is how often qa mode flips the relays.
const RelayToggleInterval = 10 * time.Second

const qaButtons = 6

// QA exercises a freshly built box: every button beeps and flashes when
// pressed and the relays click on and off.
type QA struct {
	log     zerolog.Logger
	buttons map[string]peripheral.Light
	buzzer  peripheral.Buzzer
	relays  peripheral.Switch
	toggle  *timer.Timer
	relayOn bool
}

func newQA(app *App) (*QA, error) {
	q := &QA{
		log:     app.log.With().Str("mode", "qa").Logger(),
		buttons: make(map[string]peripheral.Light),
	}
	var err error
	for i := 1; i <= qaButtons; i++ {
		name := fmt.Sprintf("j%d", i)
		if q.buttons[name], err = app.loader.Light(name, pins.Handlers{OnDown: q.buttonDown}); err != nil {
			return nil, err
		}
	}
	if q.buzzer, err = app.loader.Buzzer("buzzer"); err != nil {
		return nil, err
	}
	if q.relays, err = app.loader.Switch("relays"); err != nil {
		return nil, err
	}
	q.toggle = app.loader.Timer("relay_timer", q.toggleRelays)

	if err := q.start(); err != nil {
		return nil, err
	}
	return q, nil
}

// start turns the relays on and arms the first toggle.
func (q *QA) start() error {
	if err := q.relays.On(); err != nil {
		return err
	}
	q.relayOn = true
	return q.toggle.Set(RelayToggleInterval)
}

func (q *QA) buttonDown(source, _ string) error {
	q.log.Info().Str("button", source).Msg("button down")
	if err := q.buzzer.Beep(); err != nil {
		return err
	}
	b, ok := q.buttons[source]
	if !ok {
		return fmt.Errorf("press from unknown button %q", source)
	}
	return b.Blink(1)
}

func (q *QA) toggleRelays(source, _ string) error {
	q.relayOn = !q.relayOn
	q.log.Info().Bool("on", q.relayOn).Msg("toggle relays")
	var err error
	if q.relayOn {
		err = q.relays.On()
	} else {
		err = q.relays.Off()
	}
	if err != nil {
		return err
	}
	return q.toggle.Set(RelayToggleInterval)
}
