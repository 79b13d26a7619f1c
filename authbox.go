package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"

	"authbox/auth"
	"authbox/dispatch"
	"authbox/gpio"
	"authbox/logging"
	"authbox/pins"
	"authbox/reader"
)

var myBuild string

// App holds what every business-logic mode is built from.
type App struct {
	cfg    *Config
	log    zerolog.Logger
	disp   *dispatch.Dispatcher
	loader *pins.Loader
	runner auth.Runner // nil runs commands with os/exec
	ctx    context.Context
}

// modes maps the mode setting to its constructor. Each constructor loads
// its peripherals and wires their callbacks.
var modes = map[string]func(app *App) error{
	"lockbox": func(app *App) error {
		_, err := newLockbox(app)
		return err
	},
	"twobutton": func(app *App) error {
		_, err := newTwoButton(app)
		return err
	},
	"qa": func(app *App) error {
		_, err := newQA(app)
		return err
	},
}

func modeNames() []string {
	var names []string
	for n := range modes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newApp(ctx context.Context, cfg *Config, log zerolog.Logger, chip gpio.Chip, devices reader.DeviceSource) *App {
	disp := dispatch.New(log)
	env := pins.Env{Chip: chip, Devices: devices, Log: log}
	return &App{
		cfg:    cfg,
		log:    log,
		disp:   disp,
		loader: pins.NewLoader(env, disp, cfg.Pins),
		ctx:    ctx,
	}
}

// setup builds the mode named by the configuration.
func (app *App) setup() error {
	mode := app.cfg.Mode
	if mode == "" {
		return fmt.Errorf("no mode configured, want one of %v", modeNames())
	}
	build, ok := modes[mode]
	if !ok {
		return fmt.Errorf("unknown mode %q, want one of %v", mode, modeNames())
	}
	app.log.Info().Str("mode", mode).Msg("loading")
	return build(app)
}

// authCommand builds the authorization command from the auth section.
func (app *App) authCommand() (*auth.Command, error) {
	tmpl, err := app.cfg.Auth.Get("command")
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	timeout, err := app.cfg.Auth.Duration("timeout", "10s")
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return auth.NewCommand(tmpl, app.runner, timeout, app.log.With().Str("component", "auth").Logger())
}

func listDevices() error {
	devs, err := reader.EvdevSource{}.List()
	if err != nil {
		return err
	}
	for _, d := range devs {
		fmt.Printf("%s\t%s\n", d.Path, d.Name)
	}
	return nil
}

func main() {
	cfgfile := flag.String("cfg", DefaultConfigPath, "Config file")
	modeflag := flag.String("mode", "", "Business logic to run, overrides the config")
	listflag := flag.Bool("list-devices", false, "List input devices for HIDKeystrokingReader and exit")
	flag.Parse()

	if *listflag {
		if err := listDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "list devices: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := LoadConfig(*cfgfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *modeflag != "" {
		cfg.Mode = *modeflag
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("build", myBuild).Str("config", *cfgfile).Msg("authbox starting")

	chip, err := gpio.New(cfg.GPIO)
	if err != nil {
		log.Fatal().Err(err).Msg("init gpio")
	}
	defer chip.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(ctx, cfg, log, chip, reader.EvdevSource{})
	if err := app.setup(); err != nil {
		var ce *pins.ConfigError
		if errors.As(err, &ce) {
			log.Fatal().Err(err).Str("pin", ce.Name).Msg("bad pins configuration")
		}
		log.Fatal().Err(err).Msg("setup")
	}

	err = app.disp.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("dispatcher stopped")
	}
	log.Info().Msg("shutdown complete")
}
