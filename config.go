package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"authbox/gpio"
	"authbox/logging"
)

// DefaultConfigPath is read when -cfg is not given.
const DefaultConfigPath = "~/.authbox.yaml"

// Config is the main configuration structure for authbox.
type Config struct {
	// Business logic to run: lockbox, twobutton or qa
	Mode string `yaml:"mode"`

	Log  logging.Config `yaml:"log"`
	GPIO gpio.Config    `yaml:"gpio"`

	// Peripheral entries, name -> "Class:arg:arg[, Class:arg]"
	Pins map[string]string `yaml:"pins"`

	// Authorization settings. Values may reference each other as {key}.
	Auth Section `yaml:"auth"`
}

// LoadConfig reads and decodes the YAML file at path. A leading ~ is
// expanded to the home directory.
func LoadConfig(path string) (*Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if len(cfg.Pins) == 0 {
		return nil, fmt.Errorf("config %s: no pins configured", path)
	}
	return &cfg, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

// ErrCycle is returned when {key} references loop back on themselves.
var ErrCycle = errors.New("config reference cycle")

// Only identifiers that do not start with a digit are references; {} and
// {0} are left for argument formatting.
var templateRE = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Section is a flat string map with {key} interpolation.
type Section map[string]string

// Get returns key with every {other} reference resolved recursively.
func (s Section) Get(key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", fmt.Errorf("missing config key %q", key)
	}
	return s.expand(v, nil)
}

// GetDefault is Get, returning def when key is absent.
func (s Section) GetDefault(key, def string) (string, error) {
	if _, ok := s[key]; !ok {
		return s.expand(def, nil)
	}
	return s.Get(key)
}

func (s Section) expand(value string, stack []string) (string, error) {
	if !strings.Contains(value, "{") {
		return value, nil
	}
	for _, v := range stack {
		if v == value {
			return "", ErrCycle
		}
	}
	stack = append(stack, value)

	var firstErr error
	out := templateRE.ReplaceAllStringFunc(value, func(m string) string {
		if firstErr != nil {
			return m
		}
		key := m[1 : len(m)-1]
		ref, ok := s[key]
		if !ok {
			firstErr = fmt.Errorf("missing config key %q", key)
			return m
		}
		r, err := s.expand(ref, stack)
		if err != nil {
			firstErr = err
			return m
		}
		return r
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// Duration parses key with ParseDuration, falling back to def when key is
// absent.
func (s Section) Duration(key, def string) (time.Duration, error) {
	v, err := s.GetDefault(key, def)
	if err != nil {
		return 0, err
	}
	d, err := ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

var (
	bareSecondsRE = regexp.MustCompile(`^\d+$`)
	durationRE    = regexp.MustCompile(`^(?:[\d.]+[smhd])+$`)
	segmentRE     = regexp.MustCompile(`([\d.]+)([smhd])`)
)

var units = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseDuration accepts a bare number of seconds ("61") or a run of
// number+unit segments with units s, m, h and d ("1m30s", "1.2h", "1d").
func ParseDuration(s string) (time.Duration, error) {
	switch {
	case s == "":
		return 0, errors.New("empty duration")
	case bareSecondsRE.MatchString(s):
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("duration %q: %w", s, err)
		}
		return time.Duration(n) * time.Second, nil
	case !durationRE.MatchString(s):
		return 0, fmt.Errorf("unknown duration format %q", s)
	}

	var total float64
	for _, m := range segmentRE.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("duration %q: %w", s, err)
		}
		total += n * float64(units[m[2]])
	}
	return time.Duration(total + 0.5), nil
}
