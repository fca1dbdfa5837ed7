package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"

	"axolotl/internal/session"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AXOLOTL_"

// Config holds runtime wiring options for building the app.
type Config struct {
	Home      string `toml:"-" env:"HOME"` // data directory, e.g. $HOME/.axolotl
	RelayURL  string `toml:"relay_url" env:"RELAY_URL"`
	Username  string `toml:"username" env:"USERNAME"`
	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`
	LogPretty bool   `toml:"log_pretty" env:"LOG_PRETTY"`

	HTTPTimeout      time.Duration `toml:"http_timeout" env:"HTTP_TIMEOUT"`
	MaxSessionStates int           `toml:"max_session_states" env:"MAX_SESSION_STATES"`
	MaxCounterGap    uint32        `toml:"max_counter_gap" env:"MAX_COUNTER_GAP"`
	PreKeyBatch      int           `toml:"prekey_batch" env:"PREKEY_BATCH"`
}

// DefaultConfig returns the built-in defaults, rooted at home.
func DefaultConfig(home string) Config {
	return Config{
		Home:             home,
		LogLevel:         "warn",
		HTTPTimeout:      15 * time.Second,
		MaxSessionStates: session.DefaultMaxSessionStates,
		MaxCounterGap:    session.DefaultMaxCounterGap,
		PreKeyBatch:      20,
	}
}

// DefaultHome is ~/.axolotl.
func DefaultHome() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".axolotl"), nil
}

// LoadConfig builds a Config. home defaults to AXOLOTL_HOME, then
// DefaultHome; path defaults to <home>/config.toml and may be absent.
func LoadConfig(home, path string) (Config, error) {
	if home == "" {
		home = os.Getenv(EnvPrefix + "HOME")
	}
	if home == "" {
		h, err := DefaultHome()
		if err != nil {
			return Config{}, err
		}
		home = h
	}
	cfg := DefaultConfig(home)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(home, "config.toml")
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}
	cfg.Home = home
	return cfg, cfg.Validate()
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.MaxSessionStates < 1:
		return fmt.Errorf("config: max_session_states must be at least 1, got %d", c.MaxSessionStates)
	case c.MaxCounterGap < 1:
		return errors.New("config: max_counter_gap must be at least 1")
	case c.PreKeyBatch < 0:
		return fmt.Errorf("config: prekey_batch must not be negative, got %d", c.PreKeyBatch)
	case c.HTTPTimeout < 0:
		return fmt.Errorf("config: http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	return nil
}

// SessionOptions translates the engine limits into session options.
func (c Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithMaxSessionStates(c.MaxSessionStates),
		session.WithMaxCounterGap(c.MaxCounterGap),
	}
}
