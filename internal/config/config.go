// Package config loads the front end's configuration.
//
// Values are layered, later layers winning: built-in defaults, the TOML
// file, then XIFRONT_* environment variables. Command-line flags are
// applied by the caller on top of the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "XIFRONT_"

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrParse         = errors.New("config parse error")
)

// Config is the complete configuration.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`
	Keymap KeymapConfig `toml:"keymap"`
	Client ClientConfig `toml:"client"`
}

// EngineConfig describes how to start the editing engine.
type EngineConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Dir     string   `toml:"dir"`
	Env     []string `toml:"env"`
}

// LogConfig controls logging. While the terminal UI runs, logs go to File
// or are discarded when File is empty.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	Structured bool   `toml:"structured"`
}

// KeymapConfig points at an optional Lua keymap script.
type KeymapConfig struct {
	Script string `toml:"script"`
	Watch  bool   `toml:"watch"`
}

// ClientConfig holds session tuning.
type ClientConfig struct {
	// StaleAfter is the age at which an unanswered request is reported.
	StaleAfter Duration `toml:"stale_after"`
	// ScrollMargin is the number of lines requested beyond the visible
	// window in each direction.
	ScrollMargin int `toml:"scroll_margin"`
}

// Duration is a time.Duration read from a string such as "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{Command: "xi-core"},
		Log:    LogConfig{Level: "info"},
		Keymap: KeymapConfig{Watch: true},
		Client: ClientConfig{
			StaleAfter:   Duration(30 * time.Second),
			ScrollMargin: 0,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "xifront", "config.toml")
}

// Load reads the configuration: defaults, then path if it exists, then the
// environment. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := Decode(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("%s: %w", path, err)
			}
			cfg.resolvePaths(filepath.Dir(path))
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML into cfg, keeping the values of absent keys. Unknown
// keys are an error.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("%w: line %d column %d: %v", ErrParse, row, col, derr)
		}
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// resolvePaths makes relative paths in the file relative to its directory.
func (c *Config) resolvePaths(dir string) {
	if c.Keymap.Script != "" && !filepath.IsAbs(c.Keymap.Script) {
		c.Keymap.Script = filepath.Join(dir, c.Keymap.Script)
	}
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(dir, c.Log.File)
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Engine.Command) == "" {
		errs = append(errs, errors.New("engine.command is empty"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error", c.Log.Level))
	}
	if c.Client.StaleAfter < 0 {
		errs = append(errs, errors.New("client.stale_after is negative"))
	}
	if c.Client.ScrollMargin < 0 {
		errs = append(errs, errors.New("client.scroll_margin is negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
