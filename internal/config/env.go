package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LookupFunc is os.LookupEnv or a stand-in.
type LookupFunc func(key string) (string, bool)

type envSetter func(c *Config, v string) error

// envMapping maps environment variables to config fields.
var envMapping = map[string]envSetter{
	EnvPrefix + "ENGINE_COMMAND": func(c *Config, v string) error { c.Engine.Command = v; return nil },
	EnvPrefix + "ENGINE_ARGS":    func(c *Config, v string) error { c.Engine.Args = strings.Fields(v); return nil },
	EnvPrefix + "ENGINE_DIR":     func(c *Config, v string) error { c.Engine.Dir = v; return nil },
	EnvPrefix + "LOG_LEVEL":      func(c *Config, v string) error { c.Log.Level = v; return nil },
	EnvPrefix + "LOG_FILE":       func(c *Config, v string) error { c.Log.File = v; return nil },
	EnvPrefix + "LOG_STRUCTURED": boolSetter(func(c *Config, b bool) { c.Log.Structured = b }),
	EnvPrefix + "KEYMAP_SCRIPT":  func(c *Config, v string) error { c.Keymap.Script = v; return nil },
	EnvPrefix + "KEYMAP_WATCH":   boolSetter(func(c *Config, b bool) { c.Keymap.Watch = b }),
	EnvPrefix + "STALE_AFTER": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Client.StaleAfter = Duration(d)
		return nil
	},
	EnvPrefix + "SCROLL_MARGIN": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Client.ScrollMargin = n
		return nil
	},
}

func boolSetter(set func(c *Config, b bool)) envSetter {
	return func(c *Config, v string) error {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			set(c, true)
		case "0", "false", "no", "off":
			set(c, false)
		default:
			return fmt.Errorf("not a boolean: %q", v)
		}
		return nil
	}
}

// EnvVars lists the recognized environment variables.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyEnv overlays environment variables on cfg. Set but empty variables
// count as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for _, name := range EnvVars() {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := envMapping[name](cfg, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}
