package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestDecodeKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	err := Decode([]byte(`
[engine]
command = "/opt/xi/bin/xi-core"
args = ["--verbose"]

[client]
stale_after = "5s"
`), &cfg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if cfg.Engine.Command != "/opt/xi/bin/xi-core" || !reflect.DeepEqual(cfg.Engine.Args, []string{"--verbose"}) {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Client.StaleAfter.Std() != 5*time.Second {
		t.Errorf("stale_after = %v", cfg.Client.StaleAfter.Std())
	}
	if cfg.Log.Level != "info" || !cfg.Keymap.Watch {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":        "[engine\ncommand = 1",
		"unknown key":   "[engine]\nbinary = \"x\"",
		"bad duration":  "[client]\nstale_after = \"soon\"",
		"wrong type":    "[engine]\nargs = \"--x\"",
		"unknown table": "[theme]\nname = \"dark\"",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := Decode([]byte(src), &cfg); !errors.Is(err, ErrParse) {
				t.Errorf("Decode() error = %v, want ErrParse", err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Args = []string{"-a", "-b"}
	cfg.Engine.Env = []string{"RUST_LOG=info"}
	cfg.Keymap.Script = "/etc/xifront/keys.lua"

	data, err := Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := Config{}
	if err := Decode(data, &got); err != nil {
		t.Fatalf("Decode(Encode()) error = %v\n%s", err, data)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := ApplyEnv(&cfg, envMap(map[string]string{
		"XIFRONT_ENGINE_COMMAND": "xi",
		"XIFRONT_ENGINE_ARGS":    "--a  --b",
		"XIFRONT_LOG_LEVEL":      "debug",
		"XIFRONT_LOG_STRUCTURED": "yes",
		"XIFRONT_KEYMAP_WATCH":   "off",
		"XIFRONT_STALE_AFTER":    "1m",
		"XIFRONT_SCROLL_MARGIN":  "4",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Engine.Command != "xi" || !reflect.DeepEqual(cfg.Engine.Args, []string{"--a", "--b"}) {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Structured {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Keymap.Watch {
		t.Error("keymap.watch not overridden")
	}
	if cfg.Client.StaleAfter.Std() != time.Minute || cfg.Client.ScrollMargin != 4 {
		t.Errorf("client = %+v", cfg.Client)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	for name, value := range map[string]string{
		"XIFRONT_LOG_STRUCTURED": "maybe",
		"XIFRONT_STALE_AFTER":    "10",
		"XIFRONT_SCROLL_MARGIN":  "x",
	} {
		cfg := DefaultConfig()
		err := ApplyEnv(&cfg, envMap(map[string]string{name: value}))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s=%s: error = %v, want ErrInvalidConfig", name, value, err)
		}
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[log]
level = "warn"
file = "xifront.log"

[keymap]
script = "keys.lua"
`)
	t.Setenv("XIFRONT_LOG_LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("log.level = %q, env should win", cfg.Log.Level)
	}
	if cfg.Log.File != filepath.Join(dir, "xifront.log") {
		t.Errorf("log.file = %q", cfg.Log.File)
	}
	if cfg.Keymap.Script != filepath.Join(dir, "keys.lua") {
		t.Errorf("keymap.script = %q", cfg.Keymap.Script)
	}
	if cfg.Engine.Command != "xi-core" {
		t.Errorf("engine.command = %q", cfg.Engine.Command)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Command != DefaultConfig().Engine.Command {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[log]\nlevel = \"loud\"\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Command = " "
	cfg.Client.ScrollMargin = -1
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() = %v", err)
	}
	if !strings.Contains(err.Error(), "engine.command") || !strings.Contains(err.Error(), "scroll_margin") {
		t.Errorf("Validate() = %v, want both problems", err)
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "keys.lua", "return {}")
	writeFile(t, dir, "other.txt", "x")

	w, err := NewWatcher(20*time.Millisecond, script, "")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx)

	writeFile(t, dir, "other.txt", "y")
	writeFile(t, dir, "keys.lua", "return { F2 = \"undo\" }")

	select {
	case changed := <-w.Changes():
		if !reflect.DeepEqual(changed, []string{script}) {
			t.Errorf("changed = %v, want [%s]", changed, script)
		}
	case <-ctx.Done():
		t.Fatal("no change reported")
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	w, err := NewWatcher(DefaultDebounce, writeFile(t, t.TempDir(), "c.toml", ""))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	if _, ok := <-w.Changes(); ok {
		t.Error("Changes not closed")
	}
}

func TestEnvVarsSorted(t *testing.T) {
	vars := EnvVars()
	for i := 1; i < len(vars); i++ {
		if vars[i-1] > vars[i] {
			t.Fatalf("EnvVars() not sorted: %v", vars)
		}
		if !strings.HasPrefix(vars[i], EnvPrefix) {
			t.Errorf("%s lacks prefix", vars[i])
		}
	}
}
