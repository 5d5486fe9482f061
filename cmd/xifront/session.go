package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"pkt.systems/pslog"

	"github.com/dshills/xifront/internal/config"
	"github.com/dshills/xifront/internal/core"
	"github.com/dshills/xifront/internal/keymap"
	"github.com/dshills/xifront/internal/logx"
	"github.com/dshills/xifront/internal/rpc"
	"github.com/dshills/xifront/internal/spawn"
	"github.com/dshills/xifront/internal/term"
)

const stopGrace = 2 * time.Second

// openLog returns the session logger. The terminal owns stderr while the
// screen is up, so logs go to the configured file or nowhere.
func openLog(cfg config.LogConfig) (pslog.Logger, func() error, error) {
	if cfg.File == "" {
		return logx.Discard(), func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logx.New(f, cfg.Level, cfg.Structured), f.Close, nil
}

func loadKeymap(ctx context.Context, script string) (*keymap.Keymap, error) {
	if script == "" {
		return keymap.Default(), nil
	}
	return keymap.LoadFile(ctx, script)
}

// runSession starts the engine and the terminal and runs the core loop
// until the user quits or the engine goes away.
func runSession(ctx context.Context, cfg config.Config, files []string) error {
	logger, closeLog, err := openLog(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	ctx = pslog.ContextWithLogger(ctx, logger)

	km, err := loadKeymap(ctx, cfg.Keymap.Script)
	if err != nil {
		return err
	}

	eng, err := spawn.Start(ctx, spawn.Options{
		Command: cfg.Engine.Command,
		Args:    cfg.Engine.Args,
		Dir:     cfg.Engine.Dir,
		Env:     cfg.Engine.Env,
	}, logger.With("component", "engine"))
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Stop(stopGrace); err != nil {
			logger.Warn("engine stop", "error", err)
		}
	}()

	host, err := term.Open(logger)
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer host.Close()

	c := core.NewWithProcess(eng, core.Options{
		Tabs:         host,
		Redraw:       host,
		Clipboard:    term.DefaultClipboard(),
		Keymap:       km,
		Log:          logger,
		Height:       host.TextHeight(),
		ScrollMargin: cfg.Client.ScrollMargin,
		StaleAfter:   cfg.Client.StaleAfter.Std(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := host.Run(ctx, c.Post); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("terminal input stopped", "error", err)
		}
	}()
	go openFiles(c, files)
	if cfg.Keymap.Watch && cfg.Keymap.Script != "" {
		if err := watchKeymap(ctx, c, cfg.Keymap.Script, logger); err != nil {
			logger.Warn("keymap watch disabled", "script", cfg.Keymap.Script, "error", err)
		}
	}

	logger.Info("session started", "engine", cfg.Engine.Command, "pid", eng.PID(), "files", len(files))
	err = c.Run(ctx)
	s := c.Stats()
	logger.Info("session ended",
		"received", s.Received, "rejected", s.Rejected, "applied", s.Applied,
		"stale", s.Stale, "pending", s.Pending, "views", s.Views)

	if errors.Is(err, rpc.ErrEngineExited) {
		select {
		case <-eng.Done():
		case <-time.After(stopGrace):
		}
		return fmt.Errorf("%w (exit code %d)", err, eng.ExitCode())
	}
	return err
}

// openFiles asks for one view per file, or a scratch view when there are
// none.
func openFiles(c *core.Core, files []string) {
	if len(files) == 0 {
		files = []string{""}
	}
	for _, f := range files {
		if err := c.Post(core.Event{Type: core.EventOpen, Text: f}); err != nil {
			return
		}
	}
}

// watchKeymap reloads the keymap whenever its script changes on disk.
func watchKeymap(ctx context.Context, c *core.Core, script string, logger pslog.Logger) error {
	w, err := config.NewWatcher(config.DefaultDebounce, script)
	if err != nil {
		return err
	}
	go func() {
		defer w.Close()
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("keymap watcher stopped", "error", err)
		}
	}()
	go func() {
		for {
			select {
			case _, ok := <-w.Changes():
				if !ok {
					return
				}
				if err := c.Post(core.Event{Type: core.EventKeymapChanged, Text: script}); err != nil {
					return
				}
			case err := <-w.Errors():
				logger.Warn("keymap watcher", "error", err)
			}
		}
	}()
	return nil
}
