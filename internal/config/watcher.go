package config

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor's save produces.
const DefaultDebounce = 150 * time.Millisecond

var ErrWatcherClosed = errors.New("watcher closed")

// Watcher reports changes to a fixed set of files. It watches the parent
// directories so that files replaced by rename, as most editors save, are
// still seen.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	changes  chan []string
	errors   chan error
}

// NewWatcher watches paths. Empty paths are skipped. Run must be called to
// deliver changes.
func NewWatcher(debounce time.Duration, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		debounce: debounce,
		changes:  make(chan []string, 1),
		errors:   make(chan error, 1),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Changes delivers the sorted set of changed files after each quiet period.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Errors delivers watch errors. Errors are dropped if not received.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Run delivers changes until ctx is done or the watcher is closed, then
// closes the Changes channel.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.changes)

	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if !w.relevant(ev) {
				continue
			}
			pending[filepath.Clean(ev.Name)] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			select {
			case w.errors <- err:
			default:
			}

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			select {
			case w.changes <- changed:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !w.files[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
