// Package term is the terminal host: it shows one tab per engine view on a
// tcell screen and turns terminal input into core events.
//
// Tab, redraw and scroll callbacks arrive on the core loop goroutine and
// are the only place documents are read. The input goroutine started by
// Run reads the tab list and each tab's last drawn window under the host
// lock, never the documents themselves.
package term

import (
	"context"
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/dshills/xifront/internal/core"
	"github.com/dshills/xifront/internal/linecache"
	"github.com/dshills/xifront/internal/logx"
	"github.com/dshills/xifront/internal/view"
)

type tab struct {
	id     view.TabID
	viewID string
	path   string
	entry  *view.Entry

	// first is the entry's first visible line at the last draw.
	first int
	// line and col are the last position the engine scrolled to.
	line, col int
}

// title follows the entry once the view is open, so a save under a new
// name renames the tab.
func (t *tab) title() string {
	if t.entry != nil {
		return tabTitle(t.entry.FilePath)
	}
	return tabTitle(t.path)
}

// Host shows views on a tcell screen.
type Host struct {
	screen tcell.Screen
	log    pslog.Logger

	mu     sync.Mutex
	tabs   []*tab
	active int
}

// Open initializes the terminal and returns a host drawing on it.
func Open(log pslog.Logger) (*Host, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return New(screen, log), nil
}

// New returns a host on an initialized screen.
func New(screen tcell.Screen, log pslog.Logger) *Host {
	if log == nil {
		log = logx.Discard()
	}
	screen.EnableMouse()
	screen.EnablePaste()
	return &Host{screen: screen, log: log}
}

// Close restores the terminal.
func (h *Host) Close() {
	h.screen.Fini()
}

// TextHeight returns the number of document lines the screen shows.
func (h *Host) TextHeight() int {
	_, height := h.screen.Size()
	return textHeight(height)
}

// ActiveTab returns the selected tab, or "" when no tab is open.
func (h *Host) ActiveTab() view.TabID {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t := h.current(); t != nil {
		return t.id
	}
	return ""
}

// Tabs returns the open tabs in display order.
func (h *Host) Tabs() []view.TabID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]view.TabID, len(h.tabs))
	for i, t := range h.tabs {
		out[i] = t.id
	}
	return out
}

// CreateTab adds a tab for a view and selects it.
func (h *Host) CreateTab(viewID, path string) (view.TabID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := &tab{id: view.TabID(uuid.NewString()), viewID: viewID, path: path}
	h.tabs = append(h.tabs, t)
	h.active = len(h.tabs) - 1
	logx.WithViewTab(h.log, viewID, string(t.id)).Debug("tab created")
	h.drawLocked()
	return t.id, nil
}

// DestroyTab removes a tab. The selection moves to its left neighbour.
func (h *Host) DestroyTab(id view.TabID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexLocked(id)
	if i < 0 {
		return
	}
	h.tabs = append(h.tabs[:i], h.tabs[i+1:]...)
	if h.active >= i && h.active > 0 {
		h.active--
	}
	h.drawLocked()
}

// CycleTab moves the selection delta tabs, wrapping around.
func (h *Host) CycleTab(delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.tabs)
	if n == 0 {
		return
	}
	h.active = ((h.active+delta)%n + n) % n
	h.drawLocked()
}

func (h *Host) ViewOpened(e *view.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexLocked(e.Tab)
	if i < 0 {
		h.log.Warn("view opened for unknown tab", "view", e.ViewID, "tab", string(e.Tab))
		return
	}
	h.tabs[i].entry = e
	if i == h.active {
		h.drawLocked()
	}
}

func (h *Host) Redraw(e *view.Entry, change linecache.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i := h.indexLocked(e.Tab); i >= 0 && i == h.active {
		h.drawLocked()
	}
}

func (h *Host) ScrollTo(e *view.Entry, line, col int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexLocked(e.Tab)
	if i < 0 {
		return
	}
	h.tabs[i].line, h.tabs[i].col = line, col
	if i == h.active {
		h.drawLocked()
	}
}

// Run reads terminal input and posts it to the core until ctx ends, the
// screen is closed or the core stops accepting events.
func (h *Host) Run(ctx context.Context, post func(core.Event) error) error {
	stop := context.AfterFunc(ctx, func() {
		_ = h.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	in := newInput(h)
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := ev.(*tcell.EventResize); ok {
			h.screen.Sync()
		}
		cev, ok := in.translate(ev)
		if !ok {
			continue
		}
		if err := post(cev); err != nil {
			if errors.Is(err, core.ErrStopped) {
				return nil
			}
			return err
		}
	}
}

func (h *Host) current() *tab {
	if h.active < 0 || h.active >= len(h.tabs) {
		return nil
	}
	return h.tabs[h.active]
}

func (h *Host) indexLocked(id view.TabID) int {
	for i, t := range h.tabs {
		if t.id == id {
			return i
		}
	}
	return -1
}

// window returns the active tab and the document line shown at its top.
func (h *Host) window() (view.TabID, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.current()
	if t == nil {
		return "", 0
	}
	return t.id, t.first
}
