package core

import (
	"context"
	"fmt"

	"github.com/dshills/xifront/internal/edit"
	"github.com/dshills/xifront/internal/keymap"
	"github.com/dshills/xifront/internal/logx"
	"github.com/dshills/xifront/internal/rpc"
	"github.com/dshills/xifront/internal/view"
)

// HandleEvent runs one host event. It returns ErrQuit when the session
// should end; other errors are logged and returned for tests.
func (c *Core) HandleEvent(ev Event) error {
	var err error
	switch ev.Type {
	case EventKey:
		err = c.HandleKey(ev.Tab, ev.Key)
	case EventPaste:
		if ev.Text != "" {
			err = c.Edit(ev.Tab, edit.InsertChars(ev.Text))
		}
	case EventClick:
		err = c.Edit(ev.Tab, edit.ClickAt(ev.Line, ev.Col, ev.Mods, max(ev.Count, 1)))
	case EventDrag:
		err = c.Edit(ev.Tab, edit.DragTo(ev.Line, ev.Col, ev.Mods))
	case EventWheel:
		err = c.ScrollBy(ev.Tab, ev.Line)
	case EventResize:
		err = c.Resize(ev.Height)
	case EventOpen:
		err = c.NewView(ev.Text)
	case EventKeymapChanged:
		err = c.ReloadKeymap(context.Background(), ev.Text)
	case EventQuit:
		return ErrQuit
	default:
		err = fmt.Errorf("unknown event type %d", ev.Type)
	}
	if err != nil && err != ErrQuit {
		c.log.Warn("operation failed", "error", err)
	}
	return err
}

// HandleKey translates a key press in tab and runs the result.
func (c *Core) HandleKey(tab view.TabID, ev keymap.Event) error {
	a, ok := c.keys.Translate(ev)
	if !ok {
		c.log.Debug("key unbound", "key", ev.String())
		return nil
	}
	if !a.IsLocal() {
		return c.Edit(tab, a.Command)
	}

	switch a.Local {
	case keymap.LocalNewView:
		return c.NewView("")
	case keymap.LocalCloseView:
		return c.CloseView(tab)
	case keymap.LocalSave:
		return c.Save(tab, "")
	case keymap.LocalQuit:
		return ErrQuit
	case keymap.LocalNextTab:
		c.cycle(1)
	case keymap.LocalPrevTab:
		c.cycle(-1)
	case keymap.LocalPaste:
		return c.Paste(tab)
	}
	return nil
}

// Paste inserts the clipboard text into the view in tab.
func (c *Core) Paste(tab view.TabID) error {
	if c.clip == nil {
		return opError("paste", string(tab), ErrNoClipboard)
	}
	text, err := c.clip.ReadText()
	if err != nil {
		return opError("paste", string(tab), err)
	}
	if text == "" {
		return nil
	}
	return c.Edit(tab, edit.InsertChars(text))
}

func (c *Core) cycle(delta int) {
	if c.tabs != nil {
		c.tabs.CycleTab(delta)
	}
}

type newViewParams struct {
	FilePath string `json:"file_path,omitempty"`
}

// NewView asks the engine for a view on path, or an empty view when path
// is "". The tab is created when the engine answers.
func (c *Core) NewView(path string) error {
	id, err := c.tr.Request("new_view", newViewParams{FilePath: path})
	if err != nil {
		return opError("new_view", path, c.sent(err))
	}
	if err := c.pending.Register(id, rpc.NewViewRequest(path)); err != nil {
		return opError("new_view", path, err)
	}
	logx.WithFile(c.log, path).Debug("view requested", "id", uint64(id))
	return nil
}

type viewParams struct {
	ViewID string `json:"view_id"`
}

// CloseView closes the view shown in tab. Requests still pending for the
// view are dropped; their responses will be reported as unexpected.
func (c *Core) CloseView(tab view.TabID) error {
	e, err := c.views.RemoveTab(tab)
	if err != nil {
		return opError("close_view", string(tab), err)
	}
	dropped := c.pending.DiscardView(e.ViewID)
	delete(c.refetch, e.ViewID)
	if c.tabs != nil {
		c.tabs.DestroyTab(tab)
	}
	logx.WithViewTab(c.log, e.ViewID, string(tab)).Info("view closed", "dropped_requests", dropped)

	if err := c.tr.Notify("close_view", viewParams{ViewID: e.ViewID}); err != nil {
		return opError("close_view", e.ViewID, c.sent(err))
	}
	return nil
}

// Edit sends an edit command to the view in tab. Cut and copy are sent as
// requests so their text comes back to the clipboard.
func (c *Core) Edit(tab view.TabID, cmd edit.Command) error {
	e, ok := c.views.ByTab(tab)
	if !ok {
		return opError("edit", string(tab), view.ErrViewNotFound)
	}

	switch cmd.Name {
	case edit.Cut, edit.Copy:
		id, err := edit.Request(c.tr, e.ViewID, cmd)
		if err != nil {
			return opError(string(cmd.Name), e.ViewID, c.sent(err))
		}
		p := rpc.CopyRequest(e.ViewID)
		if cmd.Name == edit.Cut {
			p = rpc.CutRequest(e.ViewID)
		}
		return opError(string(cmd.Name), e.ViewID, c.pending.Register(id, p))
	default:
		return opError(string(cmd.Name), e.ViewID, c.sent(edit.Notify(c.tr, e.ViewID, cmd)))
	}
}

type saveParams struct {
	ViewID   string `json:"view_id"`
	FilePath string `json:"file_path"`
}

// Save writes the view in tab to path, or to its own file when path is "".
// The view takes the new path once the engine confirms the save.
func (c *Core) Save(tab view.TabID, path string) error {
	e, ok := c.views.ByTab(tab)
	if !ok {
		return opError("save", string(tab), view.ErrViewNotFound)
	}
	if path == "" {
		path = e.FilePath
	}
	if path == "" {
		return opError("save", e.ViewID, ErrNoFilePath)
	}

	id, err := c.tr.Request("save", saveParams{ViewID: e.ViewID, FilePath: path})
	if err != nil {
		return opError("save", path, c.sent(err))
	}
	if err := c.pending.Register(id, rpc.SaveRequest(e.ViewID, path)); err != nil {
		return opError("save", path, err)
	}
	return nil
}

// Scroll moves the window of the view in tab to start at first.
func (c *Core) Scroll(tab view.TabID, first int) error {
	e, ok := c.views.ByTab(tab)
	if !ok {
		return opError("scroll", string(tab), view.ErrViewNotFound)
	}
	if first < 0 {
		first = 0
	}
	if n := e.Doc.Len(); n > 0 && first >= n {
		first = n - 1
	}
	if first == e.First {
		return nil
	}
	e.First = first
	return c.requestWindow(e)
}

// ScrollBy moves the window by delta lines.
func (c *Core) ScrollBy(tab view.TabID, delta int) error {
	e, ok := c.views.ByTab(tab)
	if !ok {
		return opError("scroll", string(tab), view.ErrViewNotFound)
	}
	return c.Scroll(tab, e.First+delta)
}

// Resize sets the window height of every view.
func (c *Core) Resize(height int) error {
	if height < 0 {
		height = 0
	}
	if height == c.height {
		return nil
	}
	c.height = height
	for _, id := range c.views.Views() {
		e, ok := c.views.ByView(id)
		if !ok {
			continue
		}
		e.Height = height
		if err := c.requestWindow(e); err != nil {
			return err
		}
	}
	return nil
}

// requestWindow tells the engine which lines the view shows. The engine
// answers with an update covering them.
func (c *Core) requestWindow(e *view.Entry) error {
	c.refetch[e.ViewID] = 0
	return c.sendWindow(e)
}

func (c *Core) sendWindow(e *view.Entry) error {
	first := max(e.First-c.opts.ScrollMargin, 0)
	last := e.First + e.Height + c.opts.ScrollMargin
	err := edit.Notify(c.tr, e.ViewID, edit.ScrollTo(first, last))
	return opError("scroll", e.ViewID, c.sent(err))
}

// refetchMissing asks again for a window that still has unknown lines
// after an update, a bounded number of times per window.
func (c *Core) refetchMissing(e *view.Entry) {
	if e.Height <= 0 {
		return
	}
	w := e.Visible()
	missing := e.Doc.Missing(w.Start, w.End)
	if len(missing) == 0 {
		return
	}
	if c.refetch[e.ViewID] >= c.opts.MaxRefetch {
		return
	}
	c.refetch[e.ViewID]++
	logx.WithView(c.log, e.ViewID).Debug("refetching unknown lines",
		"first", missing[0].Start, "runs", len(missing))
	_ = c.sendWindow(e)
}

// SetKeymap replaces the keymap.
func (c *Core) SetKeymap(km *keymap.Keymap) {
	if km != nil {
		c.keys = km
	}
}

// ReloadKeymap loads the keymap script at path. On error the current
// keymap stays in place.
func (c *Core) ReloadKeymap(ctx context.Context, path string) error {
	if path == "" {
		c.keys = keymap.Default()
		return nil
	}
	km, err := keymap.LoadFile(ctx, path)
	if err != nil {
		return opError("reload_keymap", path, err)
	}
	c.keys = km
	c.log.Info("keymap reloaded", "script", path, "bindings", km.Len())
	return nil
}
