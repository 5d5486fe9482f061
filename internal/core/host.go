package core

import (
	"errors"

	"github.com/dshills/xifront/internal/linecache"
	"github.com/dshills/xifront/internal/logx"
	"github.com/dshills/xifront/internal/rpc"
	"github.com/dshills/xifront/internal/view"
)

// hostAdapter is the dispatcher's view of a Core.
type hostAdapter Core

func (h *hostAdapter) core() *Core {
	return (*Core)(h)
}

func (h *hostAdapter) OpenTab(viewID, path string) (view.TabID, error) {
	c := h.core()
	if c.tabs == nil {
		return view.TabID(viewID), nil
	}
	return c.tabs.CreateTab(viewID, path)
}

func (h *hostAdapter) CloseTab(tab view.TabID) {
	if c := h.core(); c.tabs != nil {
		c.tabs.DestroyTab(tab)
	}
}

func (h *hostAdapter) ViewOpened(e *view.Entry) {
	c := h.core()
	logx.WithFile(logx.WithViewTab(c.log, e.ViewID, string(e.Tab)), e.FilePath).Info("view opened")
	e.Height = c.height
	if c.redraw != nil {
		c.redraw.ViewOpened(e)
	}
	_ = c.requestWindow(e)
}

func (h *hostAdapter) ViewUpdated(e *view.Entry, change linecache.Change) {
	c := h.core()
	c.stats.applied()
	if c.redraw != nil {
		c.redraw.Redraw(e, change)
	}
	c.refetchMissing(e)
}

func (h *hostAdapter) ScrollTo(e *view.Entry, line, col int) {
	c := h.core()
	if first, moved := follow(e.First, e.Height, line); moved {
		e.First = first
		_ = c.requestWindow(e)
	}
	if c.redraw != nil {
		c.redraw.ScrollTo(e, line, col)
	}
}

func (h *hostAdapter) ViewSaved(e *view.Entry) {
	c := h.core()
	logx.WithFile(logx.WithView(c.log, e.ViewID), e.FilePath).Info("view saved")
	if c.redraw != nil {
		c.redraw.Redraw(e, linecache.Change{Revision: e.Doc.Revision(), Total: e.Doc.Len()})
	}
}

func (h *hostAdapter) ClipboardText(p rpc.Pending, text string) error {
	c := h.core()
	if c.clip == nil {
		return ErrNoClipboard
	}
	if err := c.clip.WriteText(text); err != nil {
		return errors.Join(ErrNoClipboard, err)
	}
	logx.WithView(c.log, p.ViewID).Debug("clipboard set", "intent", p.Intent.String(), "bytes", len(text))
	return nil
}

// follow returns the first visible line after moving a window of height
// lines starting at first just enough to show line.
func follow(first, height, line int) (int, bool) {
	if height <= 0 {
		return first, false
	}
	switch {
	case line < first:
		return line, true
	case line >= first+height:
		return line - height + 1, true
	default:
		return first, false
	}
}
