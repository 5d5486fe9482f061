package term

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/xifront/internal/linecache"
)

const (
	tabWidth = 4

	// Rows above and below the text area: the tab bar and the status line.
	textTop    = 1
	chromeRows = 2

	// Engine style ids with a fixed meaning.
	styleIDSelection = 0
	styleIDFind      = 1

	unknownGlyph = '~'
)

var (
	styleText      = tcell.StyleDefault
	styleUnknown   = tcell.StyleDefault.Dim(true)
	styleSelection = tcell.StyleDefault.Reverse(true)
	styleFind      = tcell.StyleDefault.Underline(true)
	styleTabBar    = tcell.StyleDefault.Reverse(true)
	styleTabActive = tcell.StyleDefault.Bold(true)
	styleStatus    = tcell.StyleDefault.Reverse(true)
)

func textHeight(screenHeight int) int {
	return max(screenHeight-chromeRows, 0)
}

func tabTitle(path string) string {
	if path == "" {
		return "untitled"
	}
	return filepath.Base(path)
}

// drawLocked repaints the whole screen for the active tab.
func (h *Host) drawLocked() {
	s := h.screen
	s.Clear()
	width, height := s.Size()

	h.drawTabBar(width)

	t := h.current()
	if t == nil || t.entry == nil {
		s.HideCursor()
		h.drawStatus(width, height-1, "no view")
		s.Show()
		return
	}

	e := t.entry
	t.first = e.First
	cx, cy, found := -1, -1, false
	rows := min(textHeight(height), max(e.Doc.Len()-e.First, 0))
	for row := 0; row < rows; row++ {
		y := textTop + row
		l := e.Doc.Line(e.First + row)
		if !l.Known {
			s.SetContent(0, y, unknownGlyph, nil, styleUnknown)
			continue
		}
		drawLine(s, y, width, l)
		if !found && len(l.Cursor) > 0 {
			cx, cy, found = displayCol(l.Text, l.Cursor[0]), y, true
		}
	}
	if found && cx < width {
		s.ShowCursor(cx, cy)
	} else {
		s.HideCursor()
	}

	status := fmt.Sprintf("%s  %d lines  %d:%d", t.title(), e.Doc.Len(), t.line+1, t.col+1)
	h.drawStatus(width, height-1, status)
	s.Show()
}

func (h *Host) drawTabBar(width int) {
	x := 0
	for i, t := range h.tabs {
		style := styleTabBar
		if i == h.active {
			style = styleTabActive
		}
		x = putString(h.screen, x, 0, width, " "+t.title()+" ", style)
	}
	for ; x < width; x++ {
		h.screen.SetContent(x, 0, ' ', nil, styleTabBar)
	}
}

func (h *Host) drawStatus(width, y int, text string) {
	x := putString(h.screen, 0, y, width, " "+text, styleStatus)
	for ; x < width; x++ {
		h.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
}

// drawLine draws a known line at row y, expanding tabs and applying the
// engine's style spans.
func drawLine(s tcell.Screen, y, width int, l linecache.Line) {
	text := strings.TrimRight(l.Text, "\r\n")
	col := 0
	for off, r := range text {
		if col >= width {
			return
		}
		style := spanStyle(l.Styles, off)
		if r == '\t' {
			for n := tabWidth - col%tabWidth; n > 0 && col < width; n-- {
				s.SetContent(col, y, ' ', nil, style)
				col++
			}
			continue
		}
		s.SetContent(col, y, r, nil, style)
		col += runeWidth(r)
	}
}

func spanStyle(spans []linecache.StyleSpan, off int) tcell.Style {
	var selected, found bool
	for _, sp := range spans {
		if off < sp.Start || off >= sp.End {
			continue
		}
		switch sp.StyleID {
		case styleIDSelection:
			selected = true
		case styleIDFind:
			found = true
		}
	}
	switch {
	case selected:
		return styleSelection
	case found:
		return styleFind
	}
	return styleText
}

// displayCol converts a byte offset in text to a screen column.
func displayCol(text string, off int) int {
	col := 0
	for i, r := range text {
		if i >= off || r == '\n' || r == '\r' {
			break
		}
		if r == '\t' {
			col += tabWidth - col%tabWidth
			continue
		}
		col += runeWidth(r)
	}
	return col
}

func runeWidth(r rune) int {
	if w := uniseg.StringWidth(string(r)); w > 0 {
		return w
	}
	return 1
}

// putString draws s from x and returns the column after it.
func putString(scr tcell.Screen, x, y, width int, s string, style tcell.Style) int {
	for _, r := range s {
		if x >= width {
			break
		}
		scr.SetContent(x, y, r, nil, style)
		x += runeWidth(r)
	}
	return x
}
