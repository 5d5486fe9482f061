package term

import (
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/xifront/internal/core"
)

const (
	// Clicks closer together than this at the same cell add to the click
	// count.
	multiClickInterval = 400 * time.Millisecond
	wheelLines         = 3
)

// input converts tcell events to core events. It is used only by the
// goroutine polling the screen.
type input struct {
	host *Host

	pasting bool
	paste   strings.Builder

	dragging  bool
	lastClick time.Time
	lastX     int
	lastY     int
	clicks    int
}

func newInput(h *Host) *input {
	return &input{host: h}
}

func (in *input) translate(ev tcell.Event) (core.Event, bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return in.key(ev)
	case *tcell.EventPaste:
		return in.pasteMark(ev)
	case *tcell.EventMouse:
		return in.mouse(ev)
	case *tcell.EventResize:
		_, h := ev.Size()
		return core.Event{Type: core.EventResize, Height: textHeight(h)}, true
	default:
		return core.Event{}, false
	}
}

func (in *input) key(ev *tcell.EventKey) (core.Event, bool) {
	if in.pasting {
		switch ev.Key() {
		case tcell.KeyRune:
			in.paste.WriteRune(ev.Rune())
		case tcell.KeyEnter:
			in.paste.WriteByte('\n')
		case tcell.KeyTab:
			in.paste.WriteByte('\t')
		}
		return core.Event{}, false
	}

	k, ok := KeyEvent(ev)
	if !ok {
		return core.Event{}, false
	}
	tab, _ := in.host.window()
	return core.Event{Type: core.EventKey, Tab: tab, Key: k}, true
}

// pasteMark handles the start and end of a bracketed paste. The text in
// between arrives as key events and is sent as one insert.
func (in *input) pasteMark(ev *tcell.EventPaste) (core.Event, bool) {
	if ev.Start() {
		in.pasting = true
		in.paste.Reset()
		return core.Event{}, false
	}
	in.pasting = false
	text := in.paste.String()
	in.paste.Reset()
	if text == "" {
		return core.Event{}, false
	}
	tab, _ := in.host.window()
	return core.Event{Type: core.EventPaste, Tab: tab, Text: text}, true
}

func (in *input) mouse(ev *tcell.EventMouse) (core.Event, bool) {
	x, y := ev.Position()
	btn := ev.Buttons()
	tab, first := in.host.window()

	switch {
	case btn&tcell.WheelUp != 0:
		return core.Event{Type: core.EventWheel, Tab: tab, Line: -wheelLines}, true
	case btn&tcell.WheelDown != 0:
		return core.Event{Type: core.EventWheel, Tab: tab, Line: wheelLines}, true
	case btn&tcell.Button1 == 0:
		in.dragging = false
		return core.Event{}, false
	}

	if tab == "" || y < textTop || y >= textTop+in.host.TextHeight() {
		return core.Event{}, false
	}
	line := first + y - textTop
	mods := mouseMods(ev.Modifiers())

	if in.dragging {
		return core.Event{Type: core.EventDrag, Tab: tab, Line: line, Col: x, Mods: mods}, true
	}
	in.dragging = true

	now := ev.When()
	if x == in.lastX && y == in.lastY && now.Sub(in.lastClick) < multiClickInterval {
		in.clicks++
	} else {
		in.clicks = 1
	}
	in.lastClick, in.lastX, in.lastY = now, x, y

	return core.Event{Type: core.EventClick, Tab: tab, Line: line, Col: x, Mods: mods, Count: in.clicks}, true
}
