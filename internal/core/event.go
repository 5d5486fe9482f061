package core

import (
	"github.com/dshills/xifront/internal/edit"
	"github.com/dshills/xifront/internal/keymap"
	"github.com/dshills/xifront/internal/view"
)

// EventType identifies a UI event.
type EventType int

const (
	EventKey EventType = iota
	EventPaste
	EventClick
	EventDrag
	EventWheel
	EventResize
	EventOpen
	EventKeymapChanged
	EventQuit
)

// Event is an input from the host, delivered to the loop with Post.
type Event struct {
	Type EventType

	// Tab is the tab the event happened in. Key, paste, click, drag and
	// wheel events need it.
	Tab view.TabID

	Key keymap.Event

	// Text is the pasted text or, for EventOpen, the file to open ("" for
	// a scratch view). For EventKeymapChanged it is the script path.
	Text string

	// Line and Col are document coordinates for click and drag; Line is
	// the scroll amount for wheel events.
	Line  int
	Col   int
	Mods  edit.Modifiers
	Count int

	// Height is the new window height in lines for resize events.
	Height int
}
