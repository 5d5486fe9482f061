package keymap

import (
	"fmt"
	"strings"
	"unicode"
)

// Key identifies a non-character key. Character keys use KeyRune with the
// character in Event.Rune.
type Key uint8

const (
	KeyNone Key = iota
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyRune
)

var keyNames = [...]string{
	KeyNone:      "None",
	KeyEscape:    "Esc",
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyInsert:    "Insert",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyF11:       "F11",
	KeyF12:       "F12",
	KeyRune:      "Rune",
}

func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", k)
}

// keyAliases maps lower-case key names, including the usual Vim aliases,
// to keys.
var keyAliases = map[string]Key{
	"esc":       KeyEscape,
	"escape":    KeyEscape,
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"cr":        KeyEnter,
	"tab":       KeyTab,
	"backspace": KeyBackspace,
	"bs":        KeyBackspace,
	"delete":    KeyDelete,
	"del":       KeyDelete,
	"insert":    KeyInsert,
	"ins":       KeyInsert,
	"home":      KeyHome,
	"end":       KeyEnd,
	"pageup":    KeyPageUp,
	"pgup":      KeyPageUp,
	"pagedown":  KeyPageDown,
	"pgdn":      KeyPageDown,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"f1":        KeyF1,
	"f2":        KeyF2,
	"f3":        KeyF3,
	"f4":        KeyF4,
	"f5":        KeyF5,
	"f6":        KeyF6,
	"f7":        KeyF7,
	"f8":        KeyF8,
	"f9":        KeyF9,
	"f10":       KeyF10,
	"f11":       KeyF11,
	"f12":       KeyF12,
}

// runeAliases are names that stand for a character key.
var runeAliases = map[string]rune{
	"space":  ' ',
	"lt":     '<',
	"gt":     '>',
	"bar":    '|',
	"bslash": '\\',
	"plus":   '+',
	"minus":  '-',
}

// Modifier is a set of held modifier keys.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether all of mod is held.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod == mod
}

// String renders m as "Ctrl+Alt+Shift+Meta" in that order.
func (m Modifier) String() string {
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"c":       ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"a":       ModAlt,
	"shift":   ModShift,
	"s":       ModShift,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"super":   ModMeta,
	"m":       ModMeta,
	"d":       ModMeta,
}

// Event is one key press.
type Event struct {
	Key       Key
	Rune      rune
	Modifiers Modifier
}

// RuneEvent returns a character key event.
func RuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// SpecialEvent returns a non-character key event.
func SpecialEvent(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods}
}

// IsChar reports whether e types a printable character: a rune with no
// modifier other than Shift.
func (e Event) IsChar() bool {
	if e.Key != KeyRune || e.Rune == 0 || !unicode.IsPrint(e.Rune) {
		return false
	}
	return e.Modifiers&^ModShift == 0
}

// normalize folds an event into the form used as a binding key. Shift on a
// character is part of the character itself, except under Ctrl where the
// letter is lowered and Shift kept.
func (e Event) normalize() Event {
	if e.Key != KeyRune {
		return Event{Key: e.Key, Modifiers: e.Modifiers}
	}
	r := e.Rune
	mods := e.Modifiers
	if mods&(ModCtrl|ModAlt|ModMeta) != 0 {
		if unicode.IsUpper(r) {
			r = unicode.ToLower(r)
			mods |= ModShift
		}
	} else {
		mods &^= ModShift
	}
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// String returns the event in "Ctrl+Shift+Left" form, which Parse accepts.
func (e Event) String() string {
	n := e.normalize()
	var name string
	switch {
	case n.Key != KeyRune:
		name = n.Key.String()
	case n.Rune == ' ':
		name = "Space"
	case n.Rune == '+':
		name = "Plus"
	default:
		name = string(n.Rune)
	}
	if mods := n.Modifiers.String(); mods != "" {
		return mods + "+" + name
	}
	return name
}
