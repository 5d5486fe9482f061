package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/xifront/internal/edit"
	"github.com/dshills/xifront/internal/keymap"
)

// specialKeys maps tcell's non-character keys to keymap keys.
var specialKeys = map[tcell.Key]keymap.Key{
	tcell.KeyEscape:     keymap.KeyEscape,
	tcell.KeyEnter:      keymap.KeyEnter,
	tcell.KeyTab:        keymap.KeyTab,
	tcell.KeyBacktab:    keymap.KeyTab,
	tcell.KeyBackspace:  keymap.KeyBackspace,
	tcell.KeyBackspace2: keymap.KeyBackspace,
	tcell.KeyDelete:     keymap.KeyDelete,
	tcell.KeyInsert:     keymap.KeyInsert,
	tcell.KeyHome:       keymap.KeyHome,
	tcell.KeyEnd:        keymap.KeyEnd,
	tcell.KeyPgUp:       keymap.KeyPageUp,
	tcell.KeyPgDn:       keymap.KeyPageDown,
	tcell.KeyUp:         keymap.KeyUp,
	tcell.KeyDown:       keymap.KeyDown,
	tcell.KeyLeft:       keymap.KeyLeft,
	tcell.KeyRight:      keymap.KeyRight,
	tcell.KeyF1:         keymap.KeyF1,
	tcell.KeyF2:         keymap.KeyF2,
	tcell.KeyF3:         keymap.KeyF3,
	tcell.KeyF4:         keymap.KeyF4,
	tcell.KeyF5:         keymap.KeyF5,
	tcell.KeyF6:         keymap.KeyF6,
	tcell.KeyF7:         keymap.KeyF7,
	tcell.KeyF8:         keymap.KeyF8,
	tcell.KeyF9:         keymap.KeyF9,
	tcell.KeyF10:        keymap.KeyF10,
	tcell.KeyF11:        keymap.KeyF11,
	tcell.KeyF12:        keymap.KeyF12,
}

// modTable translates tcell modifier bits one by one. Bits missing from the
// table are dropped.
var modTable = []struct {
	tcell  tcell.ModMask
	keymap keymap.Modifier
}{
	{tcell.ModShift, keymap.ModShift},
	{tcell.ModCtrl, keymap.ModCtrl},
	{tcell.ModAlt, keymap.ModAlt},
	{tcell.ModMeta, keymap.ModMeta},
}

func convertMods(m tcell.ModMask) keymap.Modifier {
	var out keymap.Modifier
	for _, row := range modTable {
		if m&row.tcell != 0 {
			out |= row.keymap
		}
	}
	return out
}

// mouseMods converts the modifiers of a mouse event to the engine's bits.
func mouseMods(m tcell.ModMask) edit.Modifiers {
	return keymap.EditModifiers(convertMods(m))
}

// KeyEvent converts a tcell key event. Control letters, which tcell reports
// as their own key codes, become the letter with Ctrl. The second result is
// false for keys the front end has no name for.
func KeyEvent(ev *tcell.EventKey) (keymap.Event, bool) {
	mods := convertMods(ev.Modifiers())
	k := ev.Key()

	switch {
	case k == tcell.KeyRune:
		return keymap.RuneEvent(ev.Rune(), mods), true
	case k == tcell.KeyCtrlSpace:
		return keymap.RuneEvent(' ', mods|keymap.ModCtrl), true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return keymap.RuneEvent('a'+rune(k-tcell.KeyCtrlA), mods|keymap.ModCtrl), true
	}

	if sk, ok := specialKeys[k]; ok {
		if k == tcell.KeyBacktab {
			mods |= keymap.ModShift
		}
		return keymap.SpecialEvent(sk, mods), true
	}
	return keymap.Event{}, false
}
