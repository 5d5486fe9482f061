// Package keymap translates key presses into edit commands and local
// front-end actions.
//
// A Keymap is built once from the default table plus optional overrides and
// is not modified afterwards; a reload builds a new Keymap.
package keymap

import (
	"fmt"
	"sort"

	"github.com/dshills/xifront/internal/edit"
)

// Local is a front-end action that is handled without the engine's edit
// catalogue.
type Local string

const (
	LocalNewView   Local = "new_view"
	LocalCloseView Local = "close_view"
	LocalSave      Local = "save"
	LocalQuit      Local = "quit"
	LocalNextTab   Local = "next_tab"
	LocalPrevTab   Local = "prev_tab"
	LocalPaste     Local = "paste"
)

var locals = map[Local]bool{
	LocalNewView:   true,
	LocalCloseView: true,
	LocalSave:      true,
	LocalQuit:      true,
	LocalNextTab:   true,
	LocalPrevTab:   true,
	LocalPaste:     true,
}

// Action is what a key press resolves to: an edit command or a local action.
type Action struct {
	Command edit.Command
	Local   Local
}

// IsLocal reports whether a is a local action.
func (a Action) IsLocal() bool {
	return a.Local != ""
}

func (a Action) String() string {
	if a.IsLocal() {
		return string(a.Local)
	}
	return string(a.Command.Name)
}

// ResolveAction maps an action name to an Action. Names are either local
// actions or parameterless edit commands.
func ResolveAction(name string) (Action, error) {
	if locals[Local(name)] {
		return Action{Local: Local(name)}, nil
	}
	cmd, err := edit.Lookup(name)
	if err != nil {
		return Action{}, err
	}
	return Action{Command: cmd}, nil
}

// defaultBindings is the built-in table.
var defaultBindings = map[string]string{
	"Delete":    string(edit.DeleteForward),
	"Backspace": string(edit.DeleteBackward),
	"Enter":     string(edit.InsertNewline),
	"Tab":       string(edit.InsertTab),

	"Up":    string(edit.MoveUp),
	"Down":  string(edit.MoveDown),
	"Left":  string(edit.MoveLeft),
	"Right": string(edit.MoveRight),

	"Shift+Up":    string(edit.MoveUpAndModifySelection),
	"Shift+Down":  string(edit.MoveDownAndModifySelection),
	"Shift+Left":  string(edit.MoveLeftAndModifySelection),
	"Shift+Right": string(edit.MoveRightAndModifySelection),

	"Ctrl+Left":        string(edit.MoveWordLeft),
	"Ctrl+Right":       string(edit.MoveWordRight),
	"Ctrl+Shift+Left":  string(edit.MoveWordLeftAndModifySelection),
	"Ctrl+Shift+Right": string(edit.MoveWordRightAndModifySelection),

	"Home":            string(edit.MoveToLeftEndOfLine),
	"End":             string(edit.MoveToRightEndOfLine),
	"Shift+Home":      string(edit.MoveToLeftEndOfLineAndModify),
	"Shift+End":       string(edit.MoveToRightEndOfLineAndModify),
	"Ctrl+Home":       string(edit.MoveToBeginningOfDocument),
	"Ctrl+End":        string(edit.MoveToEndOfDocument),
	"Ctrl+Shift+Home": string(edit.MoveToBeginningOfDocumentAndModify),
	"Ctrl+Shift+End":  string(edit.MoveToEndOfDocumentAndModify),

	"PageUp":         string(edit.PageUp),
	"PageDown":       string(edit.PageDown),
	"Shift+PageUp":   string(edit.PageUpAndModifySelection),
	"Shift+PageDown": string(edit.PageDownAndModifySelection),

	"Ctrl+A":       string(edit.SelectAll),
	"Ctrl+C":       string(edit.Copy),
	"Ctrl+X":       string(edit.Cut),
	"Ctrl+V":       string(LocalPaste),
	"Ctrl+Z":       string(edit.Undo),
	"Ctrl+Shift+Z": string(edit.Redo),
	"Ctrl+Y":       string(edit.Redo),

	"Ctrl+T":        string(LocalNewView),
	"Ctrl+W":        string(LocalCloseView),
	"Ctrl+S":        string(LocalSave),
	"Ctrl+Q":        string(LocalQuit),
	"Alt+Right":     string(LocalNextTab),
	"Alt+Left":      string(LocalPrevTab),
	"Ctrl+PageDown": string(LocalNextTab),
	"Ctrl+PageUp":   string(LocalPrevTab),
}

// Keymap is an immutable binding table.
type Keymap struct {
	bindings map[Event]Action
}

// Default returns the built-in keymap.
func Default() *Keymap {
	km, err := New(nil)
	if err != nil {
		panic(err)
	}
	return km
}

// New builds a keymap from the default table with overrides applied in
// order. An override with an empty action removes the binding.
func New(overrides []Binding) (*Keymap, error) {
	km := &Keymap{bindings: make(map[Event]Action, len(defaultBindings))}
	for spec, name := range defaultBindings {
		if err := km.bind(spec, name); err != nil {
			return nil, fmt.Errorf("default binding %q: %w", spec, err)
		}
	}
	for _, b := range overrides {
		if err := km.bind(b.Spec, b.Action); err != nil {
			return nil, fmt.Errorf("binding %q: %w", b.Spec, err)
		}
	}
	return km, nil
}

// Binding is one key specification bound to an action name.
type Binding struct {
	Spec   string
	Action string
}

func (km *Keymap) bind(spec, name string) error {
	ev, err := Parse(spec)
	if err != nil {
		return err
	}
	if name == "" {
		delete(km.bindings, ev)
		return nil
	}
	action, err := ResolveAction(name)
	if err != nil {
		return err
	}
	km.bindings[ev] = action
	return nil
}

// Translate resolves a key press. Printable characters without a binding
// become an insert command.
func (km *Keymap) Translate(e Event) (Action, bool) {
	if a, ok := km.bindings[e.normalize()]; ok {
		return a, true
	}
	if e.IsChar() {
		return Action{Command: edit.InsertChars(string(e.Rune))}, true
	}
	return Action{}, false
}

// Bindings lists the table in spec order, for display and debugging.
func (km *Keymap) Bindings() []Binding {
	out := make([]Binding, 0, len(km.bindings))
	for ev, a := range km.bindings {
		out = append(out, Binding{Spec: ev.String(), Action: a.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spec < out[j].Spec })
	return out
}

// Len returns the number of bindings.
func (km *Keymap) Len() int {
	return len(km.bindings)
}

// EditModifiers converts held modifiers to the engine's modifier bits.
// Meta has no engine equivalent and is dropped.
func EditModifiers(m Modifier) edit.Modifiers {
	var out edit.Modifiers
	for _, t := range modifierTable {
		if m.Has(t.key) {
			out |= t.edit
		}
	}
	return out
}

var modifierTable = []struct {
	key  Modifier
	edit edit.Modifiers
}{
	{ModShift, edit.ModShift},
	{ModCtrl, edit.ModControl},
	{ModAlt, edit.ModAlt},
}
