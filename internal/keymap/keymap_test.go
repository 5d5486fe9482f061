package keymap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dshills/xifront/internal/edit"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want Event
	}{
		{"a", RuneEvent('a', ModNone)},
		{"A", RuneEvent('A', ModNone)},
		{"Shift+a", RuneEvent('A', ModNone)},
		{"Enter", SpecialEvent(KeyEnter, ModNone)},
		{"<CR>", SpecialEvent(KeyEnter, ModNone)},
		{"Ctrl+S", RuneEvent('s', ModCtrl)},
		{"ctrl+s", RuneEvent('s', ModCtrl)},
		{"<C-s>", RuneEvent('s', ModCtrl)},
		{"Ctrl+Shift+Z", RuneEvent('z', ModCtrl|ModShift)},
		{"<C-S-Left>", SpecialEvent(KeyLeft, ModCtrl|ModShift)},
		{"Alt+F4", SpecialEvent(KeyF4, ModAlt)},
		{"Space", RuneEvent(' ', ModNone)},
		{"Ctrl+Plus", RuneEvent('+', ModCtrl)},
		{"+", RuneEvent('+', ModNone)},
		{"<", RuneEvent('<', ModNone)},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse("  "); !errors.Is(err, ErrEmptySpec) {
		t.Errorf("Parse(blank) error = %v, want ErrEmptySpec", err)
	}
	for _, spec := range []string{"Hyper+a", "Ctrl+", "<X-a>", "Ctrl+abc", "abc"} {
		if _, err := Parse(spec); !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidSpec", spec, err)
		}
	}
}

func TestEventStringRoundTrip(t *testing.T) {
	for _, ev := range []Event{
		RuneEvent('x', ModCtrl),
		RuneEvent('z', ModCtrl|ModShift),
		SpecialEvent(KeyPageDown, ModShift),
		RuneEvent(' ', ModAlt),
		RuneEvent('+', ModCtrl),
		RuneEvent('Q', ModNone),
	} {
		got, err := Parse(ev.String())
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", ev.String(), err)
		}
		if got != ev.normalize() {
			t.Errorf("Parse(%q) = %+v, want %+v", ev.String(), got, ev.normalize())
		}
	}
}

func TestTranslateDefaults(t *testing.T) {
	km := Default()
	tests := []struct {
		ev   Event
		want string
	}{
		{SpecialEvent(KeyDelete, ModNone), "delete_forward"},
		{SpecialEvent(KeyBackspace, ModNone), "delete_backward"},
		{SpecialEvent(KeyEnter, ModNone), "insert_newline"},
		{SpecialEvent(KeyLeft, ModShift), "move_left_and_modify_selection"},
		{SpecialEvent(KeyRight, ModCtrl), "move_word_right"},
		{SpecialEvent(KeyRight, ModCtrl|ModShift), "move_word_right_and_modify_selection"},
		{SpecialEvent(KeyPageDown, ModShift), "page_down_and_modify_selection"},
		{SpecialEvent(KeyHome, ModNone), "move_to_left_end_of_line"},
		{SpecialEvent(KeyEnd, ModNone), "move_to_right_end_of_line"},
		{SpecialEvent(KeyHome, ModShift), "move_to_left_end_of_line_and_modify_selection"},
		{SpecialEvent(KeyEnd, ModShift), "move_to_right_end_of_line_and_modify_selection"},
		{RuneEvent('a', ModCtrl), "select_all"},
		{RuneEvent('Z', ModCtrl), "redo"},
		{RuneEvent('z', ModCtrl|ModShift), "redo"},
		{RuneEvent('z', ModCtrl), "undo"},
		{RuneEvent('t', ModCtrl), "new_view"},
	}
	for _, tt := range tests {
		a, ok := km.Translate(tt.ev)
		if !ok {
			t.Errorf("Translate(%s) not bound", tt.ev)
			continue
		}
		if a.String() != tt.want {
			t.Errorf("Translate(%s) = %s, want %s", tt.ev, a, tt.want)
		}
	}
}

func TestTranslateCharacters(t *testing.T) {
	km := Default()

	a, ok := km.Translate(RuneEvent('Q', ModShift))
	if !ok || a.IsLocal() || a.Command.Name != edit.Insert {
		t.Fatalf("Translate(Q) = %+v, %v", a, ok)
	}
	if !reflect.DeepEqual(a.Command, edit.InsertChars("Q")) {
		t.Errorf("params = %+v", a.Command.Params)
	}

	if _, ok := km.Translate(RuneEvent('q', ModAlt)); ok {
		t.Error("Alt+q should not insert")
	}
	if _, ok := km.Translate(SpecialEvent(KeyF9, ModNone)); ok {
		t.Error("F9 should be unbound")
	}
}

func TestNewOverrides(t *testing.T) {
	km, err := New([]Binding{
		{Spec: "F9", Action: "undo"},
		{Spec: "Ctrl+T", Action: ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	if a, ok := km.Translate(SpecialEvent(KeyF9, ModNone)); !ok || a.Command.Name != edit.Undo {
		t.Errorf("F9 = %+v, %v", a, ok)
	}
	if _, ok := km.Translate(RuneEvent('t', ModCtrl)); ok {
		t.Error("Ctrl+T still bound")
	}
	if km.Len() != Default().Len() {
		t.Errorf("Len() = %d, want %d", km.Len(), Default().Len())
	}
}

func TestNewRejectsUnknownAction(t *testing.T) {
	if _, err := New([]Binding{{Spec: "F9", Action: "launch_rockets"}}); err == nil {
		t.Error("expected error for unknown action")
	}
	if _, err := New([]Binding{{Spec: "F9", Action: "insert"}}); err == nil {
		t.Error("expected error for parameterized command")
	}
}

func TestLoadScript(t *testing.T) {
	src := `
bind("F2", "save")
unbind("Ctrl+W")
local keys = {}
keys["Ctrl+D"] = "delete_forward"
keys["Ctrl+A"] = false
return keys
`
	km, err := LoadScript(context.Background(), "test.lua", src)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}

	if a, _ := km.Translate(SpecialEvent(KeyF2, ModNone)); a.Local != LocalSave {
		t.Errorf("F2 = %+v", a)
	}
	if a, _ := km.Translate(RuneEvent('d', ModCtrl)); a.Command.Name != edit.DeleteForward {
		t.Errorf("Ctrl+D = %+v", a)
	}
	if _, ok := km.Translate(RuneEvent('w', ModCtrl)); ok {
		t.Error("Ctrl+W still bound")
	}
	if _, ok := km.Translate(RuneEvent('a', ModCtrl)); ok {
		t.Error("Ctrl+A still bound")
	}
}

func TestLoadScriptErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":       `bind("F2",`,
		"runtime":      `error("boom")`,
		"bad return":   `return 42`,
		"bad value":    `return { F2 = 3 }`,
		"bad action":   `bind("F2", "nope")`,
		"no io":        `io.open("/etc/passwd")`,
		"no os":        `os.exit(1)`,
		"no require":   `require("os")`,
		"bad key spec": `bind("Hyper+x", "undo")`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadScript(context.Background(), "test.lua", src); !errors.Is(err, ErrBadScript) {
				t.Errorf("LoadScript() error = %v, want ErrBadScript", err)
			}
		})
	}
}

func TestLoadScriptTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadScript(ctx, "loop.lua", `while true do end`); err == nil {
		t.Error("expected error from a cancelled script")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.lua")
	if err := os.WriteFile(path, []byte(`return { F5 = "undo" }`), 0o644); err != nil {
		t.Fatal(err)
	}
	km, err := LoadFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if a, ok := km.Translate(SpecialEvent(KeyF5, ModNone)); !ok || a.Command.Name != edit.Undo {
		t.Errorf("F5 = %+v, %v", a, ok)
	}

	if _, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestEditModifiers(t *testing.T) {
	tests := []struct {
		in   Modifier
		want edit.Modifiers
	}{
		{ModNone, 0},
		{ModShift, edit.ModShift},
		{ModCtrl | ModAlt, edit.ModControl | edit.ModAlt},
		{ModMeta, 0},
		{ModShift | ModCtrl | ModAlt | ModMeta, edit.ModShift | edit.ModControl | edit.ModAlt},
	}
	for _, tt := range tests {
		if got := EditModifiers(tt.in); got != tt.want {
			t.Errorf("EditModifiers(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
