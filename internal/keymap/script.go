package keymap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// ScriptTimeout bounds the run time of a keymap script.
const ScriptTimeout = 2 * time.Second

var ErrBadScript = errors.New("keymap script")

// LoadFile runs a keymap script from path and returns the keymap it
// describes. See LoadScript.
func LoadFile(ctx context.Context, path string) (*Keymap, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap script: %w", err)
	}
	return LoadScript(ctx, path, string(src))
}

// LoadScript runs a Lua keymap script. The script may call
//
//	bind("Ctrl+D", "delete_forward")
//	unbind("Ctrl+T")
//
// and may also return a table of spec = action pairs, applied after the
// calls in key order. A value of false in the returned table unbinds.
// Only the base, table, string and math libraries are available.
func LoadScript(ctx context.Context, name, src string) (*Keymap, error) {
	overrides, err := runScript(ctx, name, src)
	if err != nil {
		return nil, err
	}
	km, err := New(overrides)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrBadScript, name, err)
	}
	return km, nil
}

func runScript(ctx context.Context, name, src string) (bindings []Binding, err error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)

	ctx, cancel := context.WithTimeout(ctx, ScriptTimeout)
	defer cancel()
	L.SetContext(ctx)

	L.SetGlobal("bind", L.NewFunction(func(L *lua.LState) int {
		bindings = append(bindings, Binding{Spec: L.CheckString(1), Action: L.CheckString(2)})
		return 0
	}))
	L.SetGlobal("unbind", L.NewFunction(func(L *lua.LState) int {
		bindings = append(bindings, Binding{Spec: L.CheckString(1)})
		return 0
	}))

	fn, err := L.LoadString(src)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrBadScript, name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrBadScript, name, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	switch tbl := ret.(type) {
	case *lua.LNilType:
	case *lua.LTable:
		returned, err := tableBindings(tbl)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrBadScript, name, err)
		}
		bindings = append(bindings, returned...)
	default:
		return nil, fmt.Errorf("%w %s: script returned %s, want a table", ErrBadScript, name, ret.Type())
	}
	return bindings, nil
}

func tableBindings(tbl *lua.LTable) ([]Binding, error) {
	var out []Binding
	var bad error
	tbl.ForEach(func(k, v lua.LValue) {
		if bad != nil {
			return
		}
		spec, ok := k.(lua.LString)
		if !ok {
			bad = fmt.Errorf("table key %s is not a string", k.String())
			return
		}
		switch val := v.(type) {
		case lua.LString:
			out = append(out, Binding{Spec: string(spec), Action: string(val)})
		case lua.LBool:
			if val {
				bad = fmt.Errorf("%s: true is not an action", spec)
				return
			}
			out = append(out, Binding{Spec: string(spec)})
		default:
			bad = fmt.Errorf("%s: action must be a string or false", spec)
		}
	})
	if bad != nil {
		return nil, bad
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spec < out[j].Spec })
	return out, nil
}

// openSafeLibs opens the libraries a keymap script may use. io, os,
// package and debug stay closed.
func openSafeLibs(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}
