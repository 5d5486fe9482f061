package keymap

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse reads a key specification.
//
// Accepted forms:
//   - a single character or key name: "a", "Enter", "PageUp"
//   - modifier chains: "Ctrl+S", "Ctrl+Shift+Left", "Alt+F4"
//   - Vim notation: "<C-s>", "<C-S-Left>", "<CR>", "<Esc>"
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}

	if len(spec) > 2 && strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseChain(spec[1:len(spec)-1], "-")
	}
	if len(spec) > 1 && strings.Contains(spec, "+") {
		return parseChain(spec, "+")
	}
	return parseKey(spec, ModNone)
}

func parseChain(spec, sep string) (Event, error) {
	parts := strings.Split(spec, sep)
	keyPart := parts[len(parts)-1]
	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod, ok := modifierNames[strings.ToLower(strings.TrimSpace(p))]
		if !ok {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods |= mod
	}
	return parseKey(keyPart, mods)
}

func parseKey(name string, mods Modifier) (Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, fmt.Errorf("%w: missing key", ErrInvalidSpec)
	}
	lower := strings.ToLower(name)
	if k, ok := keyAliases[lower]; ok {
		return SpecialEvent(k, mods), nil
	}
	if r, ok := runeAliases[lower]; ok {
		return runeSpec(r, mods), nil
	}

	runes := []rune(name)
	if len(runes) != 1 {
		return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, name)
	}
	r := runes[0]
	if !unicode.IsPrint(r) {
		return Event{}, fmt.Errorf("%w: unprintable key %q", ErrInvalidSpec, name)
	}
	return runeSpec(r, mods), nil
}

// runeSpec builds the binding for a character named in a spec. Under Ctrl,
// Alt or Meta the letter case is ignored and only an explicit Shift counts;
// otherwise Shift selects the upper-case character.
func runeSpec(r rune, mods Modifier) Event {
	if mods&(ModCtrl|ModAlt|ModMeta) != 0 {
		return RuneEvent(unicode.ToLower(r), mods)
	}
	if mods.Has(ModShift) {
		r = unicode.ToUpper(r)
	}
	return RuneEvent(r, ModNone)
}

// MustParse is Parse for specs known to be valid.
func MustParse(spec string) Event {
	e, err := Parse(spec)
	if err != nil {
		panic(fmt.Sprintf("keymap: %q: %v", spec, err))
	}
	return e
}
