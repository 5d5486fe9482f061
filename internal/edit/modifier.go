package edit

import "strings"

// Modifiers is the modifier bit set the engine expects in click and drag
// commands. Its layout differs from any host toolkit's; hosts translate.
type Modifiers uint8

// Engine modifier bits.
const (
	ModShift   Modifiers = 1 << 1
	ModControl Modifiers = 1 << 2
	ModAlt     Modifiers = 1 << 3
)

// Has reports whether m contains mod.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod != 0
}

// String returns a form like "shift+control".
func (m Modifiers) String() string {
	var parts []string
	if m.Has(ModShift) {
		parts = append(parts, "shift")
	}
	if m.Has(ModControl) {
		parts = append(parts, "control")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "alt")
	}
	return strings.Join(parts, "+")
}
