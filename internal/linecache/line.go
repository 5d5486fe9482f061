// Package linecache keeps the per-view cache of lines received from the
// engine and applies the engine's update operations to it.
//
// The engine never sends the whole document. Each "update" notification
// carries an ordered list of ops describing how to build the new cache
// from the old one: copy runs of old lines, skip deleted ones, insert new
// literal lines, and mark regions whose content is not known locally.
package linecache

import "fmt"

// StyleSpan applies a style to the byte range [Start, End) of a line.
type StyleSpan struct {
	Start   int
	End     int
	StyleID int
}

// Line is one slot of the cache. A slot is either known, with its text and
// annotations, or unknown: a placeholder for a line not fetched yet.
type Line struct {
	Known  bool
	Text   string
	Cursor []int
	Styles []StyleSpan
}

// Unknown returns a placeholder slot.
func Unknown() Line {
	return Line{}
}

// KnownLine returns a known slot.
func KnownLine(text string, cursor []int, styles []StyleSpan) Line {
	return Line{Known: true, Text: text, Cursor: cursor, Styles: styles}
}

// Equal reports whether two slots hold the same content.
func (l Line) Equal(o Line) bool {
	if l.Known != o.Known || l.Text != o.Text {
		return false
	}
	if len(l.Cursor) != len(o.Cursor) || len(l.Styles) != len(o.Styles) {
		return false
	}
	for i := range l.Cursor {
		if l.Cursor[i] != o.Cursor[i] {
			return false
		}
	}
	for i := range l.Styles {
		if l.Styles[i] != o.Styles[i] {
			return false
		}
	}
	return true
}

// String returns a short debug form.
func (l Line) String() string {
	if !l.Known {
		return "<unknown>"
	}
	return fmt.Sprintf("%q", l.Text)
}

// DecodeStyles converts the engine's flat style triples into spans.
// Each triple is (start, length, style id) where start is relative to the
// end of the previous span.
func DecodeStyles(flat []int) ([]StyleSpan, error) {
	if len(flat)%3 != 0 {
		return nil, fmt.Errorf("style list length %d is not a multiple of 3", len(flat))
	}
	if len(flat) == 0 {
		return nil, nil
	}

	spans := make([]StyleSpan, 0, len(flat)/3)
	end := 0
	for i := 0; i < len(flat); i += 3 {
		start := end + flat[i]
		length := flat[i+1]
		if start < 0 || length < 0 {
			return nil, fmt.Errorf("style span %d has negative bounds", i/3)
		}
		end = start + length
		spans = append(spans, StyleSpan{Start: start, End: end, StyleID: flat[i+2]})
	}
	return spans, nil
}
