package linecache

import (
	"encoding/json"
	"fmt"
)

// Opcode names one update instruction.
type Opcode string

// Opcodes sent by the engine.
const (
	OpInvalidate Opcode = "invalidate"
	OpInsert     Opcode = "ins"
	OpCopy       Opcode = "copy"
	OpUpdate     Opcode = "update"
	OpSkip       Opcode = "skip"
)

// Valid reports whether c is a known opcode.
func (c Opcode) Valid() bool {
	switch c {
	case OpInvalidate, OpInsert, OpCopy, OpUpdate, OpSkip:
		return true
	}
	return false
}

// Op is one instruction of an update batch. Lines is only used by
// OpInsert (new lines) and OpUpdate (replacement annotations).
type Op struct {
	Code  Opcode
	N     int
	Lines []Line
}

// Invalidate returns an invalidate op.
func Invalidate(n int) Op { return Op{Code: OpInvalidate, N: n} }

// Insert returns an ins op carrying lines.
func Insert(lines ...Line) Op { return Op{Code: OpInsert, N: len(lines), Lines: lines} }

// Copy returns a copy op.
func Copy(n int) Op { return Op{Code: OpCopy, N: n} }

// Update returns an update op carrying replacement annotations.
func Update(lines ...Line) Op { return Op{Code: OpUpdate, N: len(lines), Lines: lines} }

// Skip returns a skip op.
func Skip(n int) Op { return Op{Code: OpSkip, N: n} }

// String returns a short debug form.
func (o Op) String() string {
	return fmt.Sprintf("%s(%d)", o.Code, o.N)
}

type wireLine struct {
	Text   *string `json:"text"`
	Cursor []int   `json:"cursor"`
	Styles []int   `json:"styles"`
}

type wireOp struct {
	Op    string     `json:"op"`
	N     *int       `json:"n"`
	Lines []wireLine `json:"lines"`
}

// DecodeOps decodes the "ops" array of an update notification. Structural
// problems (unknown opcode, missing count, bad style triples) are reported
// as *OpError; payload length checks happen in Apply.
func DecodeOps(raw json.RawMessage) ([]Op, error) {
	var wire []wireOp
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &OpError{Index: -1, Err: fmt.Errorf("%w: %v", ErrMalformedOp, err)}
	}

	ops := make([]Op, 0, len(wire))
	for i, w := range wire {
		code := Opcode(w.Op)
		if !code.Valid() {
			return nil, &OpError{Index: i, Code: code, Err: ErrUnknownOpcode}
		}
		if w.N == nil {
			return nil, &OpError{Index: i, Code: code, Err: ErrMissingCount}
		}

		op := Op{Code: code, N: *w.N}
		if len(w.Lines) > 0 {
			op.Lines = make([]Line, 0, len(w.Lines))
			for j, wl := range w.Lines {
				line, err := wl.decode(code)
				if err != nil {
					return nil, &OpError{Index: i, Code: code, Err: fmt.Errorf("%w: line %d: %v", ErrMalformedOp, j, err)}
				}
				op.Lines = append(op.Lines, line)
			}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (w wireLine) decode(code Opcode) (Line, error) {
	styles, err := DecodeStyles(w.Styles)
	if err != nil {
		return Line{}, err
	}
	if w.Text == nil {
		// Update ops carry annotations only.
		if code != OpUpdate {
			return Line{}, fmt.Errorf("missing text")
		}
		return Line{Known: true, Cursor: w.Cursor, Styles: styles}, nil
	}
	return KnownLine(*w.Text, w.Cursor, styles), nil
}
