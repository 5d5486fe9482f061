package linecache

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDocument_ApplyFailureLeavesCacheUnchanged(t *testing.T) {
	doc := NewDocument()
	if _, err := doc.Apply([]Op{Invalidate(1), Insert(known("a", "b", "c")...), Invalidate(2)}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	before := doc.Snapshot()
	rev := doc.Revision()

	_, err := doc.Apply([]Op{Copy(1), {Code: OpInsert, N: 3, Lines: known("x", "y")}})
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("Apply() error = %v, want ErrShortPayload", err)
	}

	after := doc.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("cache changed on failure:\nbefore %+v\nafter  %+v", before, after)
	}
	if doc.Revision() != rev {
		t.Errorf("Revision() = %d, want %d", doc.Revision(), rev)
	}
}

func TestDocument_ApplyReportsChange(t *testing.T) {
	doc := NewDocument()
	change, err := doc.Apply([]Op{Invalidate(4), Insert(known("a", "b")...), Invalidate(3)})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := Change{Revision: 1, InvalidBefore: 4, InvalidAfter: 3, Total: 9}
	if change != want {
		t.Errorf("Apply() = %+v, want %+v", change, want)
	}
	if doc.Len() != 9 {
		t.Errorf("Len() = %d, want 9", doc.Len())
	}
	if l := doc.Line(4); !l.Known || l.Text != "a" {
		t.Errorf("Line(4) = %v", l)
	}
	if l := doc.Line(0); l.Known {
		t.Errorf("Line(0) = %v, want unknown", l)
	}
}

func TestDocument_Missing(t *testing.T) {
	doc := NewDocument()
	_, err := doc.Apply([]Op{
		Invalidate(2),
		Insert(known("a", "b")...),
		Invalidate(2),
		Insert(known("c")...),
		Invalidate(3),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	// 0 1 | a b U U c | 7 8 9

	tests := []struct {
		first, last int
		want        []Range
	}{
		{0, 10, []Range{{0, 2}, {4, 6}, {7, 10}}},
		{2, 4, nil},
		{3, 8, []Range{{4, 6}, {7, 8}}},
		{-5, 50, []Range{{0, 2}, {4, 6}, {7, 10}}},
	}
	for _, tt := range tests {
		got := doc.Missing(tt.first, tt.last)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Missing(%d, %d) = %v, want %v", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestDocument_SnapshotIsCopy(t *testing.T) {
	doc := NewDocument()
	_, _ = doc.Apply([]Op{Insert(known("a")...)})

	snap := doc.Snapshot()
	snap.Lines[0].Text = "changed"
	if doc.Line(0).Text != "a" {
		t.Error("Snapshot aliases the live cache")
	}
}

func TestDecodeOps(t *testing.T) {
	raw := json.RawMessage(`[
		{"op":"invalidate","n":2},
		{"op":"ins","n":1,"lines":[{"text":"hi\n","cursor":[2],"styles":[0,2,1,1,1,3]}]},
		{"op":"copy","n":5},
		{"op":"update","n":1,"lines":[{"cursor":[0]}]},
		{"op":"skip","n":3}
	]`)

	ops, err := DecodeOps(raw)
	if err != nil {
		t.Fatalf("DecodeOps() error = %v", err)
	}
	if len(ops) != 5 {
		t.Fatalf("len(ops) = %d, want 5", len(ops))
	}

	ins := ops[1]
	if ins.Code != OpInsert || ins.N != 1 || ins.Lines[0].Text != "hi\n" {
		t.Errorf("ins op = %+v", ins)
	}
	wantSpans := []StyleSpan{{Start: 0, End: 2, StyleID: 1}, {Start: 3, End: 4, StyleID: 3}}
	if !reflect.DeepEqual(ins.Lines[0].Styles, wantSpans) {
		t.Errorf("styles = %+v, want %+v", ins.Lines[0].Styles, wantSpans)
	}
	if upd := ops[3]; upd.Lines[0].Text != "" || upd.Lines[0].Cursor[0] != 0 {
		t.Errorf("update op = %+v", upd)
	}
}

func TestDecodeOps_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{"unknown opcode", `[{"op":"move","n":1}]`, ErrUnknownOpcode},
		{"missing count", `[{"op":"copy"}]`, ErrMissingCount},
		{"not an array", `{"op":"copy"}`, ErrMalformedOp},
		{"ins without text", `[{"op":"ins","n":1,"lines":[{"cursor":[0]}]}]`, ErrMalformedOp},
		{"bad styles", `[{"op":"ins","n":1,"lines":[{"text":"a","styles":[0,1]}]}]`, ErrMalformedOp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOps(json.RawMessage(tt.raw))
			if !errors.Is(err, tt.err) {
				t.Errorf("DecodeOps() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestDecodeStyles(t *testing.T) {
	spans, err := DecodeStyles([]int{2, 3, 7, 0, 1, 8})
	if err != nil {
		t.Fatalf("DecodeStyles() error = %v", err)
	}
	want := []StyleSpan{{Start: 2, End: 5, StyleID: 7}, {Start: 5, End: 6, StyleID: 8}}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("DecodeStyles() = %+v, want %+v", spans, want)
	}
	if _, err := DecodeStyles([]int{0, -1, 0}); err == nil {
		t.Error("DecodeStyles() accepted a negative length")
	}
}
