package linecache

// Cache is the visible-line state of one view.
//
// InvalidBefore counts unknown lines above Lines and InvalidAfter counts
// unknown lines below it; neither run is materialized. Lines may itself
// contain unknown slots between known ones.
type Cache struct {
	InvalidBefore int
	Lines         []Line
	InvalidAfter  int
}

// Len returns the number of document lines the cache describes.
func (c Cache) Len() int {
	return c.InvalidBefore + len(c.Lines) + c.InvalidAfter
}

// At returns the slot for document line i. Lines outside the materialized
// range are unknown.
func (c Cache) At(i int) Line {
	j := i - c.InvalidBefore
	if j < 0 || j >= len(c.Lines) {
		return Unknown()
	}
	return c.Lines[j]
}

// MaxLines bounds the length of a cache built by Apply. Unknown runs in
// the middle of a document are materialized, so the bound also caps the
// memory one update can claim.
const MaxLines = 1 << 22

// builder accumulates the output of one update batch.
type builder struct {
	old    Cache
	oldIdx int

	lines   []Line
	emitted bool

	before  int
	pending int // invalid-after run not yet flushed
}

// Apply runs ops against old and returns the new cache. old is never
// modified; on error the returned cache is the zero value.
//
// Ops are processed strictly in order:
//   - invalidate(n) adds n unknown lines. Before any line has been emitted
//     they count toward InvalidBefore; afterwards they accumulate as a
//     pending invalid-after run.
//   - ins(n), copy(n) and update(n) emit lines. Each first flushes the
//     pending run as unknown slots.
//   - copy(n) and update(n) read n old lines; skip(n) drops n old lines.
//
// A pending run left at the end becomes InvalidAfter. Old lines not read
// by the end of the batch are dropped.
//
// ins and update must carry exactly n lines, and a batch whose result
// would exceed MaxLines is rejected.
func Apply(old Cache, ops []Op) (Cache, error) {
	b := &builder{old: old}
	for i, op := range ops {
		if err := b.apply(op); err != nil {
			return Cache{}, &OpError{Index: i, Code: op.Code, Err: err}
		}
	}
	return Cache{
		InvalidBefore: b.before,
		Lines:         b.lines,
		InvalidAfter:  b.pending,
	}, nil
}

func (b *builder) apply(op Op) error {
	if op.N < 0 || op.N > MaxLines {
		return ErrBadCount
	}
	if op.Code != OpSkip && b.size() > MaxLines-op.N {
		return ErrTooLong
	}

	switch op.Code {
	case OpInvalidate:
		if b.emitted {
			b.pending += op.N
		} else {
			b.before += op.N
		}

	case OpInsert:
		if err := checkPayload(op); err != nil {
			return err
		}
		b.flush()
		for _, l := range op.Lines {
			l.Known = true
			b.emit(l)
		}

	case OpCopy:
		if err := b.checkRead(op.N); err != nil {
			return err
		}
		b.flush()
		for k := 0; k < op.N; k++ {
			b.emit(b.old.At(b.oldIdx))
			b.oldIdx++
		}

	case OpUpdate:
		if err := checkPayload(op); err != nil {
			return err
		}
		if err := b.checkRead(op.N); err != nil {
			return err
		}
		b.flush()
		for k := 0; k < op.N; k++ {
			l := b.old.At(b.oldIdx)
			if l.Known {
				l.Cursor = op.Lines[k].Cursor
				l.Styles = op.Lines[k].Styles
			}
			b.emit(l)
			b.oldIdx++
		}

	case OpSkip:
		if err := b.checkRead(op.N); err != nil {
			return err
		}
		b.oldIdx += op.N

	default:
		return ErrUnknownOpcode
	}
	return nil
}

// size is the length of the cache built so far, pending run included.
func (b *builder) size() int {
	return b.before + len(b.lines) + b.pending
}

func checkPayload(op Op) error {
	switch {
	case len(op.Lines) < op.N:
		return ErrShortPayload
	case len(op.Lines) > op.N:
		return ErrLongPayload
	}
	return nil
}

func (b *builder) checkRead(n int) error {
	if n > b.old.Len()-b.oldIdx {
		return ErrPastEnd
	}
	return nil
}

// flush materializes the pending invalid-after run.
func (b *builder) flush() {
	for ; b.pending > 0; b.pending-- {
		b.lines = append(b.lines, Unknown())
	}
}

func (b *builder) emit(l Line) {
	b.lines = append(b.lines, l)
	b.emitted = true
}
