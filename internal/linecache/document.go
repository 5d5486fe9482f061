package linecache

// Range is a half-open range [Start, End) of document lines.
type Range struct {
	Start int
	End   int
}

// Len returns the number of lines in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Change summarizes a successfully applied update batch.
type Change struct {
	Revision      uint64
	InvalidBefore int
	InvalidAfter  int
	Total         int
}

// Document is the line cache of one view. It is owned by the view's
// registry entry and must only be touched from the event loop. The cache
// changes only through Apply.
type Document struct {
	cache    Cache
	revision uint64
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Apply runs an update batch. The new cache is built aside and swapped in
// only if every op succeeds; on error the document is unchanged.
func (d *Document) Apply(ops []Op) (Change, error) {
	next, err := Apply(d.cache, ops)
	if err != nil {
		return Change{}, err
	}
	d.cache = next
	d.revision++
	return Change{
		Revision:      d.revision,
		InvalidBefore: next.InvalidBefore,
		InvalidAfter:  next.InvalidAfter,
		Total:         next.Len(),
	}, nil
}

// Len returns the number of document lines.
func (d *Document) Len() int {
	return d.cache.Len()
}

// Line returns document line i. Lines outside the cache are unknown.
func (d *Document) Line(i int) Line {
	return d.cache.At(i)
}

// Revision counts applied batches.
func (d *Document) Revision() uint64 {
	return d.revision
}

// Snapshot returns a copy of the cache.
func (d *Document) Snapshot() Cache {
	lines := make([]Line, len(d.cache.Lines))
	copy(lines, d.cache.Lines)
	return Cache{
		InvalidBefore: d.cache.InvalidBefore,
		Lines:         lines,
		InvalidAfter:  d.cache.InvalidAfter,
	}
}

// Missing returns the runs of unknown lines within [first, last), clipped
// to the document. The caller re-requests them from the engine.
func (d *Document) Missing(first, last int) []Range {
	if first < 0 {
		first = 0
	}
	if n := d.Len(); last > n {
		last = n
	}

	var out []Range
	start := -1
	for i := first; i < last; i++ {
		if !d.cache.At(i).Known {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, Range{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, Range{Start: start, End: last})
	}
	return out
}
