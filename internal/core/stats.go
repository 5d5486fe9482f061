package core

import (
	"sync"

	"github.com/dshills/xifront/internal/dispatch"
)

// Stats counts what a session has seen.
type Stats struct {
	Received uint64
	Rejected uint64
	Applied  uint64
	Stale    uint64
	// ByKind counts rejected messages by dispatch.Kind name.
	ByKind map[string]uint64

	Pending int
	Views   int
}

type stats struct {
	mu sync.Mutex
	s  Stats
}

func newStats() *stats {
	return &stats{s: Stats{ByKind: make(map[string]uint64)}}
}

func (st *stats) received() {
	st.mu.Lock()
	st.s.Received++
	st.mu.Unlock()
}

func (st *stats) rejected(k dispatch.Kind) {
	st.mu.Lock()
	st.s.Rejected++
	st.s.ByKind[k.String()]++
	st.mu.Unlock()
}

func (st *stats) applied() {
	st.mu.Lock()
	st.s.Applied++
	st.mu.Unlock()
}

func (st *stats) staleRequest() {
	st.mu.Lock()
	st.s.Stale++
	st.mu.Unlock()
}

func (st *stats) snapshot() Stats {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := st.s
	out.ByKind = make(map[string]uint64, len(st.s.ByKind))
	for k, v := range st.s.ByKind {
		out.ByKind[k] = v
	}
	return out
}
