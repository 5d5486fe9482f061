package rpc

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Intent names what an outstanding request asked the engine to do.
type Intent int

const (
	// IntentNewView is a "new_view" request; the result is a view id string.
	IntentNewView Intent = iota
	// IntentCut is an edit "cut" request; the result is the removed text.
	IntentCut
	// IntentCopy is an edit "copy" request; the result is the selected text.
	IntentCopy
	// IntentSave is a "save" request; the result is ignored.
	IntentSave
)

// String returns the intent name.
func (i Intent) String() string {
	switch i {
	case IntentNewView:
		return "new_view"
	case IntentCut:
		return "cut"
	case IntentCopy:
		return "copy"
	case IntentSave:
		return "save"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

// Pending describes an outstanding request.
type Pending struct {
	Intent Intent

	// FilePath is the file a new view was opened on, or the save target.
	FilePath string

	// ViewID is the view the request concerns. Empty for new views.
	ViewID string

	// Sent is when the request was registered.
	Sent time.Time
}

// NewViewRequest describes a "new_view" request for path ("" for a scratch view).
func NewViewRequest(path string) Pending {
	return Pending{Intent: IntentNewView, FilePath: path}
}

// CutRequest describes a cut request on a view.
func CutRequest(viewID string) Pending {
	return Pending{Intent: IntentCut, ViewID: viewID}
}

// CopyRequest describes a copy request on a view.
func CopyRequest(viewID string) Pending {
	return Pending{Intent: IntentCopy, ViewID: viewID}
}

// SaveRequest describes a save of a view to path.
func SaveRequest(viewID, path string) Pending {
	return Pending{Intent: IntentSave, ViewID: viewID, FilePath: path}
}

// PendingInfo is a diagnostic snapshot of one pending entry.
type PendingInfo struct {
	ID     RequestID
	Intent Intent
	ViewID string
	Age    time.Duration
}

// PendingTable maps in-flight request ids to what they requested.
// Each entry is resolved at most once.
type PendingTable struct {
	mu      sync.Mutex
	entries map[RequestID]Pending
	now     func() time.Time
}

// NewPendingTable creates an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{
		entries: make(map[RequestID]Pending),
		now:     time.Now,
	}
}

// Register records p as the intent of request id.
func (t *PendingTable) Register(id RequestID, p Pending) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	if p.Sent.IsZero() {
		p.Sent = t.now()
	}
	t.entries[id] = p
	return nil
}

// Resolve removes and returns the entry for id. A miss returns an error
// wrapping ErrUnexpectedResponse.
func (t *PendingTable) Resolve(id RequestID) (Pending, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.entries[id]
	if !ok {
		return Pending{}, fmt.Errorf("%w: %d", ErrUnexpectedResponse, id)
	}
	delete(t.entries, id)
	return p, nil
}

// DiscardView drops every entry tied to viewID and returns how many were
// dropped. Responses that arrive later for them resolve as unexpected.
func (t *PendingTable) DiscardView(viewID string) int {
	if viewID == "" {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for id, p := range t.entries {
		if p.ViewID == viewID {
			delete(t.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of outstanding requests.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Snapshot lists outstanding requests ordered by id.
func (t *PendingTable) Snapshot() []PendingInfo {
	t.mu.Lock()
	now := t.now()
	out := make([]PendingInfo, 0, len(t.entries))
	for id, p := range t.entries {
		out = append(out, PendingInfo{
			ID:     id,
			Intent: p.Intent,
			ViewID: p.ViewID,
			Age:    now.Sub(p.Sent),
		})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stale lists requests older than maxAge.
func (t *PendingTable) Stale(maxAge time.Duration) []PendingInfo {
	var stale []PendingInfo
	for _, info := range t.Snapshot() {
		if info.Age > maxAge {
			stale = append(stale, info)
		}
	}
	return stale
}
