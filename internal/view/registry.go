// Package view maps engine view ids to the local state of each open view.
package view

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/xifront/internal/linecache"
)

// Registry errors.
var (
	ErrViewExists   = errors.New("view already registered")
	ErrTabInUse     = errors.New("tab already bound to a view")
	ErrViewNotFound = errors.New("view not found")
	ErrEmptyID      = errors.New("empty view id")
)

// TabID is the handle of the tab that displays a view.
type TabID string

// Entry is the local state of one view. Its Document is owned by the entry.
type Entry struct {
	ViewID   string
	Tab      TabID
	FilePath string
	Doc      *linecache.Document

	// First and Height describe the visible window, in document lines.
	First  int
	Height int
}

// Visible returns the visible window as a line range.
func (e *Entry) Visible() linecache.Range {
	return linecache.Range{Start: e.First, End: e.First + e.Height}
}

// Registry is the bidirectional view id <-> tab mapping. All mappings for
// a view are added and removed under one lock, so no lookup can observe a
// half-removed view.
type Registry struct {
	mu     sync.RWMutex
	byView map[string]*Entry
	byTab  map[TabID]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byView: make(map[string]*Entry),
		byTab:  make(map[TabID]*Entry),
	}
}

// Add registers a view shown in tab with a fresh empty document.
func (r *Registry) Add(viewID string, tab TabID, path string) (*Entry, error) {
	if viewID == "" {
		return nil, ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byView[viewID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrViewExists, viewID)
	}
	if _, ok := r.byTab[tab]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTabInUse, tab)
	}

	e := &Entry{
		ViewID:   viewID,
		Tab:      tab,
		FilePath: path,
		Doc:      linecache.NewDocument(),
	}
	r.byView[viewID] = e
	r.byTab[tab] = e
	return e, nil
}

// ByView looks up an entry by view id.
func (r *Registry) ByView(viewID string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byView[viewID]
	return e, ok
}

// ByTab looks up an entry by tab.
func (r *Registry) ByTab(tab TabID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byTab[tab]
	return e, ok
}

// Remove drops a view and every mapping derived from it. The removed entry
// is returned so the caller can tear down its tab.
func (r *Registry) Remove(viewID string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byView[viewID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, viewID)
	}
	r.removeLocked(e)
	return e, nil
}

// RemoveTab drops the view shown in tab.
func (r *Registry) RemoveTab(tab TabID) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byTab[tab]
	if !ok {
		return nil, fmt.Errorf("%w: tab %s", ErrViewNotFound, tab)
	}
	r.removeLocked(e)
	return e, nil
}

func (r *Registry) removeLocked(e *Entry) {
	delete(r.byView, e.ViewID)
	delete(r.byTab, e.Tab)
	// The document dies with the entry.
	e.Doc = nil
}

// Len returns the number of open views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byView)
}

// Views returns the open view ids in sorted order.
func (r *Registry) Views() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byView))
	for id := range r.byView {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
