// Package gallery holds the client-side view of the server's image
// set and the controller that keeps it in sync across searches and
// uploads. The server is the single source of truth; nothing here
// filters or synthesizes items locally.
package gallery

import (
	"fmt"
	"sync"
)

// Item is one gallery entry as the server reports it.
type Item struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Store holds the last successful query response. allItems is the
// full server reply; filtered is the subset currently rendered. With
// filtering delegated to the server the two are always equal, but the
// distinction is kept so a client-side narrowing step could slot in.
type Store struct {
	mu       sync.Mutex
	allItems []Item
	filtered []Item
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// set replaces both views with a fresh server response. Only the
// controller calls this, and only at a committed query resolution.
func (s *Store) set(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allItems = items
	s.filtered = items
}

// Items returns a copy of the rendered subset.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.filtered))
	copy(out, s.filtered)
	return out
}

// Len reports how many items are currently rendered.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered)
}

// CountLabel is the text shown next to the gallery grid.
func (s *Store) CountLabel() string {
	return fmt.Sprintf("%d shown", s.Len())
}

// Select resolves a rendered item by id for the preview dialog. The
// lookup covers the rendered subset only; a miss reports found=false
// and the caller opens nothing.
func (s *Store) Select(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.filtered {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
