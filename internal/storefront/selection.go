package storefront

import (
	"slices"
	"sync"
)

// Selection is the set of cart products picked for checkout. It is view
// state only and never reaches the server.
type Selection struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

func (s *Selection) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// ToggleAll clears the selection when every id is selected and selects
// all of them otherwise.
func (s *Selection) ToggleAll(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allSelected(ids) {
		clear(s.ids)
		return
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) AllSelected(ids []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allSelected(ids)
}

func (s *Selection) allSelected(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Selection) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

func (s *Selection) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids sorted.
func (s *Selection) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
