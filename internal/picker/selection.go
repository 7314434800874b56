package picker

import (
	"sync"

	"imagepick/internal/domain"
)

// selectionSet is the ordered set of selected images, unique by id
type selectionSet struct {
	mu    sync.RWMutex
	items []domain.Image
}

// set adds or removes img and reports the resulting size to notify while
// still holding the lock, so notifications arrive in mutation order
func (s *selectionSet) set(img domain.Image, selected bool, notify func(count int)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(img.ID)
	switch {
	case selected && idx < 0:
		s.items = append(s.items, img)
	case !selected && idx >= 0:
		s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	}
	notify(len(s.items))
}

// clear empties the set and reports the resulting size
func (s *selectionSet) clear(notify func(count int)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	notify(0)
}

func (s *selectionSet) indexOf(id int64) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *selectionSet) contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

func (s *selectionSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// snapshot returns a copy of the selection in selection order
func (s *selectionSet) snapshot() []domain.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Image, len(s.items))
	copy(out, s.items)
	return out
}
