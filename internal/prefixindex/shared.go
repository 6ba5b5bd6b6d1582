package prefixindex

import "sync"

// Shared guards an Index with a read-write lock. Queries share the read
// lock; mutations and Swap take the write lock.
type Shared struct {
	mu sync.RWMutex
	ix *Index
}

// NewShared wraps ix. A nil ix is replaced with an empty default Index.
func NewShared(ix *Index) *Shared {
	if ix == nil {
		ix = New()
	}
	return &Shared{ix: ix}
}

func (s *Shared) Insert(word string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ix.Insert(word, rec)
}

func (s *Shared) Delete(word, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ix.Delete(word, id)
}

func (s *Shared) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ix.Clear()
}

func (s *Shared) FindWordsWithPrefix(prefix string, limit int) []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.FindWordsWithPrefix(prefix, limit)
}

func (s *Shared) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.NodeCount()
}

func (s *Shared) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.Len()
}

// Swap installs next as the live index and returns the previous one. The
// caller must not touch next afterwards except through s.
func (s *Shared) Swap(next *Index) *Index {
	if next == nil {
		next = New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.ix
	s.ix = next
	return prev
}
