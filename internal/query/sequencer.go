package query

import "sync"

// Sequencer orders responses to requests for the same mutable state.
// Every request takes a number from Next when it is issued; its response is
// applied only if Apply accepts that number, so an older response arriving
// late can never overwrite a newer one.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Next issues the next sequence number.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply reports whether a response tagged seq is newer than the last applied
// one, and records it as applied if so.
func (s *Sequencer) Apply(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	return true
}

// Latest returns the most recently issued sequence number.
func (s *Sequencer) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}
