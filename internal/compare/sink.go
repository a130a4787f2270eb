package compare

import "sync"

// Sink receives matched (reference id, candidate id) pairs in emission
// order. Implementations shared across goroutines must serialize Write.
type Sink interface {
	Write(refID, candidateID string) error
}

// Pair is one emitted match.
type Pair struct {
	RefID       string `json:"ref_id"`
	CandidateID string `json:"candidate_id"`
}

// MemorySink collects pairs in memory.
type MemorySink struct {
	mu    sync.Mutex
	pairs []Pair
}

// Write appends the pair.
func (m *MemorySink) Write(refID, candidateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = append(m.pairs, Pair{RefID: refID, CandidateID: candidateID})
	return nil
}

// Pairs returns a copy of the collected pairs.
func (m *MemorySink) Pairs() []Pair {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Pair(nil), m.pairs...)
}
