// Package index builds the in-memory reference indexes that candidate
// records are compared against.
package index

import (
	"sort"

	"github.com/sells-group/geocollider/internal/normalize"
)

// NameIndex maps normalized names to the reference ids that carry them.
// The index owns its normalizer; callers look names up by raw value so that
// build and lookup always share one normalization.
type NameIndex struct {
	norm    normalize.Func
	buckets map[string][]string
}

// NewNameIndex returns an empty index keyed by norm. A nil norm selects
// normalize.Whitespace.
func NewNameIndex(norm normalize.Func) *NameIndex {
	if norm == nil {
		norm = normalize.Whitespace
	}
	return &NameIndex{norm: norm, buckets: make(map[string][]string)}
}

// Key returns the normalized form of raw.
func (n *NameIndex) Key(raw string) string {
	return n.norm(raw)
}

// Add appends id to the bucket for raw. Names that normalize to the empty
// string are ignored. Ids are not deduplicated within a bucket.
func (n *NameIndex) Add(raw, id string) {
	key := n.norm(raw)
	if key == "" {
		return
	}
	n.buckets[key] = append(n.buckets[key], id)
}

// Lookup returns the ids stored under the normalized form of raw. The
// returned slice must not be modified.
func (n *NameIndex) Lookup(raw string) ([]string, bool) {
	key := n.norm(raw)
	if key == "" {
		return nil, false
	}
	ids, ok := n.buckets[key]
	return ids, ok
}

// Len returns the number of distinct normalized names.
func (n *NameIndex) Len() int {
	return len(n.buckets)
}

// Names returns every normalized name in sorted order.
func (n *NameIndex) Names() []string {
	keys := make([]string, 0, len(n.buckets))
	for k := range n.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
