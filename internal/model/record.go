// Package model defines the record shape every source produces.
package model

import (
	"strings"

	"github.com/sells-group/geocollider/internal/spatial"
)

// RawRecord is one decoded row or feature. A well-formed source always
// yields names, a point, or both.
type RawRecord struct {
	ID        string         `json:"id"`
	Names     []string       `json:"names,omitempty"`
	Point     *spatial.Point `json:"point,omitempty"`
	Precision Precision      `json:"precision,omitempty"`
}

// HasNames reports whether the record carries at least one name.
func (r RawRecord) HasNames() bool {
	return len(r.Names) > 0
}

// CleanNames drops empty entries and duplicates, keeping first-seen order.
func CleanNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
