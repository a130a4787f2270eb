package model

import "strings"

// Precision describes how far a record's coordinates can be trusted.
type Precision int

// Precision values in merge rank order.
const (
	PrecisionUnknown Precision = iota
	PrecisionPrecise
	PrecisionRough
	// PrecisionUnlocated excludes a record from spatial checks even when
	// stray point data exists.
	PrecisionUnlocated
)

var precisionNames = map[Precision]string{
	PrecisionUnknown:   "",
	PrecisionPrecise:   "precise",
	PrecisionRough:     "rough",
	PrecisionUnlocated: "unlocated",
}

// ParsePrecision maps a source value to a Precision. Unrecognized values
// are Unknown.
func ParsePrecision(s string) Precision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "precise":
		return PrecisionPrecise
	case "rough":
		return PrecisionRough
	case "unlocated":
		return PrecisionUnlocated
	default:
		return PrecisionUnknown
	}
}

func (p Precision) String() string {
	return precisionNames[p]
}

// Merge returns the higher ranked of p and other.
func (p Precision) Merge(other Precision) Precision {
	if other > p {
		return other
	}
	return p
}

// Unlocated reports whether p excludes the record from spatial checks.
func (p Precision) Unlocated() bool {
	return p == PrecisionUnlocated
}
