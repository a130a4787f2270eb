// Package normalize canonicalizes raw place names into comparison keys.
package normalize

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Func maps a raw name to its comparison key.
type Func func(string) string

// Mode names accepted by Lookup.
const (
	ModeWhitespace = "whitespace"
	ModeFold       = "fold"
)

// Whitespace collapses every run of whitespace to a single space and trims
// both ends. Case and punctuation are left as they are.
func Whitespace(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold applies Whitespace, lowercases and strips combining accents
// (e.g. "  Náxos  Chóra" -> "naxos chora").
func Fold(raw string) string {
	folded, _, err := transform.String(stripMarks, strings.ToLower(raw))
	if err != nil {
		folded = strings.ToLower(raw)
	}
	return Whitespace(folded)
}

// Lookup returns the normalizer registered under mode. An empty mode
// selects Whitespace.
func Lookup(mode string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeWhitespace:
		return Whitespace, nil
	case ModeFold:
		return Fold, nil
	default:
		return nil, eris.Errorf("normalize: unknown mode %q", mode)
	}
}
