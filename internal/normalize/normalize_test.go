package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses and trims", "  a   b ", "a b"},
		{"empty", "", ""},
		{"only spaces", " \t\n ", ""},
		{"tabs and newlines", "Nova\t\tRoma\n", "Nova Roma"},
		{"case and punctuation kept", " St. Albans,  UK ", "St. Albans, UK"},
		{"no-break space", "Aquae\u00a0\u00a0Sulis", "Aquae Sulis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Whitespace(tt.in))
		})
	}
}

func TestWhitespace_Idempotent(t *testing.T) {
	inputs := []string{"", " ", "  a   b ", "Λόνδινον", "x\ty\nz", " lead", "trail\u3000"}
	for _, in := range inputs {
		once := Whitespace(in)
		assert.Equal(t, once, Whitespace(once), "input %q", in)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "naxos chora", Fold("  Náxos   Chóra "))
	assert.Equal(t, "zurich", Fold("Zürich"))
	assert.Equal(t, "", Fold(""))

	for _, in := range []string{"  Náxos   Chóra ", "ÅRHUS", "a  b"} {
		once := Fold(in)
		assert.Equal(t, once, Fold(once))
	}
}

func TestLookup(t *testing.T) {
	fn, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "a b", fn(" a  b "))

	fn, err = Lookup("FOLD")
	require.NoError(t, err)
	assert.Equal(t, "a b", fn(" A  B "))

	_, err = Lookup("soundex")
	assert.Error(t, err)
}
