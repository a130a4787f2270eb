package source

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// NewDecodingReader wraps r so that it yields clean UTF-8 with LF line
// endings. A byte order mark is honoured and stripped, invalid sequences
// become U+FFFD and charset (any WHATWG label, e.g. "windows-1252") selects
// the encoding of BOM-less input. An empty charset means UTF-8.
func NewDecodingReader(r io.Reader, charset string) (io.Reader, error) {
	var fallback *encoding.Decoder
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		fallback = unicode.UTF8.NewDecoder()
	default:
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "source: unsupported charset %q", charset)
		}
		fallback = enc.NewDecoder()
	}
	// BOMOverride passes BOM-prefixed UTF-8 through untouched, so invalid
	// sequences are replaced again after it.
	t := transform.Chain(unicode.BOMOverride(fallback), runes.ReplaceIllFormed(), newlines{})
	return transform.NewReader(r, t), nil
}

// newlines rewrites CR and CRLF line endings to LF.
type newlines struct {
	transform.NopResetter
}

func (newlines) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		c := src[nSrc]
		if c != '\r' {
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}
		// Need the next byte to tell CR from CRLF.
		if nSrc+1 >= len(src) && !atEOF {
			return nDst, nSrc, transform.ErrShortSrc
		}
		dst[nDst] = '\n'
		nDst++
		nSrc++
		if nSrc < len(src) && src[nSrc] == '\n' {
			nSrc++
		}
	}
	return nDst, nSrc, nil
}
