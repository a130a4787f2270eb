package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocollider/internal/config"
	"github.com/sells-group/geocollider/internal/model"
)

// maxLineBytes bounds a single unquoted line. GeoNames alternate-name
// columns run to tens of kilobytes.
const maxLineBytes = 16 << 20

// Delimited reads separator-delimited text files.
type Delimited struct {
	paths   []string
	sep     rune
	quoted  bool
	headers bool
	charset string
	layout  layout
	log     *zap.Logger
}

// NewDelimited resolves cfg into a delimited-text Source over paths.
func NewDelimited(cfg config.SourceConfig, paths []string, opts ...Option) (*Delimited, error) {
	o := buildOptions(opts)
	sep, err := cfg.Delimiter()
	if err != nil {
		return nil, eris.Wrap(err, "source: delimiter")
	}
	quoted, err := cfg.Quoted()
	if err != nil {
		return nil, eris.Wrap(err, "source: quoting")
	}
	l, err := newLayout(cfg, cfg.HasHeaders)
	if err != nil {
		return nil, err
	}
	return &Delimited{
		paths:   paths,
		sep:     sep,
		quoted:  quoted,
		headers: cfg.HasHeaders,
		charset: cfg.Charset,
		layout:  l,
		log:     o.log,
	}, nil
}

// Each decodes every file in order.
func (d *Delimited) Each(ctx context.Context, fn func(model.RawRecord) error) error {
	for _, path := range d.paths {
		if err := d.eachFile(ctx, path, fn); err != nil {
			return err
		}
	}
	return nil
}

func (d *Delimited) eachFile(ctx context.Context, path string, fn func(model.RawRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	return d.Decode(ctx, path, f, fn)
}

// Decode reads one delimited stream. name labels errors and log lines.
func (d *Delimited) Decode(ctx context.Context, name string, r io.Reader, fn func(model.RawRecord) error) error {
	clean, err := NewDecodingReader(r, d.charset)
	if err != nil {
		return &DecodeError{Path: name, Err: err}
	}

	rows := d.rowReader(clean)
	cols := d.layout.positional()
	first := true
	var emitted, skipped int

	for {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "source: context cancelled")
		}

		row, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &DecodeError{Path: name, Err: err}
		}

		if first && d.headers {
			first = false
			if cols, err = d.layout.bindHeader(row); err != nil {
				return &DecodeError{Path: name, Err: err}
			}
			continue
		}
		first = false

		rec, ok := cols.record(row)
		if !ok {
			skipped++
			continue
		}
		emitted++
		if err := fn(rec); err != nil {
			return err
		}
	}

	if skipped > 0 {
		d.log.Debug("source: skipped rows without id",
			zap.String("file", name),
			zap.Int("skipped", skipped),
		)
	}
	d.log.Info("source: decoded file",
		zap.String("file", name),
		zap.Int("records", emitted),
	)
	return nil
}

type rowReader interface {
	Read() ([]string, error)
}

func (d *Delimited) rowReader(r io.Reader) rowReader {
	if !d.quoted {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		return &splitReader{sc: sc, sep: string(d.sep)}
	}
	reader := csv.NewReader(r)
	reader.Comma = d.sep
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields
	return reader
}

// splitReader splits lines on the separator with no quote handling.
type splitReader struct {
	sc  *bufio.Scanner
	sep string
}

func (s *splitReader) Read() ([]string, error) {
	for s.sc.Scan() {
		line := s.sc.Text()
		if line == "" {
			continue
		}
		return strings.Split(line, s.sep), nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, eris.Wrap(err, "source: scan line")
	}
	return nil, io.EOF
}
