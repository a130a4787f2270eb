// Package output writes matched pairs to files.
package output

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// Formats accepted by Create.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Writer is a match sink that must be closed to flush its output.
type Writer interface {
	Write(refID, candidateID string) error
	Close() error
}

// Create opens a Writer for path. An empty format picks xlsx for a .xlsx
// extension and csv otherwise.
func Create(path, format string) (Writer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			format = FormatXLSX
		}
	}
	switch format {
	case FormatCSV:
		return CreateCSV(path)
	case FormatXLSX:
		return NewXLSXSink(path), nil
	default:
		return nil, eris.Errorf("output: unsupported format %q", format)
	}
}

// CSVSink writes one two-column row per pair. Writes are serialized.
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	rows   int
}

// NewCSVSink writes CSV rows to w. Close flushes but does not close w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// CreateCSV creates (or truncates) path and returns a sink that owns the
// file.
func CreateCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "output: create %s", path)
	}
	s := NewCSVSink(f)
	s.closer = f
	return s, nil
}

// Write appends one pair.
func (s *CSVSink) Write(refID, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Write([]string{refID, candidateID}); err != nil {
		return eris.Wrap(err, "output: write csv row")
	}
	s.rows++
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (s *CSVSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return eris.Wrap(err, "output: flush csv")
	}
	return nil
}

// Rows returns the number of pairs written.
func (s *CSVSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close flushes and, for file sinks, closes the file.
func (s *CSVSink) Close() error {
	flushErr := s.Flush()
	if s.closer == nil {
		return flushErr
	}
	closeErr := s.closer.Close()
	s.closer = nil
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return eris.Wrap(closeErr, "output: close csv")
	}
	return nil
}
