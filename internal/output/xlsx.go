package output

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetName is the worksheet XLSXSink writes to.
const SheetName = "matches"

// XLSXSink buffers pairs in a workbook and saves it on Close.
type XLSXSink struct {
	mu    sync.Mutex
	path  string
	file  *xlsx.File
	sheet *xlsx.Sheet
	err   error
	rows  int
}

// NewXLSXSink returns a sink that saves to path on Close.
func NewXLSXSink(path string) *XLSXSink {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	return &XLSXSink{path: path, file: f, sheet: sheet, err: err}
}

// Write appends one pair as a row.
func (s *XLSXSink) Write(refID, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return eris.Wrap(s.err, "output: xlsx sheet")
	}
	row := s.sheet.AddRow()
	row.AddCell().SetString(refID)
	row.AddCell().SetString(candidateID)
	s.rows++
	return nil
}

// Rows returns the number of pairs written.
func (s *XLSXSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close saves the workbook.
func (s *XLSXSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return eris.Wrap(s.err, "output: xlsx sheet")
	}
	if err := s.file.Save(s.path); err != nil {
		return eris.Wrapf(err, "output: save %s", s.path)
	}
	return nil
}
