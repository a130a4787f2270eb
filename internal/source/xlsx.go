package source

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/geocollider/internal/config"
	"github.com/sells-group/geocollider/internal/model"
)

// XLSX reads one worksheet from each workbook.
type XLSX struct {
	paths   []string
	sheet   string
	headers bool
	layout  layout
	log     *zap.Logger
}

// NewXLSX resolves cfg into a workbook Source over paths. cfg.Sheet picks
// the worksheet by name; empty means the first sheet.
func NewXLSX(cfg config.SourceConfig, paths []string, opts ...Option) (*XLSX, error) {
	o := buildOptions(opts)
	l, err := newLayout(cfg, cfg.HasHeaders)
	if err != nil {
		return nil, err
	}
	return &XLSX{
		paths:   paths,
		sheet:   cfg.Sheet,
		headers: cfg.HasHeaders,
		layout:  l,
		log:     o.log,
	}, nil
}

// Each decodes every workbook in order.
func (x *XLSX) Each(ctx context.Context, fn func(model.RawRecord) error) error {
	for _, path := range x.paths {
		if err := x.eachFile(ctx, path, fn); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSX) eachFile(ctx context.Context, path string, fn func(model.RawRecord) error) error {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return &DecodeError{Path: path, Err: eris.Wrap(err, "xlsx: open file")}
	}

	sheet, err := x.getSheet(f)
	if err != nil {
		return &DecodeError{Path: path, Err: err}
	}

	cols := x.layout.positional()
	var emitted, skipped int
	for i, row := range sheet.Rows {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "xlsx: context cancelled")
		}
		if row == nil {
			continue
		}

		cells := rowToStrings(row)
		if i == 0 && x.headers {
			if cols, err = x.layout.bindHeader(cells); err != nil {
				return &DecodeError{Path: path, Err: err}
			}
			continue
		}

		rec, ok := cols.record(cells)
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
		x.log.Debug("xlsx: skipped rows without id",
			zap.String("file", path),
			zap.Int("skipped", skipped),
		)
	}
	x.log.Info("xlsx: decoded workbook",
		zap.String("file", path),
		zap.String("sheet", sheet.Name),
		zap.Int("records", emitted),
	)
	return nil
}

func (x *XLSX) getSheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if x.sheet != "" {
		sheet, ok := f.Sheet[x.sheet]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", x.sheet)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
