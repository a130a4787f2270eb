// Package source decodes gazetteer exports (delimited text, XLSX workbooks
// and shapefiles) into model.RawRecord values.
package source

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocollider/internal/config"
	"github.com/sells-group/geocollider/internal/model"
)

// Source produces records one at a time. Each stops at the first error
// returned by fn or by decoding.
type Source interface {
	Each(ctx context.Context, fn func(model.RawRecord) error) error
}

// Records is an in-memory Source.
type Records []model.RawRecord

// Each calls fn for every record in order.
func (r Records) Each(ctx context.Context, fn func(model.RawRecord) error) error {
	for _, rec := range r {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "source: context cancelled")
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// DecodeError reports a file that could not be opened or decoded. It
// aborts the whole run.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("source: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Option configures a file source.
type Option func(*options)

type options struct {
	log *zap.Logger
}

// WithLogger sets the logger used for per-file diagnostics. A nil logger
// is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the Source for cfg over paths, read in order. cfg must have
// passed config validation.
func Open(cfg config.SourceConfig, paths []string, opts ...Option) (Source, error) {
	if len(paths) == 0 {
		return nil, eris.New("source: no input files")
	}
	switch cfg.FormatName() {
	case config.FormatCSV:
		return NewDelimited(cfg, paths, opts...)
	case config.FormatXLSX:
		return NewXLSX(cfg, paths, opts...)
	case config.FormatShapefile:
		return NewShapefile(cfg, paths, opts...)
	default:
		return nil, eris.Errorf("source: unsupported format %q", cfg.Format)
	}
}
