package source

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocollider/internal/config"
	"github.com/sells-group/geocollider/internal/model"
)

// Shapefile reads map features from ESRI shapefiles. Attributes are
// addressed by DBF field name. Without lat/lon selectors the record point
// comes from the feature geometry.
type Shapefile struct {
	paths  []string
	layout layout
	log    *zap.Logger
}

// NewShapefile resolves cfg into a shapefile Source over paths.
func NewShapefile(cfg config.SourceConfig, paths []string, opts ...Option) (*Shapefile, error) {
	o := buildOptions(opts)
	l, err := newLayout(cfg, true)
	if err != nil {
		return nil, err
	}
	return &Shapefile{paths: paths, layout: l, log: o.log}, nil
}

// Each decodes every shapefile in order.
func (s *Shapefile) Each(ctx context.Context, fn func(model.RawRecord) error) error {
	for _, path := range s.paths {
		if err := s.eachFile(ctx, path, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shapefile) eachFile(ctx context.Context, path string, fn func(model.RawRecord) error) error {
	reader, err := shp.Open(path)
	if err != nil {
		return &DecodeError{Path: path, Err: eris.Wrap(err, "shapefile: open")}
	}
	defer func() { _ = reader.Close() }()

	// go-shp reports a missing or unreadable .dbf as an empty field list.
	fields := reader.Fields()
	if len(fields) == 0 {
		return &DecodeError{Path: path, Err: eris.New("shapefile: no attribute table (.dbf) found")}
	}
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = strings.TrimRight(f.String(), "\x00")
	}
	cols, err := s.layout.bindHeader(header)
	if err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	fromGeometry := !s.layout.hasPoint()

	var emitted, skipped, noGeom int
	for reader.Next() {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "shapefile: context cancelled")
		}

		_, shape := reader.Shape()

		row := make([]string, len(fields))
		for i := range fields {
			row[i] = strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		}

		rec, ok := cols.record(row)
		if !ok {
			skipped++
			continue
		}
		if fromGeometry {
			pt, err := ShapePoint(shape)
			if err != nil {
				s.log.Debug("shapefile: no usable geometry", zap.String("id", rec.ID), zap.Error(err))
			}
			rec.Point = pt
		}
		if rec.Point == nil && !rec.HasNames() {
			noGeom++
			continue
		}

		emitted++
		if err := fn(rec); err != nil {
			return err
		}
	}

	if err := reader.Err(); err != nil {
		return &DecodeError{Path: path, Err: eris.Wrap(err, "shapefile: read")}
	}

	if skipped > 0 || noGeom > 0 {
		s.log.Debug("shapefile: skipped records",
			zap.String("file", path),
			zap.Int("without_id", skipped),
			zap.Int("without_names_or_geometry", noGeom),
		)
	}
	s.log.Info("shapefile: decoded file",
		zap.String("file", path),
		zap.Int("records", emitted),
	)
	return nil
}
