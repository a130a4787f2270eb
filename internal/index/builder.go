package index

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocollider/internal/model"
	"github.com/sells-group/geocollider/internal/normalize"
	"github.com/sells-group/geocollider/internal/source"
)

// Index is the pair of reference indexes. It is read-only once built.
type Index struct {
	Names  *NameIndex
	Places *PlaceIndex
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for build progress. A nil logger is
// ignored.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Builder consumes reference records into an Index.
type Builder struct {
	idx     *Index
	log     *zap.Logger
	records int
}

// NewBuilder creates a Builder whose NameIndex normalizes with norm.
func NewBuilder(norm normalize.Func, opts ...BuilderOption) *Builder {
	b := &Builder{
		idx: &Index{Names: NewNameIndex(norm), Places: NewPlaceIndex()},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add indexes one record: every name goes to the NameIndex, the point (if
// any) extends the PlaceRecord and a known precision is merged in.
func (b *Builder) Add(rec model.RawRecord) {
	b.records++
	for _, name := range rec.Names {
		b.idx.Names.Add(name, rec.ID)
	}
	if rec.Point != nil {
		b.idx.Places.AddPoint(rec.ID, *rec.Point)
	}
	b.idx.Places.MergePrecision(rec.ID, rec.Precision)
}

// Load streams every record of src into the builder. A source error aborts
// the load; the caller must discard the builder since a partial reference
// index yields silent false negatives.
func (b *Builder) Load(ctx context.Context, src source.Source) error {
	before := b.records
	err := src.Each(ctx, func(rec model.RawRecord) error {
		b.Add(rec)
		return nil
	})
	if err != nil {
		return eris.Wrap(err, "index: load reference source")
	}
	b.log.Info("index: loaded reference source",
		zap.Int("records", b.records-before),
		zap.Int("names", b.idx.Names.Len()),
		zap.Int("places", b.idx.Places.Len()),
	)
	return nil
}

// Records returns the number of records added so far.
func (b *Builder) Records() int {
	return b.records
}

// Index returns the built indexes.
func (b *Builder) Index() *Index {
	return b.idx
}

// Build loads every source in order and returns the resulting Index.
func Build(ctx context.Context, norm normalize.Func, log *zap.Logger, sources ...source.Source) (*Index, error) {
	b := NewBuilder(norm, WithLogger(log))
	for _, src := range sources {
		if err := b.Load(ctx, src); err != nil {
			return nil, err
		}
	}
	return b.Index(), nil
}
