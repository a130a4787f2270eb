package compare

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocollider/internal/model"
	"github.com/sells-group/geocollider/internal/source"
)

// Stats summarizes one driver pass.
type Stats struct {
	Records     int
	Evaluations int
	Matches     int
	Duration    time.Duration
}

// DriverOption configures Run.
type DriverOption func(*driver)

// WithDriverLogger sets the logger used for progress. A nil logger is
// ignored.
func WithDriverLogger(l *zap.Logger) DriverOption {
	return func(d *driver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithProgressEvery logs progress every n candidate records. Zero disables
// progress lines.
func WithProgressEvery(n int) DriverOption {
	return func(d *driver) {
		d.every = n
	}
}

type driver struct {
	log   *zap.Logger
	every int
}

// Run streams every candidate record from src through cmp in one forward
// pass. A record with names is evaluated once per raw name; a record with
// no names is evaluated once with an empty name so point-only comparators
// still see it.
func Run(ctx context.Context, src source.Source, cmp Comparator, opts ...DriverOption) (Stats, error) {
	d := driver{log: zap.NewNop(), every: 100000}
	for _, opt := range opts {
		opt(&d)
	}

	var st Stats
	start := time.Now()

	evaluate := func(c Candidate) error {
		st.Evaluations++
		n, err := cmp.Evaluate(c)
		st.Matches += n
		return err
	}

	err := src.Each(ctx, func(rec model.RawRecord) error {
		st.Records++
		if d.every > 0 && st.Records%d.every == 0 {
			d.log.Info("compare: progress",
				zap.Int("records", st.Records),
				zap.Int("matches", st.Matches),
			)
		}

		if !rec.HasNames() {
			return evaluate(Candidate{ID: rec.ID, Point: rec.Point})
		}
		for _, name := range rec.Names {
			if err := evaluate(Candidate{ID: rec.ID, Name: name, Point: rec.Point}); err != nil {
				return err
			}
		}
		return nil
	})
	st.Duration = time.Since(start)
	if err != nil {
		return st, eris.Wrap(err, "compare: candidate pass")
	}

	d.log.Info("compare: candidate pass complete",
		zap.Int("records", st.Records),
		zap.Int("evaluations", st.Evaluations),
		zap.Int("matches", st.Matches),
		zap.Duration("duration", st.Duration),
	)
	return st, nil
}
