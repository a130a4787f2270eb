// Package compare matches candidate records against the reference indexes
// and streams confirmed pairs to a Sink.
package compare

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocollider/internal/index"
	"github.com/sells-group/geocollider/internal/spatial"
)

// Candidate is one comparison request. An empty Name means the candidate
// has no name; a nil Point means it has no coordinates.
type Candidate struct {
	ID    string
	Name  string
	Point *spatial.Point
}

// Comparator evaluates one candidate and returns how many pairs it wrote.
type Comparator interface {
	Evaluate(c Candidate) (int, error)
}

// Deps are the collaborators shared by every comparator variant.
type Deps struct {
	Index       *index.Index
	Sink        Sink
	ThresholdKM float64
	Logger      *zap.Logger
}

func (d Deps) resolve() (Deps, error) {
	if d.Index == nil || d.Index.Names == nil || d.Index.Places == nil {
		return d, eris.New("compare: index is required")
	}
	if d.Sink == nil {
		return d, eris.New("compare: sink is required")
	}
	if d.ThresholdKM == 0 {
		d.ThresholdKM = spatial.DefaultThresholdKM
	}
	if d.ThresholdKM < 0 {
		return d, eris.Errorf("compare: negative threshold %v", d.ThresholdKM)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d, nil
}

// Mode selects a comparator variant.
type Mode string

// Comparator modes.
const (
	ModeCombined Mode = "combined"
	ModeName     Mode = "name"
	ModeSpatial  Mode = "spatial"
)

// ParseMode maps a configured mode name to a Mode. Empty means combined.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCombined:
		return ModeCombined, nil
	case ModeName:
		return ModeName, nil
	case ModeSpatial:
		return ModeSpatial, nil
	default:
		return "", eris.Errorf("compare: unknown mode %q", s)
	}
}

// New constructs the comparator for mode.
func New(mode Mode, d Deps) (Comparator, error) {
	switch mode {
	case ModeCombined, "":
		return NewCombined(d)
	case ModeName:
		return NewNameOnly(d)
	case ModeSpatial:
		return NewSpatialOnly(d)
	default:
		return nil, eris.Errorf("compare: unknown mode %q", mode)
	}
}

// emitter writes pairs for one Evaluate call, dropping repeats of the same
// reference id. Buckets may list an id once per raw name it was indexed
// under.
type emitter struct {
	sink  Sink
	cand  string
	seen  map[string]struct{}
	count int
}

func newEmitter(sink Sink, candidateID string) *emitter {
	return &emitter{sink: sink, cand: candidateID}
}

// done reports whether refID was already emitted in this call.
func (e *emitter) done(refID string) bool {
	_, ok := e.seen[refID]
	return ok
}

func (e *emitter) emit(refID string) error {
	if e.done(refID) {
		return nil
	}
	if e.seen == nil {
		e.seen = make(map[string]struct{}, 4)
	}
	e.seen[refID] = struct{}{}
	if err := e.sink.Write(refID, e.cand); err != nil {
		return eris.Wrapf(err, "compare: write pair %s,%s", refID, e.cand)
	}
	e.count++
	return nil
}

// anyWithin reports whether any of points lies within thresholdKM of pt.
// It stops at the first qualifying point.
func anyWithin(points []spatial.Point, pt spatial.Point, thresholdKM float64) bool {
	for _, p := range points {
		if spatial.WithinThreshold(p, pt, thresholdKM) {
			return true
		}
	}
	return false
}

// NameOnly matches on normalized name alone.
type NameOnly struct {
	deps Deps
}

// NewNameOnly returns a name-only comparator.
func NewNameOnly(d Deps) (*NameOnly, error) {
	d, err := d.resolve()
	if err != nil {
		return nil, err
	}
	return &NameOnly{deps: d}, nil
}

// Evaluate writes every reference id indexed under the candidate's name.
func (n *NameOnly) Evaluate(c Candidate) (int, error) {
	if c.Name == "" {
		return 0, nil
	}
	ids, ok := n.deps.Index.Names.Lookup(c.Name)
	if !ok {
		return 0, nil
	}
	n.deps.Logger.Debug("compare: name match",
		zap.String("name", n.deps.Index.Names.Key(c.Name)),
		zap.String("candidate", c.ID),
		zap.Int("references", len(ids)),
	)
	e := newEmitter(n.deps.Sink, c.ID)
	for _, refID := range ids {
		if err := e.emit(refID); err != nil {
			return e.count, err
		}
	}
	return e.count, nil
}

// Combined matches on normalized name and confirms with distance when both
// sides have usable points.
//
// A reference with no locatable points (absent from the PlaceIndex, no
// points, or marked unlocated) is accepted on the name match alone, as is a
// candidate without a point. Candidates without a name, or whose name is
// not indexed, produce nothing; there is no spatial fallback.
type Combined struct {
	deps Deps
}

// NewCombined returns a name-then-distance comparator.
func NewCombined(d Deps) (*Combined, error) {
	d, err := d.resolve()
	if err != nil {
		return nil, err
	}
	return &Combined{deps: d}, nil
}

// Evaluate writes each reference id in the name bucket that passes the
// spatial check.
func (m *Combined) Evaluate(c Candidate) (int, error) {
	if c.Name == "" {
		return 0, nil
	}
	ids, ok := m.deps.Index.Names.Lookup(c.Name)
	if !ok {
		return 0, nil
	}
	log := m.deps.Logger
	log.Debug("compare: name match, checking places",
		zap.String("name", m.deps.Index.Names.Key(c.Name)),
		zap.String("candidate", c.ID),
		zap.Int("references", len(ids)),
	)

	e := newEmitter(m.deps.Sink, c.ID)
	for _, refID := range ids {
		if e.done(refID) {
			continue
		}
		points := m.deps.Index.Places.Locatable(refID)
		switch {
		case c.Point == nil, len(points) == 0:
			log.Debug("compare: accepted on name alone",
				zap.String("reference", refID),
				zap.String("candidate", c.ID),
			)
		case anyWithin(points, *c.Point, m.deps.ThresholdKM):
			log.Debug("compare: match",
				zap.String("reference", refID),
				zap.String("candidate", c.ID),
			)
		default:
			continue
		}
		if err := e.emit(refID); err != nil {
			return e.count, err
		}
	}
	return e.count, nil
}

// SpatialOnly ignores names and scans every reference place. It is
// O(candidates × references) and only suits small corpora.
type SpatialOnly struct {
	deps Deps
}

// NewSpatialOnly returns a distance-only comparator.
func NewSpatialOnly(d Deps) (*SpatialOnly, error) {
	d, err := d.resolve()
	if err != nil {
		return nil, err
	}
	return &SpatialOnly{deps: d}, nil
}

// Evaluate writes every located reference with a point within the
// threshold of the candidate point. Unlocated references are skipped.
func (s *SpatialOnly) Evaluate(c Candidate) (int, error) {
	if c.Point == nil {
		return 0, nil
	}
	e := newEmitter(s.deps.Sink, c.ID)
	var err error
	s.deps.Index.Places.Each(func(r *index.PlaceRecord) {
		if err != nil {
			return
		}
		if anyWithin(r.Locatable(), *c.Point, s.deps.ThresholdKM) {
			s.deps.Logger.Debug("compare: spatial match",
				zap.String("reference", r.ID),
				zap.String("candidate", c.ID),
			)
			err = e.emit(r.ID)
		}
	})
	return e.count, err
}
