package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocollider/internal/index"
	"github.com/sells-group/geocollider/internal/model"
	"github.com/sells-group/geocollider/internal/normalize"
	"github.com/sells-group/geocollider/internal/source"
	"github.com/sells-group/geocollider/internal/spatial"
)

func buildIndex(t *testing.T, recs ...model.RawRecord) *index.Index {
	t.Helper()
	idx, err := index.Build(context.Background(), normalize.Whitespace, nil, source.Records(recs))
	require.NoError(t, err)
	return idx
}

func runPass(t *testing.T, mode Mode, idx *index.Index, candidates ...model.RawRecord) []Pair {
	t.Helper()
	sink := &MemorySink{}
	cmp, err := New(mode, Deps{Index: idx, Sink: sink})
	require.NoError(t, err)
	_, err = Run(context.Background(), source.Records(candidates), cmp)
	require.NoError(t, err)
	return sink.Pairs()
}

var springfieldRef = model.RawRecord{ID: "R1", Names: []string{"Springfield"}, Point: spatial.NewPoint(39.0, -89.6)}

func TestScenario_NameAndDistanceMatch(t *testing.T) {
	idx := buildIndex(t, springfieldRef)
	pairs := runPass(t, ModeCombined, idx,
		model.RawRecord{ID: "C1", Names: []string{"Springfield"}, Point: spatial.NewPoint(39.01, -89.61)},
	)
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, pairs)
}

func TestScenario_NameMatchDistanceFails(t *testing.T) {
	idx := buildIndex(t, springfieldRef)
	pairs := runPass(t, ModeCombined, idx,
		model.RawRecord{ID: "C1", Names: []string{"Springfield"}, Point: spatial.NewPoint(51.5, -0.1)},
	)
	assert.Empty(t, pairs)
}

func TestScenario_UnlocatedReferenceAcceptedOnName(t *testing.T) {
	idx := buildIndex(t, model.RawRecord{ID: "R1", Names: []string{"Springfield"}, Precision: model.PrecisionUnlocated})
	pairs := runPass(t, ModeCombined, idx,
		model.RawRecord{ID: "C1", Names: []string{"Springfield"}, Point: spatial.NewPoint(39.01, -89.61)},
	)
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, pairs)
}

func TestScenario_UnlocatedWithStrayPointIgnoresDistance(t *testing.T) {
	idx := buildIndex(t, model.RawRecord{
		ID:        "R1",
		Names:     []string{"Springfield"},
		Point:     spatial.NewPoint(0, 0),
		Precision: model.PrecisionUnlocated,
	})
	pairs := runPass(t, ModeCombined, idx,
		model.RawRecord{ID: "C1", Names: []string{"Springfield"}, Point: spatial.NewPoint(39.01, -89.61)},
	)
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, pairs)
}

func TestScenario_NamelessCandidate(t *testing.T) {
	idx := buildIndex(t, springfieldRef)
	candidate := model.RawRecord{ID: "C1", Point: spatial.NewPoint(39.0, -89.6)}

	assert.Empty(t, runPass(t, ModeCombined, idx, candidate), "combined mode never scans by point alone")
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, runPass(t, ModeSpatial, idx, candidate))
}

func TestCombined_ReferenceMissingFromPlaceIndex(t *testing.T) {
	// Name-only reference: present in NameIndex, absent from PlaceIndex.
	idx := buildIndex(t, model.RawRecord{ID: "R1", Names: []string{"Ostia"}})
	_, ok := idx.Places.Get("R1")
	require.False(t, ok)

	pairs := runPass(t, ModeCombined, idx,
		model.RawRecord{ID: "C1", Names: []string{"Ostia"}, Point: spatial.NewPoint(41.7, 12.3)},
	)
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, pairs)
}

func TestCombined_CandidateWithoutPointAcceptedOnName(t *testing.T) {
	idx := buildIndex(t, springfieldRef)
	pairs := runPass(t, ModeCombined, idx, model.RawRecord{ID: "C1", Names: []string{"Springfield"}})
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, pairs)
}

func TestCombined_NoDuplicateEmission(t *testing.T) {
	idx := buildIndex(t,
		model.RawRecord{ID: "R1", Names: []string{"Springfield", "Springfield "}, Point: spatial.NewPoint(39.0, -89.6)},
		model.RawRecord{ID: "R1", Point: spatial.NewPoint(39.001, -89.601)},
		model.RawRecord{ID: "R1", Point: spatial.NewPoint(39.002, -89.602)},
	)
	ids, _ := idx.Names.Lookup("Springfield")
	require.Len(t, ids, 2, "bucket keeps the duplicate id")

	pairs := runPass(t, ModeCombined, idx,
		model.RawRecord{ID: "C1", Names: []string{"Springfield"}, Point: spatial.NewPoint(39.0, -89.6)},
	)
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, pairs)
}

func TestCombined_AnyPointWithinThreshold(t *testing.T) {
	idx := buildIndex(t,
		model.RawRecord{ID: "R1", Names: []string{"Alexandria"}, Point: spatial.NewPoint(31.2, 29.9)},
		model.RawRecord{ID: "R1", Point: spatial.NewPoint(38.8, -77.05)},
		model.RawRecord{ID: "R2", Names: []string{"Alexandria"}, Point: spatial.NewPoint(31.2, 29.9)},
	)
	pairs := runPass(t, ModeCombined, idx,
		model.RawRecord{ID: "C1", Names: []string{"Alexandria"}, Point: spatial.NewPoint(38.81, -77.04)},
	)
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, pairs)
}

func TestCombined_UnknownName(t *testing.T) {
	idx := buildIndex(t, springfieldRef)
	pairs := runPass(t, ModeCombined, idx,
		model.RawRecord{ID: "C1", Names: []string{"Shelbyville"}, Point: spatial.NewPoint(39.0, -89.6)},
	)
	assert.Empty(t, pairs)
}

func TestCombined_ThresholdConfigurable(t *testing.T) {
	idx := buildIndex(t, springfieldRef)
	candidate := Candidate{ID: "C1", Name: "Springfield", Point: spatial.NewPoint(39.01, -89.61)}

	sink := &MemorySink{}
	tight, err := NewCombined(Deps{Index: idx, Sink: sink, ThresholdKM: 1.0})
	require.NoError(t, err)
	n, err := tight.Evaluate(candidate)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	loose, err := NewCombined(Deps{Index: idx, Sink: sink, ThresholdKM: 2.0})
	require.NoError(t, err)
	n, err = loose.Evaluate(candidate)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNameOnly(t *testing.T) {
	idx := buildIndex(t,
		springfieldRef,
		model.RawRecord{ID: "R2", Names: []string{"Springfield"}, Point: spatial.NewPoint(42.1, -72.6)},
	)
	pairs := runPass(t, ModeName, idx,
		model.RawRecord{ID: "C1", Names: []string{" Springfield  "}, Point: spatial.NewPoint(51.5, -0.1)},
		model.RawRecord{ID: "C2", Point: spatial.NewPoint(39.0, -89.6)},
	)
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}, {RefID: "R2", CandidateID: "C1"}}, pairs)
}

func TestNameOnlyMode_NoCoordinatesConfigured(t *testing.T) {
	// Both corpora decoded without lat/lon selectors.
	idx := buildIndex(t,
		model.RawRecord{ID: "R1", Names: []string{"Roma"}},
		model.RawRecord{ID: "R2", Names: []string{"Ostia"}},
	)
	assert.Equal(t, 0, idx.Places.Len())

	pairs := runPass(t, ModeCombined, idx, model.RawRecord{ID: "C1", Names: []string{"Roma"}})
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}}, pairs)
}

func TestSpatialOnly(t *testing.T) {
	idx := buildIndex(t,
		springfieldRef,
		model.RawRecord{ID: "R2", Names: []string{"Elsewhere"}, Point: spatial.NewPoint(39.005, -89.605)},
		model.RawRecord{ID: "R3", Point: spatial.NewPoint(39.0, -89.6), Precision: model.PrecisionUnlocated},
		model.RawRecord{ID: "R4", Point: spatial.NewPoint(51.5, -0.1)},
	)
	pairs := runPass(t, ModeSpatial, idx,
		model.RawRecord{ID: "C1", Names: []string{"Unrelated"}, Point: spatial.NewPoint(39.0, -89.6)},
		model.RawRecord{ID: "C2", Names: []string{"Springfield"}},
	)
	assert.Equal(t, []Pair{{RefID: "R1", CandidateID: "C1"}, {RefID: "R2", CandidateID: "C1"}}, pairs)
}

func TestMatchSet_BuildOrderIndependent(t *testing.T) {
	fileA := source.Records{
		springfieldRef,
		{ID: "R2", Names: []string{"Roma"}, Point: spatial.NewPoint(41.9, 12.5)},
	}
	fileB := source.Records{
		{ID: "R3", Names: []string{"Springfield"}, Point: spatial.NewPoint(39.02, -89.62)},
		{ID: "R2", Names: []string{"Rome"}},
	}
	candidates := []model.RawRecord{
		{ID: "C1", Names: []string{"Springfield"}, Point: spatial.NewPoint(39.01, -89.61)},
		{ID: "C2", Names: []string{"Rome", "Roma"}, Point: spatial.NewPoint(41.89, 12.49)},
	}

	ab, err := index.Build(context.Background(), normalize.Whitespace, nil, fileA, fileB)
	require.NoError(t, err)
	ba, err := index.Build(context.Background(), normalize.Whitespace, nil, fileB, fileA)
	require.NoError(t, err)

	for _, mode := range []Mode{ModeCombined, ModeName, ModeSpatial} {
		assert.ElementsMatch(t, runPass(t, mode, ab, candidates...), runPass(t, mode, ba, candidates...), string(mode))
	}
}

type failingSink struct{ err error }

func (f failingSink) Write(string, string) error { return f.err }

func TestEvaluate_SinkErrorPropagates(t *testing.T) {
	idx := buildIndex(t, springfieldRef)
	boom := errors.New("disk full")
	for _, mode := range []Mode{ModeCombined, ModeName, ModeSpatial} {
		cmp, err := New(mode, Deps{Index: idx, Sink: failingSink{err: boom}})
		require.NoError(t, err)
		_, err = cmp.Evaluate(Candidate{ID: "C1", Name: "Springfield", Point: spatial.NewPoint(39.0, -89.6)})
		assert.ErrorIs(t, err, boom, string(mode))
	}
}

func TestDeps_Validation(t *testing.T) {
	idx := buildIndex(t, springfieldRef)

	_, err := NewCombined(Deps{Sink: &MemorySink{}})
	assert.Error(t, err)
	_, err = NewNameOnly(Deps{Index: idx})
	assert.Error(t, err)
	_, err = NewSpatialOnly(Deps{Index: idx, Sink: &MemorySink{}, ThresholdKM: -1})
	assert.Error(t, err)

	c, err := NewCombined(Deps{Index: idx, Sink: &MemorySink{}})
	require.NoError(t, err)
	assert.Equal(t, spatial.DefaultThresholdKM, c.deps.ThresholdKM)
	assert.NotNil(t, c.deps.Logger)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeCombined, "Combined": ModeCombined, "name": ModeName, " spatial ": ModeSpatial} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("fuzzy")
	assert.Error(t, err)

	_, err = New(Mode("fuzzy"), Deps{})
	assert.Error(t, err)
}
