package index

import (
	"github.com/sells-group/geocollider/internal/model"
	"github.com/sells-group/geocollider/internal/spatial"
)

// PlaceRecord accumulates every point seen for one reference id.
type PlaceRecord struct {
	ID        string
	Points    []spatial.Point
	Precision model.Precision
}

// Locatable returns the points usable for spatial comparison: none when the
// record is marked unlocated.
func (r *PlaceRecord) Locatable() []spatial.Point {
	if r == nil || r.Precision.Unlocated() {
		return nil
	}
	return r.Points
}

// PlaceIndex maps reference ids to their PlaceRecord. Iteration follows
// first-insertion order.
type PlaceIndex struct {
	places map[string]*PlaceRecord
	order  []string
}

// NewPlaceIndex returns an empty PlaceIndex.
func NewPlaceIndex() *PlaceIndex {
	return &PlaceIndex{places: make(map[string]*PlaceRecord)}
}

func (p *PlaceIndex) record(id string) *PlaceRecord {
	if r, ok := p.places[id]; ok {
		return r
	}
	r := &PlaceRecord{ID: id}
	p.places[id] = r
	p.order = append(p.order, id)
	return r
}

// AddPoint appends pt to the points of id, creating the record if needed.
// Existing points are never replaced.
func (p *PlaceIndex) AddPoint(id string, pt spatial.Point) {
	r := p.record(id)
	r.Points = append(r.Points, pt)
}

// MergePrecision folds prec into the precision stored for id. Unknown
// precision is a no-op and does not create a record.
func (p *PlaceIndex) MergePrecision(id string, prec model.Precision) {
	if prec == model.PrecisionUnknown {
		return
	}
	r := p.record(id)
	r.Precision = r.Precision.Merge(prec)
}

// Get returns the record for id.
func (p *PlaceIndex) Get(id string) (*PlaceRecord, bool) {
	r, ok := p.places[id]
	return r, ok
}

// Locatable returns the spatially comparable points of id. Ids missing from
// the index have none.
func (p *PlaceIndex) Locatable(id string) []spatial.Point {
	r, ok := p.places[id]
	if !ok {
		return nil
	}
	return r.Locatable()
}

// Len returns the number of ids in the index.
func (p *PlaceIndex) Len() int {
	return len(p.places)
}

// Each calls fn for every record in insertion order.
func (p *PlaceIndex) Each(fn func(*PlaceRecord)) {
	for _, id := range p.order {
		fn(p.places[id])
	}
}
