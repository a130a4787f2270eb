package source

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/sells-group/geocollider/internal/spatial"
)

// ShapePoint reduces a shapefile geometry to one representative point:
// points as-is, everything else by centroid. Returns nil, nil for nil or
// unsupported shapes.
func ShapePoint(shape shp.Shape) (*spatial.Point, error) {
	if shape == nil {
		return nil, nil
	}

	var g geom.T

	switch s := shape.(type) {
	case *shp.Point:
		return spatial.NewPoint(s.Y, s.X), nil

	case *shp.MultiPoint:
		g = multiPointToGeom(s)

	case *shp.PolyLine:
		g = polyLineToMultiLineString(s)

	case *shp.Polygon:
		g = polygonToMultiPolygon(s)

	default:
		return nil, nil
	}

	if g == nil {
		return nil, nil
	}

	c, err := xy.Centroid(g)
	if err != nil {
		return nil, eris.Wrap(err, "shapefile: centroid")
	}
	pt := spatial.FromCoord(c)
	return &pt, nil
}

func multiPointToGeom(mp *shp.MultiPoint) geom.T {
	if mp == nil || len(mp.Points) == 0 {
		return nil
	}
	return geom.NewMultiPointFlat(geom.XY, flatPoints(mp.Points)).SetSRID(spatial.SRID)
}

// polyLineToMultiLineString converts a shapefile PolyLine to a geom.MultiLineString.
func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(spatial.SRID)
	for _, part := range splitParts(pl.Parts, pl.Points) {
		if len(part) < 2 {
			continue
		}
		ls := geom.NewLineStringFlat(geom.XY, flatPoints(part))
		if err := mls.Push(ls); err != nil {
			continue
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefile outer rings run clockwise and holes counter-clockwise; each hole
// joins the outer ring before it.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(spatial.SRID)
	var poly *geom.Polygon
	flush := func() {
		if poly != nil && poly.NumLinearRings() > 0 {
			_ = mp.Push(poly)
		}
		poly = nil
	}

	for _, part := range splitParts(p.Parts, p.Points) {
		// A closed ring needs three distinct points plus the closing one.
		if len(part) < 4 {
			continue
		}
		flat := flatPoints(part)
		hole := xy.IsRingCounterClockwise(geom.XY, flat)
		if !hole || poly == nil {
			flush()
			poly = geom.NewPolygon(geom.XY)
		}
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// splitParts slices points at the part start offsets. Offsets outside the
// point slice are clamped.
func splitParts(parts []int32, points []shp.Point) [][]shp.Point {
	out := make([][]shp.Point, 0, len(parts))
	n := int32(len(points))
	for i, start := range parts {
		end := n
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		out = append(out, points[start:end])
	}
	return out
}

// flatPoints converts shapefile points to flat XY pairs for go-geom.
func flatPoints(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
