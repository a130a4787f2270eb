// Package spatial holds the point type shared by every record source and the
// great-circle distance predicate used to confirm name matches.
package spatial

import (
	"math"

	"github.com/twpayne/go-geom"
)

// DefaultThresholdKM is the match radius used when none is configured. It
// reflects the coordinate drift typical between independently surveyed
// gazetteers.
const DefaultThresholdKM = 8.0

// EarthRadiusKM is the IUGG mean Earth radius.
const EarthRadiusKM = 6371.0088

// SRID is the spatial reference of every Point (WGS 84).
const SRID = 4326

// Point is a latitude/longitude pair in degrees. Values are not range
// checked; out-of-range coordinates simply fail to match.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// NewPoint returns a pointer to a Point, for optional point fields.
func NewPoint(lat, lon float64) *Point {
	return &Point{Latitude: lat, Longitude: lon}
}

// Geom returns the point as a go-geom XY point (x = longitude).
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Longitude, p.Latitude}).SetSRID(SRID)
}

// FromCoord converts an XY go-geom coordinate to a Point.
func FromCoord(c geom.Coord) Point {
	return Point{Latitude: c.Y(), Longitude: c.X()}
}

// DistanceKM returns the haversine distance between a and b in kilometers.
func DistanceKM(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h marginally past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(h))
}

// WithinThreshold reports whether a and b are at most thresholdKM apart.
// NaN coordinates never match.
func WithinThreshold(a, b Point, thresholdKM float64) bool {
	return DistanceKM(a, b) <= thresholdKM
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
