// Package geo provides coordinate transforms, distance calculation, and
// polygon operations on WGS-84 (longitude, latitude) coordinates. Metric
// quantities use a spherical Web Mercator projection, which is accurate
// enough at basin scale for the risk engine's purposes.
package geo

import (
	"math"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// earthRadiusM is the WGS-84 equatorial radius used by Web Mercator.
const earthRadiusM = 6378137.0

// MetersPerDegree approximates the length of one degree at the equator.
const MetersPerDegree = 111320.0

// Point is a WGS-84 coordinate pair.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Validate rejects non-finite or out-of-range coordinates.
func (p Point) Validate() error {
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
		return domain.Validatef("coordinates", "non-finite value (%v, %v)", p.Lon, p.Lat)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return domain.Validatef("latitude", "must be between -90 and 90, got %v", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return domain.Validatef("longitude", "must be between -180 and 180, got %v", p.Lon)
	}
	return nil
}

// project converts a point to Web Mercator meters.
func project(p Point) (x, y float64) {
	x = earthRadiusM * p.Lon * math.Pi / 180
	y = earthRadiusM * math.Log(math.Tan(math.Pi/4+p.Lat*math.Pi/360))
	return x, y
}

// Distance returns the planar Web Mercator distance between two points
// in meters.
func Distance(a, b Point) float64 {
	ax, ay := project(a)
	bx, by := project(b)
	return math.Hypot(bx-ax, by-ay)
}

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Pad grows the box by d degrees on every side.
func (b BBox) Pad(d float64) BBox {
	return BBox{
		MinLon: b.MinLon - d,
		MinLat: b.MinLat - d,
		MaxLon: b.MaxLon + d,
		MaxLat: b.MaxLat + d,
	}
}

// BoundsOf computes the bounding box of a point set. Empty input yields
// the zero box.
func BoundsOf(points []Point) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	b := BBox{
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
	}
	for _, p := range points[1:] {
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
	}
	return b
}

// Buffer approximates a circular buffer of radius meters around a point as
// a polygon with the given number of segments. Radius must be positive and
// the center valid, otherwise a ValidationError is returned.
func Buffer(center Point, radiusM float64, segments int) (Polygon, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusM) || radiusM <= 0 {
		return nil, domain.Validatef("radius", "must be positive, got %v", radiusM)
	}
	if segments < 3 {
		segments = 32
	}

	cx, cy := project(center)
	ring := make(Polygon, segments)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		ring[i] = unproject(cx+radiusM*math.Cos(theta), cy+radiusM*math.Sin(theta))
	}
	return ring, nil
}

// unproject converts Web Mercator meters back to degrees.
func unproject(x, y float64) Point {
	return Point{
		Lon: x / earthRadiusM * 180 / math.Pi,
		Lat: (2*math.Atan(math.Exp(y/earthRadiusM)) - math.Pi/2) * 180 / math.Pi,
	}
}
