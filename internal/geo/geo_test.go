package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		ok    bool
	}{
		{"valid", Point{Lon: -97.74, Lat: 30.27}, true},
		{"extremes are valid", Point{Lon: 180, Lat: -90}, true},
		{"longitude out of range", Point{Lon: 181, Lat: 0}, false},
		{"latitude out of range", Point{Lon: 0, Lat: 90.5}, false},
		{"non-finite", Point{Lon: nan(), Lat: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))
			}
		})
	}
}

func TestDistance(t *testing.T) {
	austin := Point{Lon: -97.7431, Lat: 30.2672}

	assert.Zero(t, Distance(austin, austin))

	// One degree of longitude at the equator is roughly 111 km.
	a := Point{Lon: 0, Lat: 0}
	b := Point{Lon: 1, Lat: 0}
	assert.InDelta(t, 111320, Distance(a, b), 1000)

	// Symmetry.
	c := Point{Lon: -97.70, Lat: 30.30}
	assert.InDelta(t, Distance(austin, c), Distance(c, austin), 1e-9)
}

func TestBoundsOfAndPad(t *testing.T) {
	points := []Point{
		{Lon: -97.8, Lat: 30.2},
		{Lon: -97.6, Lat: 30.4},
		{Lon: -97.7, Lat: 30.3},
	}

	b := BoundsOf(points)
	assert.Equal(t, BBox{MinLon: -97.8, MinLat: 30.2, MaxLon: -97.6, MaxLat: 30.4}, b)

	padded := b.Pad(0.1)
	assert.InDelta(t, -97.9, padded.MinLon, 1e-9)
	assert.InDelta(t, 30.5, padded.MaxLat, 1e-9)

	assert.Equal(t, BBox{}, BoundsOf(nil))
}

func TestBuffer(t *testing.T) {
	center := Point{Lon: -97.7431, Lat: 30.2672}

	ring, err := Buffer(center, 1000, 16)
	require.NoError(t, err)
	require.Len(t, ring, 16)
	assert.True(t, ring.IsValid())

	// Every vertex sits close to the requested radius from the center.
	for _, v := range ring {
		assert.InDelta(t, 1000, Distance(center, v), 50)
	}

	_, err = Buffer(center, 0, 16)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = Buffer(Point{Lon: 300, Lat: 0}, 1000, 16)
	require.Error(t, err)
}

func TestPolygonArea(t *testing.T) {
	// A square roughly 1 km on a side near the equator, where Mercator
	// distortion is negligible.
	d := 1000.0 / MetersPerDegree
	square := Polygon{
		{Lon: 0, Lat: 0},
		{Lon: d, Lat: 0},
		{Lon: d, Lat: d},
		{Lon: 0, Lat: d},
	}

	assert.True(t, square.IsValid())
	assert.InDelta(t, 1e6, square.AreaSquareMeters(), 2e4)
	assert.InDelta(t, 4*d, square.PerimeterDegrees(), 1e-9)

	c := square.Centroid()
	assert.InDelta(t, d/2, c.Lon, 1e-9)
	assert.InDelta(t, d/2, c.Lat, 1e-9)
}

func TestPolygonIsValid(t *testing.T) {
	assert.False(t, Polygon{}.IsValid())
	assert.False(t, Polygon{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}}.IsValid())
	// Collinear ring has zero area.
	assert.False(t, Polygon{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}.IsValid())
}

func TestPolygonContains(t *testing.T) {
	triangle := Polygon{
		{Lon: 0, Lat: 0},
		{Lon: 4, Lat: 0},
		{Lon: 2, Lat: 4},
	}

	assert.True(t, triangle.Contains(Point{Lon: 2, Lat: 1}))
	assert.False(t, triangle.Contains(Point{Lon: 0, Lat: 3}))
	assert.False(t, triangle.Contains(Point{Lon: 5, Lat: 5}))
}

func TestClipToBBox(t *testing.T) {
	square := Polygon{
		{Lon: 0, Lat: 0},
		{Lon: 4, Lat: 0},
		{Lon: 4, Lat: 4},
		{Lon: 0, Lat: 4},
	}

	t.Run("fully inside is unchanged", func(t *testing.T) {
		clipped := square.ClipToBBox(BBox{MinLon: -1, MinLat: -1, MaxLon: 5, MaxLat: 5})
		assert.InDelta(t, square.AreaSquareMeters(), clipped.AreaSquareMeters(), 1)
	})

	t.Run("half clipped", func(t *testing.T) {
		clipped := square.ClipToBBox(BBox{MinLon: 2, MinLat: -1, MaxLon: 5, MaxLat: 5})
		require.True(t, clipped.IsValid())
		assert.InDelta(t, square.AreaSquareMeters()/2, clipped.AreaSquareMeters(), square.AreaSquareMeters()*0.01)
	})

	t.Run("fully outside is empty", func(t *testing.T) {
		clipped := square.ClipToBBox(BBox{MinLon: 10, MinLat: 10, MaxLon: 12, MaxLat: 12})
		assert.Empty(t, clipped)
	})
}

func nan() float64 {
	v := 0.0
	return v / v
}
