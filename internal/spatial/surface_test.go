package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/geo"
)

func unitSquareSamples(value float64) []Sample {
	return []Sample{
		{Location: geo.Point{Lon: 0, Lat: 0}, Value: value},
		{Location: geo.Point{Lon: 1, Lat: 0}, Value: value},
		{Location: geo.Point{Lon: 1, Lat: 1}, Value: value},
		{Location: geo.Point{Lon: 0, Lat: 1}, Value: value},
	}
}

func TestInterpolateSurface_Validation(t *testing.T) {
	samples := unitSquareSamples(50)

	t.Run("grid resolution too small", func(t *testing.T) {
		_, err := InterpolateSurface(samples, 1)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("non-finite value", func(t *testing.T) {
		bad := append([]Sample{}, samples...)
		bad[0].Value = nan()
		_, err := InterpolateSurface(bad, 10)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("invalid location", func(t *testing.T) {
		bad := append([]Sample{}, samples...)
		bad[0].Location = geo.Point{Lon: 500, Lat: 0}
		_, err := InterpolateSurface(bad, 10)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestInterpolateSurface_TooFewSamples(t *testing.T) {
	t.Run("two points", func(t *testing.T) {
		surface, err := InterpolateSurface([]Sample{
			{Location: geo.Point{Lon: 0, Lat: 0}, Value: 10},
			{Location: geo.Point{Lon: 1, Lat: 1}, Value: 20},
		}, 10)
		require.NoError(t, err)
		assert.True(t, surface.Empty())
	})

	t.Run("duplicates collapse below three", func(t *testing.T) {
		p := geo.Point{Lon: 0.5, Lat: 0.5}
		surface, err := InterpolateSurface([]Sample{
			{Location: p, Value: 10},
			{Location: p, Value: 10},
			{Location: geo.Point{Lon: 1, Lat: 1}, Value: 20},
		}, 10)
		require.NoError(t, err)
		assert.True(t, surface.Empty())
	})

	t.Run("collinear points", func(t *testing.T) {
		surface, err := InterpolateSurface([]Sample{
			{Location: geo.Point{Lon: 0, Lat: 0}, Value: 10},
			{Location: geo.Point{Lon: 1, Lat: 1}, Value: 20},
			{Location: geo.Point{Lon: 2, Lat: 2}, Value: 30},
		}, 10)
		require.NoError(t, err)
		assert.True(t, surface.Empty())
	})
}

func TestInterpolateSurface_ConstantField(t *testing.T) {
	const res = 20
	surface, err := InterpolateSurface(unitSquareSamples(50), res)
	require.NoError(t, err)
	require.False(t, surface.Empty())

	require.Len(t, surface.Lon, res)
	require.Len(t, surface.Lat, res)
	require.Len(t, surface.Values, res)
	for _, row := range surface.Values {
		require.Len(t, row, res)
	}

	// Axes span the padded bounding box.
	assert.InDelta(t, -0.1, surface.Lon[0], 1e-9)
	assert.InDelta(t, 1.1, surface.Lon[res-1], 1e-9)
	assert.InDelta(t, -0.1, surface.Lat[0], 1e-9)
	assert.InDelta(t, 1.1, surface.Lat[res-1], 1e-9)

	// The center sits deep inside the hull; smoothing over a constant
	// interior leaves it at the constant.
	assert.InDelta(t, 50, surface.Values[res/2][res/2], 1e-6)

	// Padding cells fall outside the hull and pull toward the 0 fill.
	assert.Less(t, surface.Values[0][0], 50.0)

	// Everything is clipped to the risk range.
	for _, row := range surface.Values {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestInterpolateSurface_GradientAndDeterminism(t *testing.T) {
	samples := []Sample{
		{Location: geo.Point{Lon: 0, Lat: 0}, Value: 0},
		{Location: geo.Point{Lon: 1, Lat: 0}, Value: 100},
		{Location: geo.Point{Lon: 1, Lat: 1}, Value: 100},
		{Location: geo.Point{Lon: 0, Lat: 1}, Value: 0},
	}

	first, err := InterpolateSurface(samples, 25)
	require.NoError(t, err)
	require.False(t, first.Empty())

	// Risk increases west to east across the middle row.
	mid := first.Values[12]
	assert.Less(t, mid[4], mid[12])
	assert.Less(t, mid[12], mid[20])

	second, err := InterpolateSurface(samples, 25)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func nan() float64 {
	v := 0.0
	return v / v
}
