package spatial

import (
	"math"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/geo"
)

// gridPaddingDeg is the margin added around the sample bounding box.
const gridPaddingDeg = 0.1

// smoothingSigma is the Gaussian kernel scale in grid cells.
const smoothingSigma = 1.0

// Sample is one scattered (location, risk score) observation.
type Sample struct {
	Location geo.Point
	Value    float64
}

// Surface is an interpolated risk grid. Values[i][j] is the risk at
// (Lat[i], Lon[j]), clipped to [0,100].
type Surface struct {
	Lon    []float64   `json:"longitude"`
	Lat    []float64   `json:"latitude"`
	Values [][]float64 `json:"risk_values"`
}

// Empty reports whether no surface could be built.
func (s Surface) Empty() bool {
	return len(s.Values) == 0
}

// InterpolateSurface builds a gridResolution x gridResolution risk surface
// from scattered samples. Fewer than three distinct samples, or samples
// without two-dimensional spread, yield an empty surface rather than an
// error. Interpolation is piecewise-linear barycentric over the Delaunay
// triangulation of the samples, deterministic for identical inputs, with
// grid points outside the convex hull filled with 0. A Gaussian smoothing
// pass (sigma of one grid cell) and clipping to [0,100] follow.
func InterpolateSurface(samples []Sample, gridResolution int) (Surface, error) {
	if gridResolution < 2 {
		return Surface{}, domain.Validatef("grid_resolution", "must be at least 2, got %d", gridResolution)
	}
	points := make([]geo.Point, len(samples))
	values := make(map[geo.Point]float64, len(samples))
	for i, s := range samples {
		if err := s.Location.Validate(); err != nil {
			return Surface{}, err
		}
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return Surface{}, domain.Validatef("sample_value", "non-finite value")
		}
		points[i] = s.Location
		if _, ok := values[s.Location]; !ok {
			values[s.Location] = s.Value
		}
	}

	points = dedupePoints(points)
	if len(points) < 3 {
		return Surface{}, nil
	}

	tri, err := triangulate(points)
	if err != nil {
		// Collinear samples have no interior to interpolate.
		return Surface{}, nil
	}

	bounds := geo.BoundsOf(points).Pad(gridPaddingDeg)
	lonAxis := floats.Span(make([]float64, gridResolution), bounds.MinLon, bounds.MaxLon)
	latAxis := floats.Span(make([]float64, gridResolution), bounds.MinLat, bounds.MaxLat)

	sampleValues := make([]float64, len(points))
	for i, p := range points {
		sampleValues[i] = values[p]
	}

	grid := make([][]float64, gridResolution)
	for i, lat := range latAxis {
		row := make([]float64, gridResolution)
		for j, lon := range lonAxis {
			row[j] = interpolateAt(tri, sampleValues, delaunay.Point{X: lon, Y: lat})
		}
		grid[i] = row
	}

	gaussianSmooth(grid, smoothingSigma)
	clipGrid(grid, 0, 100)

	return Surface{Lon: lonAxis, Lat: latAxis, Values: grid}, nil
}

// interpolateAt evaluates the piecewise-linear interpolant at p. The first
// triangle (in triangulation order) containing p wins, which fixes the
// tie-break for points exactly on shared edges. Points outside every
// triangle take the fill value 0.
func interpolateAt(tri *delaunay.Triangulation, values []float64, p delaunay.Point) float64 {
	const eps = 1e-12
	for t := 0; t < len(tri.Triangles); t += 3 {
		ia, ib, ic := tri.Triangles[t], tri.Triangles[t+1], tri.Triangles[t+2]
		a, b, c := tri.Points[ia], tri.Points[ib], tri.Points[ic]

		den := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
		if den == 0 {
			continue
		}
		w0 := ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / den
		w1 := ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / den
		w2 := 1 - w0 - w1

		if w0 >= -eps && w1 >= -eps && w2 >= -eps {
			return w0*values[ia] + w1*values[ib] + w2*values[ic]
		}
	}
	return 0
}

// gaussianSmooth applies a separable Gaussian blur in place with reflected
// edges, matching the behavior of common scientific filters.
func gaussianSmooth(grid [][]float64, sigma float64) {
	if len(grid) == 0 || sigma <= 0 {
		return
	}

	radius := int(math.Round(4 * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	rows, cols := len(grid), len(grid[0])
	reflect := func(i, n int) int {
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			}
			if i >= n {
				i = 2*n - i - 1
			}
		}
		return i
	}

	// Horizontal pass.
	tmp := make([]float64, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var v float64
			for k, w := range kernel {
				v += w * grid[r][reflect(c+k-radius, cols)]
			}
			tmp[c] = v
		}
		copy(grid[r], tmp)
	}

	// Vertical pass.
	col := make([]float64, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			var v float64
			for k, w := range kernel {
				v += w * grid[reflect(r+k-radius, rows)][c]
			}
			col[r] = v
		}
		for r := 0; r < rows; r++ {
			grid[r][c] = col[r]
		}
	}
}

func clipGrid(grid [][]float64, lo, hi float64) {
	for _, row := range grid {
		for i, v := range row {
			row[i] = math.Max(lo, math.Min(v, hi))
		}
	}
}
