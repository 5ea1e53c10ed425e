// Package spatial interpolates scattered risk samples into continuous
// surfaces and derives drainage-basin geometry and hydrology from gauge
// locations.
package spatial

import (
	"github.com/fogleman/delaunay"

	"github.com/couchcryptid/flood-risk-service/internal/geo"
)

// dedupePoints drops exact duplicate coordinates, keeping first occurrence
// order so downstream triangulation is deterministic.
func dedupePoints(points []geo.Point) []geo.Point {
	seen := make(map[geo.Point]struct{}, len(points))
	out := make([]geo.Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// triangulate runs Delaunay triangulation over the points. Degenerate
// inputs (all collinear) fail, which callers treat as "no surface".
func triangulate(points []geo.Point) (*delaunay.Triangulation, error) {
	dp := make([]delaunay.Point, len(points))
	for i, p := range points {
		dp[i] = delaunay.Point{X: p.Lon, Y: p.Lat}
	}
	return delaunay.Triangulate(dp)
}

// hullPoints returns the set of point indices on the triangulation's convex
// hull. An edge with no twin halfedge lies on the hull, and so do both of
// its endpoints.
func hullPoints(t *delaunay.Triangulation) map[int]bool {
	hull := make(map[int]bool)
	for e, twin := range t.Halfedges {
		if twin == -1 {
			hull[t.Triangles[e]] = true
			hull[t.Triangles[nextHalfedge(e)]] = true
		}
	}
	return hull
}

func nextHalfedge(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}

// circumcenter of the triangle (a, b, c). The denominator vanishes only
// for collinear vertices, which Delaunay triangulation excludes.
func circumcenter(a, b, c delaunay.Point) delaunay.Point {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	ux := ((a.X*a.X+a.Y*a.Y)*(b.Y-c.Y) + (b.X*b.X+b.Y*b.Y)*(c.Y-a.Y) + (c.X*c.X+c.Y*c.Y)*(a.Y-b.Y)) / d
	uy := ((a.X*a.X+a.Y*a.Y)*(c.X-b.X) + (b.X*b.X+b.Y*b.Y)*(a.X-c.X) + (c.X*c.X+c.Y*c.Y)*(b.X-a.X)) / d
	return delaunay.Point{X: ux, Y: uy}
}
