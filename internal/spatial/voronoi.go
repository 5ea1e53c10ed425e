package spatial

import (
	"math"
	"sort"

	"github.com/fogleman/delaunay"

	"github.com/couchcryptid/flood-risk-service/internal/geo"
)

// BuildDrainageBasins partitions the plane into Voronoi cells around the
// gauge locations and returns the bounded cells as approximate drainage
// basins. Fewer than three distinct points, or degenerate (collinear)
// input, yields an empty result. Cells owned by convex-hull points extend
// to infinity and are discarded rather than approximated, as are cells
// with fewer than three vertices. When bbox is non-nil every cell is
// clipped to it and empty or invalid remainders are dropped.
func BuildDrainageBasins(gaugeLocations []geo.Point, bbox *geo.BBox) []geo.Polygon {
	points := dedupePoints(gaugeLocations)
	if len(points) < 3 {
		return nil
	}

	tri, err := triangulate(points)
	if err != nil {
		return nil
	}

	// Voronoi vertices are the circumcenters of the Delaunay triangles.
	centers := make([]delaunay.Point, len(tri.Triangles)/3)
	for t := 0; t < len(tri.Triangles); t += 3 {
		centers[t/3] = circumcenter(
			tri.Points[tri.Triangles[t]],
			tri.Points[tri.Triangles[t+1]],
			tri.Points[tri.Triangles[t+2]],
		)
	}

	// Triangles incident to each point, in triangulation order.
	incident := make([][]int, len(points))
	for e, p := range tri.Triangles {
		incident[p] = append(incident[p], e/3)
	}

	hull := hullPoints(tri)

	var basins []geo.Polygon
	for i := range points {
		if hull[i] {
			continue
		}
		cell := voronoiCell(points[i], incident[i], centers)
		if len(cell) < 3 {
			continue
		}
		if bbox != nil {
			cell = cell.ClipToBBox(*bbox)
		}
		if cell.IsValid() {
			basins = append(basins, cell)
		}
	}
	return basins
}

// voronoiCell orders the circumcenters of a site's incident triangles
// counterclockwise around the site. An interior site always lies inside
// its convex cell, so the angular order is the boundary order.
func voronoiCell(site geo.Point, triangles []int, centers []delaunay.Point) geo.Polygon {
	seen := make(map[int]bool, len(triangles))
	cell := make(geo.Polygon, 0, len(triangles))
	for _, t := range triangles {
		if seen[t] {
			continue
		}
		seen[t] = true
		cell = append(cell, geo.Point{Lon: centers[t].X, Lat: centers[t].Y})
	}

	sort.SliceStable(cell, func(a, b int) bool {
		angleA := math.Atan2(cell[a].Lat-site.Lat, cell[a].Lon-site.Lon)
		angleB := math.Atan2(cell[b].Lat-site.Lat, cell[b].Lon-site.Lon)
		return angleA < angleB
	})
	return cell
}
