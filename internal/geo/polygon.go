package geo

import "math"

// Polygon is a simple ring of vertices in degrees, without a closing
// duplicate of the first vertex.
type Polygon []Point

// IsValid reports whether the ring has at least three vertices and
// non-zero area.
func (p Polygon) IsValid() bool {
	return len(p) >= 3 && math.Abs(p.signedAreaDegrees()) > 0
}

// signedAreaDegrees is the shoelace sum in squared degrees; sign encodes
// winding order.
func (p Polygon) signedAreaDegrees() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].Lon*p[j].Lat - p[j].Lon*p[i].Lat
	}
	return sum / 2
}

// AreaSquareMeters computes the ring area via the shoelace formula on
// Web Mercator projected vertices.
func (p Polygon) AreaSquareMeters() float64 {
	if len(p) < 3 {
		return 0
	}
	xs := make([]float64, len(p))
	ys := make([]float64, len(p))
	for i, pt := range p {
		xs[i], ys[i] = project(pt)
	}
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += xs[i]*ys[j] - xs[j]*ys[i]
	}
	return math.Abs(sum / 2)
}

// PerimeterDegrees is the ring's perimeter in degree lengths.
func (p Polygon) PerimeterDegrees() float64 {
	if len(p) < 2 {
		return 0
	}
	var total float64
	for i := range p {
		j := (i + 1) % len(p)
		total += math.Hypot(p[j].Lon-p[i].Lon, p[j].Lat-p[i].Lat)
	}
	return total
}

// Centroid returns the area-weighted centroid of the ring. Degenerate
// rings fall back to the vertex mean.
func (p Polygon) Centroid() Point {
	if len(p) == 0 {
		return Point{}
	}
	a := p.signedAreaDegrees()
	if a == 0 {
		var c Point
		for _, pt := range p {
			c.Lon += pt.Lon
			c.Lat += pt.Lat
		}
		c.Lon /= float64(len(p))
		c.Lat /= float64(len(p))
		return c
	}

	var cx, cy float64
	for i := range p {
		j := (i + 1) % len(p)
		cross := p[i].Lon*p[j].Lat - p[j].Lon*p[i].Lat
		cx += (p[i].Lon + p[j].Lon) * cross
		cy += (p[i].Lat + p[j].Lat) * cross
	}
	return Point{Lon: cx / (6 * a), Lat: cy / (6 * a)}
}

// Contains tests point-in-ring membership by ray casting. Points on an
// edge may land on either side.
func (p Polygon) Contains(pt Point) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		if (p[i].Lat > pt.Lat) != (p[j].Lat > pt.Lat) &&
			pt.Lon < (p[j].Lon-p[i].Lon)*(pt.Lat-p[i].Lat)/(p[j].Lat-p[i].Lat)+p[i].Lon {
			inside = !inside
		}
	}
	return inside
}

// ClipToBBox clips the ring to a bounding box with Sutherland-Hodgman.
// The result may be empty when the ring lies entirely outside the box.
func (p Polygon) ClipToBBox(b BBox) Polygon {
	type edge struct {
		inside    func(Point) bool
		intersect func(a, c Point) Point
	}

	lerp := func(a, c Point, t float64) Point {
		return Point{Lon: a.Lon + t*(c.Lon-a.Lon), Lat: a.Lat + t*(c.Lat-a.Lat)}
	}

	edges := []edge{
		{
			inside: func(pt Point) bool { return pt.Lon >= b.MinLon },
			intersect: func(a, c Point) Point {
				return lerp(a, c, (b.MinLon-a.Lon)/(c.Lon-a.Lon))
			},
		},
		{
			inside: func(pt Point) bool { return pt.Lon <= b.MaxLon },
			intersect: func(a, c Point) Point {
				return lerp(a, c, (b.MaxLon-a.Lon)/(c.Lon-a.Lon))
			},
		},
		{
			inside: func(pt Point) bool { return pt.Lat >= b.MinLat },
			intersect: func(a, c Point) Point {
				return lerp(a, c, (b.MinLat-a.Lat)/(c.Lat-a.Lat))
			},
		},
		{
			inside: func(pt Point) bool { return pt.Lat <= b.MaxLat },
			intersect: func(a, c Point) Point {
				return lerp(a, c, (b.MaxLat-a.Lat)/(c.Lat-a.Lat))
			},
		},
	}

	out := p
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = nil
		for i := range in {
			cur := in[i]
			prev := in[(i+len(in)-1)%len(in)]
			curIn, prevIn := e.inside(cur), e.inside(prev)
			if curIn {
				if !prevIn {
					out = append(out, e.intersect(prev, cur))
				}
				out = append(out, cur)
			} else if prevIn {
				out = append(out, e.intersect(prev, cur))
			}
		}
	}
	return out
}
