package annotations

import "math"

// Geometry transforms. Every operation returns a fresh geometry with deep
// copies of all vertex data; annotations referenced elsewhere are never
// mutated in place.

// Translate returns a copy of the annotation shifted by (dx, dy).
func (a Annotation) Translate(dx, dy float64) Annotation {
	a.Geometry = mapPoints(a.Geometry, func(p Point) Point {
		return Point{X: p.X + dx, Y: p.Y + dy}
	})
	return a
}

// Scale returns a copy scaled by (sx, sy) about the origin. Factors must
// be non-zero; negative factors mirror the geometry.
func (a Annotation) Scale(sx, sy float64) Annotation {
	a.Geometry = mapPoints(a.Geometry, func(p Point) Point {
		return Point{X: p.X * sx, Y: p.Y * sy}
	})
	return a
}

// Rotate returns a copy rotated by deg degrees counterclockwise about
// pivot. A Box rotated by a non-axis-aligned angle is no longer
// axis-aligned, so Box annotations come back as 4-vertex Polygons.
func (a Annotation) Rotate(deg float64, pivot Point) Annotation {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	rot := func(p Point) Point {
		x, y := p.X-pivot.X, p.Y-pivot.Y
		return Point{
			X: pivot.X + x*cos - y*sin,
			Y: pivot.Y + x*sin + y*cos,
		}
	}
	if b, ok := a.Geometry.(Box); ok {
		ring := make(Ring, 0, 4)
		for _, c := range b.Bounds().corners() {
			ring = append(ring, rot(c))
		}
		a.Geometry = Polygon{Exterior: ring}
		return a
	}
	a.Geometry = mapPoints(a.Geometry, rot)
	return a
}

// mapPoints applies f to every vertex, returning a new geometry. The
// switch is exhaustive over the sealed union; Box re-canonicalizes its
// corners so mirroring transforms keep min < max.
func mapPoints(g Geometry, f func(Point) Point) Geometry {
	switch v := g.(type) {
	case Point:
		return f(v)
	case MultiPoint:
		pts := make([]Point, len(v.Points))
		for i, p := range v.Points {
			pts[i] = f(p)
		}
		return MultiPoint{Points: pts}
	case Polygon:
		return mapPolygon(v, f)
	case MultiPolygon:
		parts := make([]Polygon, len(v.Parts))
		for i, part := range v.Parts {
			parts[i] = mapPolygon(part, f)
		}
		return MultiPolygon{Parts: parts}
	case Box:
		a := f(Point{v.XMin, v.YMin})
		b := f(Point{v.XMax, v.YMax})
		return Box{
			XMin: min2(a.X, b.X), YMin: min2(a.Y, b.Y),
			XMax: max2(a.X, b.X), YMax: max2(a.Y, b.Y),
		}
	}
	return g
}

func mapPolygon(pg Polygon, f func(Point) Point) Polygon {
	out := Polygon{Exterior: mapRing(pg.Exterior, f)}
	if len(pg.Interiors) > 0 {
		out.Interiors = make([]Ring, len(pg.Interiors))
		for i, hole := range pg.Interiors {
			out.Interiors[i] = mapRing(hole, f)
		}
	}
	return out
}

func mapRing(r Ring, f func(Point) Point) Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[i] = f(p)
	}
	return out
}
