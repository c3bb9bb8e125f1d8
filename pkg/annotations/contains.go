package annotations

// Point-in-polygon and polygon-rectangle intersection primitives.
//
// Containment uses an even-odd ray cast with an explicit on-boundary check
// first, so boundary points always count as inside regardless of ray
// numerics. Holes subtract: a point inside an interior ring is outside the
// polygon.

// Contains reports exact coordinate equality.
func (p Point) Contains(x, y float64) bool {
	return p.X == x && p.Y == y
}

func (m MultiPoint) Contains(x, y float64) bool {
	for _, p := range m.Points {
		if p.X == x && p.Y == y {
			return true
		}
	}
	return false
}

func (pg Polygon) Contains(x, y float64) bool {
	if !pointInRing(x, y, pg.Exterior) {
		return false
	}
	for _, hole := range pg.Interiors {
		// Boundary of a hole still belongs to the polygon.
		if pointOnRing(x, y, hole) {
			return true
		}
		if pointInRing(x, y, hole) {
			return false
		}
	}
	return true
}

func (mp MultiPolygon) Contains(x, y float64) bool {
	for _, part := range mp.Parts {
		if part.Contains(x, y) {
			return true
		}
	}
	return false
}

func (b Box) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// pointInRing reports whether (x, y) is inside or on the ring boundary.
func pointInRing(x, y float64, ring Ring) bool {
	if len(ring) < 3 {
		return false
	}
	if pointOnRing(x, y, ring) {
		return true
	}
	// Even-odd ray cast toward +x.
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].X, ring[i].Y
		xj, yj := ring[j].X, ring[j].Y
		if (yi > y) != (yj > y) {
			if x < (xj-xi)*(y-yi)/(yj-yi)+xi {
				inside = !inside
			}
		}
	}
	return inside
}

// pointOnRing reports whether (x, y) lies on any ring edge.
func pointOnRing(x, y float64, ring Ring) bool {
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		if pointOnSegment(Point{x, y}, ring[j], ring[i]) {
			return true
		}
	}
	return false
}

// pointOnSegment reports whether p lies on the closed segment ab.
func pointOnSegment(p, a, b Point) bool {
	if cross(a, b, p) != 0 {
		return false
	}
	return min2(a.X, b.X) <= p.X && p.X <= max2(a.X, b.X) &&
		min2(a.Y, b.Y) <= p.Y && p.Y <= max2(a.Y, b.Y)
}

// cross returns the z-component of (b-a) x (p-a).
func cross(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// segmentsIntersect reports whether closed segments ab and cd intersect,
// including touching endpoints and collinear overlap.
func segmentsIntersect(a, b, c, d Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && pointOnSegment(a, c, d)) ||
		(d2 == 0 && pointOnSegment(b, c, d)) ||
		(d3 == 0 && pointOnSegment(c, a, b)) ||
		(d4 == 0 && pointOnSegment(d, a, b))
}

// segmentIntersectsRect reports whether segment ab intersects rectangle r.
func segmentIntersectsRect(a, b Point, r Rect) bool {
	if r.ContainsPoint(a.X, a.Y) || r.ContainsPoint(b.X, b.Y) {
		return true
	}
	c := r.corners()
	return segmentsIntersect(a, b, c[0], c[1]) ||
		segmentsIntersect(a, b, c[1], c[2]) ||
		segmentsIntersect(a, b, c[2], c[3]) ||
		segmentsIntersect(a, b, c[3], c[0])
}

func (p Point) IntersectsRect(r Rect) bool {
	return r.ContainsPoint(p.X, p.Y)
}

func (m MultiPoint) IntersectsRect(r Rect) bool {
	for _, p := range m.Points {
		if r.ContainsPoint(p.X, p.Y) {
			return true
		}
	}
	return false
}

// IntersectsRect is the exact refine step behind index queries: a bounding
// box prefilter, then vertex containment both ways, then edge crossings.
// A rectangle entirely inside a hole reaches none of these and reports
// false.
func (pg Polygon) IntersectsRect(r Rect) bool {
	if !pg.Bounds().Intersects(r) {
		return false
	}
	for _, v := range pg.Exterior {
		if r.ContainsPoint(v.X, v.Y) {
			return true
		}
	}
	for _, corner := range r.corners() {
		if pg.Contains(corner.X, corner.Y) {
			return true
		}
	}
	if ringIntersectsRectEdges(pg.Exterior, r) {
		return true
	}
	for _, hole := range pg.Interiors {
		if ringIntersectsRectEdges(hole, r) {
			return true
		}
	}
	return false
}

func (mp MultiPolygon) IntersectsRect(r Rect) bool {
	for _, part := range mp.Parts {
		if part.IntersectsRect(r) {
			return true
		}
	}
	return false
}

func (b Box) IntersectsRect(r Rect) bool {
	return b.Bounds().Intersects(r)
}

func ringIntersectsRectEdges(ring Ring, r Rect) bool {
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		if segmentIntersectsRect(ring[j], ring[i], r) {
			return true
		}
	}
	return false
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
