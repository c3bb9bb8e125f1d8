package annotations

import "fmt"

// Geometry constructors. All structural invariants are enforced here, at
// construction time; queries never re-validate.

// NewRing builds a ring from a flat [x0 y0 x1 y1 ...] coordinate sequence.
func NewRing(coords []float64) (Ring, error) {
	if len(coords)%2 != 0 {
		return nil, &ValidationError{
			Kind: KindPolygon, Pos: -1,
			Reason: fmt.Sprintf("odd coordinate count %d, expected (x, y) pairs", len(coords)),
		}
	}
	ring := make(Ring, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		ring = append(ring, Point{X: coords[i], Y: coords[i+1]})
	}
	return ring, nil
}

// NewPolygon validates and builds a polygon from an exterior ring and
// optional interior rings.
func NewPolygon(exterior Ring, interiors ...Ring) (Polygon, error) {
	pg := Polygon{Exterior: normalizeRing(exterior), Interiors: make([]Ring, 0, len(interiors))}
	if err := validateRing(pg.Exterior, "exterior ring"); err != nil {
		return Polygon{}, err
	}
	outer := ringBounds(pg.Exterior)
	for i, hole := range interiors {
		h := normalizeRing(hole)
		if err := validateRing(h, fmt.Sprintf("interior ring %d", i)); err != nil {
			return Polygon{}, err
		}
		if !outer.ContainsRect(ringBounds(h)) {
			return Polygon{}, &ValidationError{
				Kind: KindPolygon, Pos: -1,
				Reason: fmt.Sprintf("interior ring %d extends outside the exterior ring bounds", i),
			}
		}
		pg.Interiors = append(pg.Interiors, h)
	}
	return pg, nil
}

// NewMultiPolygon validates every part.
func NewMultiPolygon(parts ...Polygon) (MultiPolygon, error) {
	mp := MultiPolygon{Parts: make([]Polygon, 0, len(parts))}
	for i, part := range parts {
		validated, err := NewPolygon(part.Exterior, part.Interiors...)
		if err != nil {
			ve := err.(*ValidationError)
			ve.Kind = KindMultiPolygon
			ve.Reason = fmt.Sprintf("part %d: %s", i, ve.Reason)
			return MultiPolygon{}, ve
		}
		mp.Parts = append(mp.Parts, validated)
	}
	if len(mp.Parts) == 0 {
		return MultiPolygon{}, &ValidationError{
			Kind: KindMultiPolygon, Pos: -1, Reason: "no polygon parts",
		}
	}
	return mp, nil
}

// NewBox validates the xMin<xMax, yMin<yMax invariant.
func NewBox(xMin, yMin, xMax, yMax float64) (Box, error) {
	if xMin >= xMax || yMin >= yMax {
		return Box{}, &ValidationError{
			Kind: KindBox, Pos: -1,
			Reason: fmt.Sprintf("inverted or empty box [%g,%g,%g,%g]", xMin, yMin, xMax, yMax),
		}
	}
	return Box{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax}, nil
}

// NewMultiPoint requires at least one point.
func NewMultiPoint(points ...Point) (MultiPoint, error) {
	if len(points) == 0 {
		return MultiPoint{}, &ValidationError{
			Kind: KindMultiPoint, Pos: -1, Reason: "no points",
		}
	}
	return MultiPoint{Points: append([]Point(nil), points...)}, nil
}

// normalizeRing drops an explicit closing vertex; rings are implicitly
// closed.
func normalizeRing(r Ring) Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

func validateRing(r Ring, what string) error {
	if n := distinctPoints(r); n < 3 {
		return &ValidationError{
			Kind: KindPolygon, Pos: -1,
			Reason: fmt.Sprintf("%s has %d distinct points, need at least 3", what, n),
		}
	}
	if i, j, found := ringSelfIntersection(r); found {
		return &ValidationError{
			Kind: KindPolygon, Pos: -1,
			Reason: fmt.Sprintf("%s self-intersects (edges %d and %d)", what, i, j),
		}
	}
	return nil
}

func distinctPoints(r Ring) int {
	seen := make(map[Point]struct{}, len(r))
	for _, p := range r {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// ringSelfIntersection checks every non-adjacent edge pair of the
// implicitly closed ring. Adjacent edges share a vertex and are skipped.
// O(n^2), acceptable: rings are validated once at construction.
func ringSelfIntersection(r Ring) (int, int, bool) {
	n := len(r)
	edge := func(i int) (Point, Point) {
		return r[i], r[(i+1)%n]
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Skip adjacent edges (including the wrap-around pair).
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			a, b := edge(i)
			c, d := edge(j)
			if segmentsIntersect(a, b, c, d) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
