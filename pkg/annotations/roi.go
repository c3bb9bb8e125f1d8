package annotations

import "github.com/dhconnelly/rtreego"

// RoiOverlap classifies a query hit against the region-of-interest union
// (or against the query window when the set declares no ROIs). The engine
// only classifies; clipping geometry vertices is the rasterizer's call.
type RoiOverlap int

const (
	// RoiOutside means no part of the geometry lies in the region.
	RoiOutside RoiOverlap = iota

	// RoiPartial means the geometry straddles the region boundary.
	RoiPartial

	// RoiInside means the geometry lies entirely within the region.
	RoiInside
)

func (o RoiOverlap) String() string {
	switch o {
	case RoiOutside:
		return "outside"
	case RoiPartial:
		return "partial"
	case RoiInside:
		return "inside"
	default:
		return "unknown"
	}
}

// roiEntry wraps one ROI shape for the mini-index.
type roiEntry struct {
	ann    Annotation
	bounds Rect
	rect   rtreego.Rect
}

func (e *roiEntry) Bounds() rtreego.Rect { return e.rect }

// roiIndex is the cached mini-index over the ROI shapes, built once at
// index construction (never lazily in the query path) and keyed by order.
type roiIndex struct {
	entries []*roiEntry // ascending order
	rtree   *rtreego.Rtree
	bounds  Rect // union bbox
}

func buildRoiIndex(rois []Annotation) *roiIndex {
	if len(rois) == 0 {
		return nil
	}
	ri := &roiIndex{bounds: emptyRect()}
	spatials := make([]rtreego.Spatial, 0, len(rois))
	for _, roi := range rois {
		e := &roiEntry{ann: roi, bounds: roi.Bounds()}
		e.rect = spatialRect(e.bounds)
		ri.bounds = ri.bounds.Union(e.bounds)
		ri.entries = append(ri.entries, e)
		spatials = append(spatials, e)
	}
	sortRoiEntries(ri.entries)
	ri.rtree = rtreego.NewTree(2, rtreeMinBranch, rtreeMaxBranch, spatials...)
	return ri
}

func sortRoiEntries(entries []*roiEntry) {
	// Insertion sort; ROI counts are small.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].ann.Order > entries[j].ann.Order; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

// candidates returns ROI shapes whose bounds intersect r.
func (ri *roiIndex) candidates(r Rect) []*roiEntry {
	if !ri.bounds.Intersects(r) {
		return nil
	}
	spatials := ri.rtree.SearchIntersect(searchRect(r))
	out := make([]*roiEntry, 0, len(spatials))
	for _, sp := range spatials {
		e := sp.(*roiEntry)
		if e.bounds.Intersects(r) {
			out = append(out, e)
		}
	}
	return out
}

// windowIntersects reports whether the window touches any ROI shape.
// A miss lets the query short-circuit to empty without ever touching the
// main index.
func (ri *roiIndex) windowIntersects(w Rect) bool {
	for _, e := range ri.candidates(w) {
		if e.ann.Geometry.IntersectsRect(w) {
			return true
		}
	}
	return false
}

// clipWindow shrinks the window to the ROI union bounds.
func (ri *roiIndex) clipWindow(w Rect) Rect {
	return w.Intersect(ri.bounds)
}

// contains reports membership of a point in the ROI union.
func (ri *roiIndex) contains(x, y float64, candidates []*roiEntry) bool {
	for _, e := range candidates {
		if e.ann.Geometry.Contains(x, y) {
			return true
		}
	}
	return false
}

// classify reports whether g is fully inside, fully outside or partially
// overlapping the ROI union. Boundary contact is conservatively reported
// as partial so rasterizers that clip do not lose edge pixels.
func (ri *roiIndex) classify(g Geometry) RoiOverlap {
	cands := ri.candidates(g.Bounds())
	if len(cands) == 0 {
		return RoiOutside
	}

	verts := geometryVertices(g)
	allInside, anyInside := true, false
	for _, v := range verts {
		if ri.contains(v.X, v.Y, cands) {
			anyInside = true
		} else {
			allInside = false
		}
	}

	crossing := false
	edges := geometryEdges(g)
	for _, e := range cands {
		for _, roiEdge := range geometryEdges(e.ann.Geometry) {
			for _, gEdge := range edges {
				if segmentsIntersect(gEdge[0], gEdge[1], roiEdge[0], roiEdge[1]) {
					crossing = true
					break
				}
			}
			if crossing {
				break
			}
		}
		if crossing {
			break
		}
	}

	if allInside && !crossing {
		return RoiInside
	}
	if anyInside || crossing {
		return RoiPartial
	}
	// The geometry may still enclose an ROI entirely.
	for _, e := range cands {
		for _, v := range geometryVertices(e.ann.Geometry) {
			if g.Contains(v.X, v.Y) {
				return RoiPartial
			}
		}
	}
	return RoiOutside
}

// classifyRect classifies a geometry against a plain rectangle; used for
// the query window when the set declares no ROIs. Exact: a geometry lies
// fully inside a closed rectangle iff its bounding box does.
func classifyRect(g Geometry, r Rect) RoiOverlap {
	if r.ContainsRect(g.Bounds()) {
		return RoiInside
	}
	if g.IntersectsRect(r) {
		return RoiPartial
	}
	return RoiOutside
}

// geometryVertices returns the vertex set of a geometry; Box contributes
// its four corners.
func geometryVertices(g Geometry) []Point {
	switch v := g.(type) {
	case Point:
		return []Point{v}
	case MultiPoint:
		return v.Points
	case Polygon:
		out := append([]Point(nil), v.Exterior...)
		for _, hole := range v.Interiors {
			out = append(out, hole...)
		}
		return out
	case MultiPolygon:
		var out []Point
		for _, part := range v.Parts {
			out = append(out, geometryVertices(part)...)
		}
		return out
	case Box:
		c := v.Bounds().corners()
		return c[:]
	}
	return nil
}

// geometryEdges returns the closed boundary edges of a geometry. Point
// kinds have none.
func geometryEdges(g Geometry) [][2]Point {
	switch v := g.(type) {
	case Point, MultiPoint:
		return nil
	case Polygon:
		out := ringEdges(v.Exterior)
		for _, hole := range v.Interiors {
			out = append(out, ringEdges(hole)...)
		}
		return out
	case MultiPolygon:
		var out [][2]Point
		for _, part := range v.Parts {
			out = append(out, geometryEdges(part)...)
		}
		return out
	case Box:
		c := v.Bounds().corners()
		return [][2]Point{{c[0], c[1]}, {c[1], c[2]}, {c[2], c[3]}, {c[3], c[0]}}
	}
	return nil
}

func ringEdges(r Ring) [][2]Point {
	out := make([][2]Point, 0, len(r))
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		out = append(out, [2]Point{r[j], r[i]})
	}
	return out
}
