package annotations

import "math"

// GeometryKind identifies one of the five geometry variants.
type GeometryKind int

const (
	// KindPoint is a single (x, y) location.
	KindPoint GeometryKind = iota

	// KindMultiPoint is an ordered sequence of points.
	KindMultiPoint

	// KindPolygon is an exterior ring with optional interior rings (holes).
	KindPolygon

	// KindMultiPolygon is an ordered sequence of polygons.
	KindMultiPolygon

	// KindBox is an axis-aligned rectangle.
	KindBox
)

// String returns the element name used for this kind in the document format.
func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindMultiPoint:
		return "MultiPoint"
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	case KindBox:
		return "Box"
	default:
		return "Unknown"
	}
}

// Geometry is the closed union over the five annotation geometry kinds:
// Point, MultiPoint, Polygon, MultiPolygon and Box.
//
// The union is sealed; consumers switch exhaustively on Kind() (or
// type-switch over the five concrete types) and can rely on no further
// kinds appearing.
//
// All coordinates are in base (level 0) pixel space of the slide. Use
// Transform to map windows or results between pyramid levels.
type Geometry interface {
	// Kind returns the variant tag.
	Kind() GeometryKind

	// Bounds returns the minimal axis-aligned bounding rectangle.
	Bounds() Rect

	// Contains reports whether (x, y) lies inside the geometry.
	// Boundary points count as inside. For Point and MultiPoint this
	// is exact coordinate equality.
	Contains(x, y float64) bool

	// IntersectsRect reports whether the geometry intersects the
	// axis-aligned rectangle r. Touching the boundary counts.
	IntersectsRect(r Rect) bool

	sealed()
}

// Point is a single annotated location.
type Point struct {
	X, Y float64
}

// MultiPoint is an ordered sequence of points sharing one annotation.
type MultiPoint struct {
	Points []Point
}

// Ring is an ordered sequence of at least 3 distinct vertices, implicitly
// closed (the last vertex connects back to the first).
type Ring []Point

// Polygon is an exterior ring with optional interior rings (holes).
type Polygon struct {
	Exterior  Ring
	Interiors []Ring
}

// MultiPolygon is an ordered sequence of polygon parts sharing one
// annotation. Parts carry no metadata of their own.
type MultiPolygon struct {
	Parts []Polygon
}

// Box is an axis-aligned rectangle with XMin < XMax and YMin < YMax.
type Box struct {
	XMin, YMin, XMax, YMax float64
}

func (Point) Kind() GeometryKind        { return KindPoint }
func (MultiPoint) Kind() GeometryKind   { return KindMultiPoint }
func (Polygon) Kind() GeometryKind      { return KindPolygon }
func (MultiPolygon) Kind() GeometryKind { return KindMultiPolygon }
func (Box) Kind() GeometryKind          { return KindBox }

func (Point) sealed()        {}
func (MultiPoint) sealed()   {}
func (Polygon) sealed()      {}
func (MultiPolygon) sealed() {}
func (Box) sealed()          {}

// Bounds returns a zero-area rectangle at the point.
func (p Point) Bounds() Rect {
	return Rect{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
}

func (m MultiPoint) Bounds() Rect {
	b := emptyRect()
	for _, p := range m.Points {
		b = b.ExpandPoint(p.X, p.Y)
	}
	return b
}

// Bounds returns the bounding rectangle of the exterior ring. Interior
// rings lie within the exterior by construction and cannot extend it.
func (pg Polygon) Bounds() Rect {
	return ringBounds(pg.Exterior)
}

func (mp MultiPolygon) Bounds() Rect {
	b := emptyRect()
	for _, part := range mp.Parts {
		b = b.Union(part.Bounds())
	}
	return b
}

func (b Box) Bounds() Rect {
	return Rect{MinX: b.XMin, MinY: b.YMin, MaxX: b.XMax, MaxY: b.YMax}
}

func ringBounds(r Ring) Rect {
	b := emptyRect()
	for _, p := range r {
		b = b.ExpandPoint(p.X, p.Y)
	}
	return b
}

// Rect is an axis-aligned rectangle in base-level pixel coordinates.
// Intervals are closed: geometries touching an edge intersect the rect,
// which is what makes degenerate (zero width or height) query windows
// still match boundary-touching geometries.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// WindowRect builds a Rect from a tile-window request (origin + size).
func WindowRect(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Valid reports whether the rectangle is canonical (non-negative extent).
func (r Rect) Valid() bool {
	return r.MinX <= r.MaxX && r.MinY <= r.MaxY
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Intersects reports whether r and o overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX &&
		r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// ContainsPoint reports whether (x, y) lies in r, boundary included.
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// ContainsRect reports whether o lies entirely within r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.MinX >= r.MinX && o.MaxX <= r.MaxX &&
		o.MinY >= r.MinY && o.MaxY <= r.MaxY
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.isEmpty() {
		return o
	}
	if o.isEmpty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Intersect returns the overlap of r and o, clipped to o. The result is
// non-canonical when the rectangles do not intersect.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		MinX: math.Max(r.MinX, o.MinX),
		MinY: math.Max(r.MinY, o.MinY),
		MaxX: math.Min(r.MaxX, o.MaxX),
		MaxY: math.Min(r.MaxY, o.MaxY),
	}
}

// ExpandPoint grows r to include (x, y).
func (r Rect) ExpandPoint(x, y float64) Rect {
	if r.isEmpty() {
		return Rect{MinX: x, MinY: y, MaxX: x, MaxY: y}
	}
	return Rect{
		MinX: math.Min(r.MinX, x),
		MinY: math.Min(r.MinY, y),
		MaxX: math.Max(r.MaxX, x),
		MaxY: math.Max(r.MaxY, y),
	}
}

func (r Rect) corners() [4]Point {
	return [4]Point{
		{r.MinX, r.MinY},
		{r.MaxX, r.MinY},
		{r.MaxX, r.MaxY},
		{r.MinX, r.MaxY},
	}
}

func (r Rect) isEmpty() bool {
	return r.MinX > r.MaxX || r.MinY > r.MaxY
}

// emptyRect is the identity for Union/ExpandPoint.
func emptyRect() Rect {
	return Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}
