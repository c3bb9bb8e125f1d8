package annotations

import "fmt"

// Level describes one resolution tier of a slide pyramid: its index and
// its downsample factor relative to level 0. Level 0 has downsample 1.
//
// The descriptor is consumed from the image-I/O collaborator; this package
// only uses it for coordinate mapping.
type Level struct {
	Index      int
	Downsample float64
}

// Validate rejects non-positive downsample factors.
func (l Level) Validate() error {
	if !(l.Downsample > 0) {
		return fmt.Errorf("level %d: downsample must be positive, got %g", l.Index, l.Downsample)
	}
	return nil
}

// Transform returns the affine mapping between this level's coordinate
// space and base (level 0) space, with no frame offset.
func (l Level) Transform() Transform {
	return Transform{Downsample: l.Downsample}
}

// Transform maps between a pyramid level's local coordinate space and the
// base (level 0) pixel space:
//
//	base = local*Downsample + Offset
//
// The offset covers windows expressed in a cropped or shifted frame. Both
// directions are a single multiply (or divide) and add per coordinate, so
// repeated zoom round-trips accumulate no error beyond IEEE-754 double
// rounding.
type Transform struct {
	Downsample       float64
	OffsetX, OffsetY float64
}

// ToBase maps a level-local coordinate to base space.
func (t Transform) ToBase(x, y float64) (float64, float64) {
	return x*t.Downsample + t.OffsetX, y*t.Downsample + t.OffsetY
}

// ToLevel maps a base coordinate to level-local space.
func (t Transform) ToLevel(x, y float64) (float64, float64) {
	return (x - t.OffsetX) / t.Downsample, (y - t.OffsetY) / t.Downsample
}

// RectToBase maps a level-local rectangle to base space.
func (t Transform) RectToBase(r Rect) Rect {
	minX, minY := t.ToBase(r.MinX, r.MinY)
	maxX, maxY := t.ToBase(r.MaxX, r.MaxY)
	return Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// RectToLevel maps a base rectangle to level-local space.
func (t Transform) RectToLevel(r Rect) Rect {
	minX, minY := t.ToLevel(r.MinX, r.MinY)
	maxX, maxY := t.ToLevel(r.MaxX, r.MaxY)
	return Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// CoordMode selects the coordinate space of query results.
type CoordMode int

const (
	// CoordBase returns result geometries in base (level 0) coordinates.
	CoordBase CoordMode = iota

	// CoordLevel returns result geometries mapped into the query level's
	// local coordinate space.
	CoordLevel
)
