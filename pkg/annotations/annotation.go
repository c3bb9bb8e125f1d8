package annotations

import (
	"github.com/google/uuid"

	"github.com/slidelab/annotations/internal/dlupxml"
)

// Annotation is a top-level annotated geometry: one of the five geometry
// kinds plus its presentation metadata.
//
// Polygon, MultiPolygon and Box annotations carry a draw/precedence Order
// (lowest drawn first); free-floating Point and MultiPoint annotations do
// not. Index, when set, is a stable identifier unique within the set.
type Annotation struct {
	Geometry Geometry
	Label    string // required, non-empty
	Color    string // optional "#RRGGBB", uppercase
	Order    int    // meaningful only when OrderBearing()
	Index    string // optional stable identifier
}

// OrderBearing reports whether this annotation kind carries an order.
func (a Annotation) OrderBearing() bool {
	switch a.Geometry.Kind() {
	case KindPolygon, KindMultiPolygon, KindBox:
		return true
	case KindPoint, KindMultiPoint:
		return false
	}
	return false
}

// Bounds returns the bounding rectangle of the underlying geometry.
func (a Annotation) Bounds() Rect {
	return a.Geometry.Bounds()
}

func (a Annotation) validate() error {
	if a.Geometry == nil {
		return &ValidationError{Pos: -1, Label: a.Label, Reason: "nil geometry"}
	}
	if a.Label == "" {
		return &ValidationError{Kind: a.Geometry.Kind(), Pos: -1, Reason: "empty label"}
	}
	if a.Color != "" && !dlupxml.ValidColor(a.Color) {
		return &ValidationError{
			Kind: a.Geometry.Kind(), Label: a.Label, Pos: -1,
			Reason: "color " + a.Color + ` does not match "#RRGGBB"`,
		}
	}
	return nil
}

// NewIndexID mints a stable identifier suitable for Annotation.Index when
// authoring annotations programmatically.
func NewIndexID() string {
	return uuid.NewString()
}
