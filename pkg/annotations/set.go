package annotations

import "fmt"

// Handle is a stable integer identifier for an annotation within its set.
// Handles survive removals of other annotations; the spatial index stores
// handles, never geometry copies.
type Handle int

// Metadata describes the provenance of an annotation set.
//
// DateCreated is kept as the ISO date string from the document so saves
// round-trip byte-for-byte.
type Metadata struct {
	ImageID     string
	Description string
	Version     string
	Authors     []string
	DateCreated string // ISO date, YYYY-MM-DD
	Software    string
}

// Tag is a named label/color entry used purely for presentation. Tags
// have no geometric effect.
type Tag struct {
	Label      string
	Color      string
	Attributes []TagAttribute
}

// TagAttribute is a colored text entry under a Tag.
type TagAttribute struct {
	Color string
	Text  string
}

// AnnotationSet owns the annotations of one slide: metadata, presentation
// tags, the geometry table and optional regions of interest.
//
// A set is constructed by Load or programmatically with NewAnnotationSet.
// It has no background goroutines. Once an Index has been built, the set
// may be shared read-only across any number of query workers. Mutating it
// (Add, Remove, ReplaceGeometry, ...) requires that the caller guarantee
// no queries are in flight; every mutation bumps an internal generation
// so a stale Index refuses further queries rather than returning results
// from a set it no longer matches.
type AnnotationSet struct {
	metadata Metadata
	tags     []Tag

	// Contiguous annotation table in document order. Removed slots keep
	// their position with a nil Geometry so handles stay stable.
	table []Annotation

	rois       []Annotation
	generation uint64
}

// NewAnnotationSet creates an empty set for authoring.
func NewAnnotationSet(meta Metadata) *AnnotationSet {
	return &AnnotationSet{metadata: meta}
}

// Metadata returns the set's metadata block.
func (s *AnnotationSet) Metadata() Metadata { return s.metadata }

// Tags returns the presentation tags.
func (s *AnnotationSet) Tags() []Tag { return s.tags }

// SetTags replaces the presentation tags. Tags have no geometric effect,
// so this does not invalidate indexes.
func (s *AnnotationSet) SetTags(tags []Tag) { s.tags = tags }

// Len returns the number of live annotations.
func (s *AnnotationSet) Len() int {
	n := 0
	for i := range s.table {
		if s.table[i].Geometry != nil {
			n++
		}
	}
	return n
}

// Annotations returns the live annotations in document order.
func (s *AnnotationSet) Annotations() []Annotation {
	out := make([]Annotation, 0, len(s.table))
	for i := range s.table {
		if s.table[i].Geometry != nil {
			out = append(out, s.table[i])
		}
	}
	return out
}

// Annotation returns the annotation for a handle.
func (s *AnnotationSet) Annotation(h Handle) (Annotation, error) {
	if int(h) < 0 || int(h) >= len(s.table) || s.table[h].Geometry == nil {
		return Annotation{}, fmt.Errorf("no annotation for handle %d", h)
	}
	return s.table[h], nil
}

// RegionsOfInterest returns the declared ROI annotations, if any.
func (s *AnnotationSet) RegionsOfInterest() []Annotation {
	return s.rois
}

// Add appends an annotation, validating it first. The annotation's
// geometry must already have been built through the validating
// constructors; Add re-checks metadata invariants (non-empty label, color
// pattern, index uniqueness) and returns the new handle.
func (s *AnnotationSet) Add(a Annotation) (Handle, error) {
	if err := a.validate(); err != nil {
		return 0, err
	}
	if a.Index != "" {
		for i := range s.table {
			if s.table[i].Geometry != nil && s.table[i].Index == a.Index {
				return 0, fmt.Errorf("duplicate annotation index %q", a.Index)
			}
		}
	}
	s.table = append(s.table, a)
	s.generation++
	return Handle(len(s.table) - 1), nil
}

// Remove deletes the annotation for a handle. The slot is tombstoned so
// other handles remain valid.
func (s *AnnotationSet) Remove(h Handle) error {
	if _, err := s.Annotation(h); err != nil {
		return err
	}
	s.table[h] = Annotation{}
	s.generation++
	return nil
}

// ReplaceGeometry swaps the geometry of an existing annotation, keeping
// its metadata.
func (s *AnnotationSet) ReplaceGeometry(h Handle, g Geometry) error {
	if _, err := s.Annotation(h); err != nil {
		return err
	}
	if g == nil {
		return &ValidationError{Pos: -1, Label: s.table[h].Label, Reason: "nil geometry"}
	}
	s.table[h].Geometry = g
	s.generation++
	return nil
}

// AddRegionOfInterest appends an ROI. ROIs are restricted to Polygon,
// MultiPolygon and Box, must carry a unique order and never a color.
func (s *AnnotationSet) AddRegionOfInterest(a Annotation) error {
	if err := a.validate(); err != nil {
		return err
	}
	if !a.OrderBearing() {
		return &ValidationError{
			Kind: a.Geometry.Kind(), Label: a.Label, Pos: -1,
			Reason: "regions of interest must be Polygon, MultiPolygon or Box",
		}
	}
	if a.Color != "" {
		return &ValidationError{
			Kind: a.Geometry.Kind(), Label: a.Label, Pos: -1,
			Reason: "regions of interest carry no color",
		}
	}
	for i := range s.rois {
		if s.rois[i].Order == a.Order {
			return &ValidationError{
				Kind: a.Geometry.Kind(), Label: a.Label, Pos: -1,
				Reason: fmt.Sprintf("duplicate region-of-interest order %d", a.Order),
			}
		}
	}
	s.rois = append(s.rois, a)
	s.generation++
	return nil
}

// Equal reports field-for-field equality of two sets, including document
// order. Used by round-trip tests and callers comparing loads.
func (s *AnnotationSet) Equal(o *AnnotationSet) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !metadataEqual(s.metadata, o.metadata) || len(s.tags) != len(o.tags) {
		return false
	}
	for i := range s.tags {
		if !tagEqual(s.tags[i], o.tags[i]) {
			return false
		}
	}
	a, b := s.Annotations(), o.Annotations()
	if len(a) != len(b) || len(s.rois) != len(o.rois) {
		return false
	}
	for i := range a {
		if !annotationEqual(a[i], b[i]) {
			return false
		}
	}
	for i := range s.rois {
		if !annotationEqual(s.rois[i], o.rois[i]) {
			return false
		}
	}
	return true
}

func metadataEqual(a, b Metadata) bool {
	if a.ImageID != b.ImageID || a.Description != b.Description ||
		a.Version != b.Version || a.DateCreated != b.DateCreated ||
		a.Software != b.Software || len(a.Authors) != len(b.Authors) {
		return false
	}
	for i := range a.Authors {
		if a.Authors[i] != b.Authors[i] {
			return false
		}
	}
	return true
}

func tagEqual(a, b Tag) bool {
	if a.Label != b.Label || a.Color != b.Color || len(a.Attributes) != len(b.Attributes) {
		return false
	}
	for i := range a.Attributes {
		if a.Attributes[i] != b.Attributes[i] {
			return false
		}
	}
	return true
}

func annotationEqual(a, b Annotation) bool {
	if a.Label != b.Label || a.Color != b.Color || a.Order != b.Order || a.Index != b.Index {
		return false
	}
	return geometryEqual(a.Geometry, b.Geometry)
}

func geometryEqual(a, b Geometry) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Point:
		return av == b.(Point)
	case Box:
		return av == b.(Box)
	case MultiPoint:
		bv := b.(MultiPoint)
		if len(av.Points) != len(bv.Points) {
			return false
		}
		for i := range av.Points {
			if av.Points[i] != bv.Points[i] {
				return false
			}
		}
		return true
	case Polygon:
		return polygonEqual(av, b.(Polygon))
	case MultiPolygon:
		bv := b.(MultiPolygon)
		if len(av.Parts) != len(bv.Parts) {
			return false
		}
		for i := range av.Parts {
			if !polygonEqual(av.Parts[i], bv.Parts[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func polygonEqual(a, b Polygon) bool {
	if !ringEqual(a.Exterior, b.Exterior) || len(a.Interiors) != len(b.Interiors) {
		return false
	}
	for i := range a.Interiors {
		if !ringEqual(a.Interiors[i], b.Interiors[i]) {
			return false
		}
	}
	return true
}

func ringEqual(a, b Ring) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
