package annotations

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/slidelab/annotations/internal/dlupxml"
)

// Load parses a DlupAnnotations v1.0 document into an AnnotationSet.
//
// Parsing is strict. Geometry invariants are validated while each shape
// is built, so the first structural error in the document is the one
// reported, with its position. On any error no AnnotationSet is
// returned. Error types: *VersionError for an unsupported version,
// *FormatError for schema violations, *ValidationError for malformed
// geometry.
func Load(r io.Reader, opts ...LoadOptions) (*AnnotationSet, error) {
	opt := DefaultLoadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	start := time.Now()

	doc, err := dlupxml.Decode(r)
	if err != nil {
		return nil, err
	}

	set := NewAnnotationSet(Metadata{
		ImageID:     doc.Metadata.ImageID,
		Description: doc.Metadata.Description,
		Version:     doc.Metadata.Version,
		Authors:     doc.Metadata.Authors,
		DateCreated: doc.Metadata.DateCreated,
		Software:    doc.Metadata.Software,
	})
	for _, t := range doc.Tags {
		tag := Tag{Label: t.Label, Color: normalizeColor(t.Color)}
		for _, a := range t.Attributes {
			tag.Attributes = append(tag.Attributes, TagAttribute{
				Color: normalizeColor(a.Color), Text: a.Text,
			})
		}
		set.tags = append(set.tags, tag)
	}

	for i := range doc.Geometries {
		ann, err := annotationFromElement(&doc.Geometries[i], i)
		if err != nil {
			return nil, err
		}
		if _, err := set.Add(ann); err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				// Set-level constraints (e.g. duplicate index) are schema
				// violations, not geometry defects.
				return nil, &FormatError{
					Element:    doc.Geometries[i].Kind,
					Constraint: err.Error(),
					Offset:     doc.Geometries[i].Offset,
				}
			}
			return nil, positioned(err, i, ann.Label)
		}
	}
	for i := range doc.RegionsOfInterest {
		roi, err := annotationFromElement(&doc.RegionsOfInterest[i], i)
		if err != nil {
			return nil, err
		}
		if err := set.AddRegionOfInterest(roi); err != nil {
			return nil, positioned(err, i, roi.Label)
		}
	}

	opt.logger().Debug("annotation document loaded",
		zap.String("image_id", set.metadata.ImageID),
		zap.Int("annotations", set.Len()),
		zap.Int("rois", len(set.rois)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return set, nil
}

// LoadFile is Load over a file path.
func LoadFile(path string, opts ...LoadOptions) (*AnnotationSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotations: %w", err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Save serializes the set as a DlupAnnotations v1.0 document. Saving
// never mutates the set; a reload of the output is Equal to the set,
// field for field.
func Save(w io.Writer, s *AnnotationSet) error {
	doc := &dlupxml.Document{
		Version: dlupxml.FormatVersion,
		Metadata: dlupxml.Metadata{
			ImageID:     s.metadata.ImageID,
			Description: s.metadata.Description,
			Version:     s.metadata.Version,
			Authors:     s.metadata.Authors,
			DateCreated: s.metadata.DateCreated,
			Software:    s.metadata.Software,
		},
	}
	for _, t := range s.tags {
		tag := dlupxml.Tag{Label: t.Label, Color: t.Color}
		for _, a := range t.Attributes {
			tag.Attributes = append(tag.Attributes, dlupxml.TagAttribute{Color: a.Color, Text: a.Text})
		}
		doc.Tags = append(doc.Tags, tag)
	}
	for _, ann := range s.Annotations() {
		doc.Geometries = append(doc.Geometries, elementFromAnnotation(ann))
	}
	for _, roi := range s.rois {
		doc.RegionsOfInterest = append(doc.RegionsOfInterest, elementFromAnnotation(roi))
	}
	return dlupxml.Encode(w, doc)
}

// SaveFile is Save over a file path.
func SaveFile(path string, s *AnnotationSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create annotations: %w", err)
	}
	if err := Save(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// annotationFromElement builds and validates one typed annotation from a
// raw document element.
func annotationFromElement(e *dlupxml.Element, pos int) (Annotation, error) {
	ann := Annotation{
		Label: e.Label,
		Color: normalizeColor(e.Color),
		Order: e.Order,
		Index: e.Index,
	}

	var g Geometry
	var err error
	switch e.Kind {
	case "Point":
		g = Point{X: e.X, Y: e.Y}
	case "MultiPoint":
		g, err = NewMultiPoint(toPoints(e.Points)...)
	case "Polygon":
		g, err = newPolygonFromRaw(e.Exterior, e.Interiors)
	case "MultiPolygon":
		parts := make([]Polygon, 0, len(e.Parts))
		for _, raw := range e.Parts {
			part, perr := newPolygonFromRaw(raw.Exterior, raw.Interiors)
			if perr != nil {
				err = perr
				break
			}
			parts = append(parts, part)
		}
		if err == nil {
			g, err = NewMultiPolygon(parts...)
		}
	case "Box":
		g, err = NewBox(e.XMin, e.YMin, e.XMax, e.YMax)
	default:
		return Annotation{}, &FormatError{Element: e.Kind, Constraint: "unknown geometry kind", Offset: e.Offset}
	}
	if err != nil {
		return Annotation{}, positioned(err, pos, e.Label)
	}
	ann.Geometry = g
	return ann, nil
}

func newPolygonFromRaw(exterior [][2]float64, interiors [][][2]float64) (Polygon, error) {
	holes := make([]Ring, 0, len(interiors))
	for _, raw := range interiors {
		holes = append(holes, toRing(raw))
	}
	return NewPolygon(toRing(exterior), holes...)
}

func toRing(raw [][2]float64) Ring {
	return Ring(toPoints(raw))
}

func toPoints(raw [][2]float64) []Point {
	pts := make([]Point, len(raw))
	for i, p := range raw {
		pts[i] = Point{X: p[0], Y: p[1]}
	}
	return pts
}

func elementFromAnnotation(ann Annotation) dlupxml.Element {
	e := dlupxml.Element{
		Kind:     ann.Geometry.Kind().String(),
		Label:    ann.Label,
		Color:    ann.Color,
		Index:    ann.Index,
		Order:    ann.Order,
		HasOrder: ann.OrderBearing(),
		Offset:   -1,
	}
	switch g := ann.Geometry.(type) {
	case Point:
		e.X, e.Y = g.X, g.Y
	case MultiPoint:
		e.Points = fromPoints(g.Points)
	case Polygon:
		e.Exterior, e.Interiors = fromPolygon(g)
	case MultiPolygon:
		for _, part := range g.Parts {
			ext, ints := fromPolygon(part)
			e.Parts = append(e.Parts, dlupxml.PolygonData{Exterior: ext, Interiors: ints})
		}
	case Box:
		e.XMin, e.YMin, e.XMax, e.YMax = g.XMin, g.YMin, g.XMax, g.YMax
	}
	return e
}

func fromPolygon(g Polygon) ([][2]float64, [][][2]float64) {
	ext := fromPoints(g.Exterior)
	var ints [][][2]float64
	for _, hole := range g.Interiors {
		ints = append(ints, fromPoints(hole))
	}
	return ext, ints
}

func fromPoints(pts []Point) [][2]float64 {
	raw := make([][2]float64, len(pts))
	for i, p := range pts {
		raw[i] = [2]float64{p.X, p.Y}
	}
	return raw
}

// normalizeColor uppercases the hex digits; document colors may arrive
// in either case but the model stores and writes uppercase.
func normalizeColor(c string) string {
	return strings.ToUpper(c)
}

// positioned stamps document position and label onto a ValidationError.
func positioned(err error, pos int, label string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Pos = pos
		if ve.Label == "" {
			ve.Label = label
		}
		return ve
	}
	return err
}
