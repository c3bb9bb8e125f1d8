// Package dlupxml implements the raw document layer of the DlupAnnotations
// XML interchange format, version 1.0.
//
// The decoder is strict: unknown elements or attributes, pattern
// violations and missing required fields fail the whole load with a
// FormatError naming the element and constraint. A version attribute other
// than the supported one fails with a VersionError before any geometry is
// read. Document order of geometry entries is preserved; consumers use it
// for tie-breaking.
package dlupxml

import (
	"regexp"
	"time"
)

// Schema constants for the DlupAnnotations format.
const (
	// RootName is the document root element.
	RootName = "DlupAnnotations"

	// FormatVersion is the only supported document version.
	FormatVersion = "1.0"

	// DateLayout is the ISO date layout of Metadata/DateCreated.
	DateLayout = "2006-01-02"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidColor reports whether s matches the schema color pattern
// "#RRGGBB" (hex digits, either case).
func ValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

// ValidDate reports whether s is a valid ISO date (YYYY-MM-DD).
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Document is the parsed raw form of a DlupAnnotations file. Geometry
// entries are untyped Elements in document order; the model layer above
// converts and validates them into typed geometries.
type Document struct {
	Version           string
	Metadata          Metadata
	Tags              []Tag
	Geometries        []Element
	RegionsOfInterest []Element
}

// Metadata mirrors the Metadata block.
type Metadata struct {
	ImageID     string
	Description string // optional
	Version     string
	Authors     []string // optional
	DateCreated string   // ISO date
	Software    string
}

// Tag is a presentation-only label/color entry with optional attributes.
type Tag struct {
	Label      string
	Color      string // optional
	Attributes []TagAttribute
}

// TagAttribute is a colored text entry under a Tag.
type TagAttribute struct {
	Color string // optional
	Text  string
}

// Element is one raw geometry entry. Kind selects which payload fields
// are meaningful.
type Element struct {
	Kind     string // "Point", "MultiPoint", "Polygon", "MultiPolygon", "Box"
	Label    string
	Color    string // raw, casing as in the document
	Index    string
	Order    int
	HasOrder bool
	Offset   int64 // byte offset in the source document, -1 when authored

	// Point
	X, Y float64

	// MultiPoint
	Points [][2]float64

	// Polygon
	Exterior  [][2]float64
	Interiors [][][2]float64

	// MultiPolygon
	Parts []PolygonData

	// Box
	XMin, YMin, XMax, YMax float64
}

// PolygonData is a metadata-free polygon part of a MultiPolygon.
type PolygonData struct {
	Exterior  [][2]float64
	Interiors [][][2]float64
}
