package dlupxml

import "fmt"

// FormatError indicates a schema violation during parse. The whole load
// fails; no partial document is returned.
type FormatError struct {
	Element    string // offending element name, e.g. "Polygon"
	Constraint string // violated constraint, e.g. `color must match "#RRGGBB"`
	Offset     int64  // byte offset of the element in the input, -1 if unknown
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("format error in <%s> at offset %d: %s", e.Element, e.Offset, e.Constraint)
	}
	return fmt.Sprintf("format error in <%s>: %s", e.Element, e.Constraint)
}

// VersionError indicates a document with an unsupported version attribute.
// It is distinct from FormatError so callers can detect
// forward-incompatible documents and decide on migration themselves.
type VersionError struct {
	Got  string
	Want string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported annotation document version %q (supported: %q)", e.Got, e.Want)
}
