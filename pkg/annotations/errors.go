package annotations

import (
	"fmt"

	"github.com/slidelab/annotations/internal/dlupxml"
)

// FormatError indicates a schema violation during parse. The load fails as
// a whole; no partial AnnotationSet is returned.
type FormatError = dlupxml.FormatError

// VersionError indicates an unsupported document version attribute.
type VersionError = dlupxml.VersionError

// ValidationError indicates a malformed geometry: degenerate ring,
// self-intersection, interior ring escaping its exterior, inverted box.
// It is fatal to the single geometry being constructed and is raised at
// construction time, never during queries.
type ValidationError struct {
	Kind   GeometryKind
	Label  string // annotation label when known
	Pos    int    // document position (0-based) when constructed by the codec, -1 otherwise
	Reason string
}

func (e *ValidationError) Error() string {
	where := ""
	if e.Label != "" {
		where = fmt.Sprintf(" %q", e.Label)
	}
	if e.Pos >= 0 {
		return fmt.Sprintf("invalid %s%s at position %d: %s", e.Kind, where, e.Pos, e.Reason)
	}
	return fmt.Sprintf("invalid %s%s: %s", e.Kind, where, e.Reason)
}

// QueryError indicates a query issued against an index that is not in a
// queryable state (never built, or invalidated by a mutation of the
// AnnotationSet). It signals a programming error in the caller, not a
// recoverable data condition.
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string {
	return "query error: " + e.Reason
}
