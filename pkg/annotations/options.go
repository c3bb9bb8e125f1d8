package annotations

import "go.uber.org/zap"

// LoadOptions configures document loading and index construction.
type LoadOptions struct {
	// Logger receives parse and build statistics at debug level. Defaults
	// to a no-op logger; the query path itself never logs.
	Logger *zap.Logger
}

// DefaultLoadOptions returns default options.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Logger: zap.NewNop()}
}

func (o LoadOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// RoiMode controls how the ROI classification filters query results.
type RoiMode int

const (
	// RoiExclude drops hits entirely outside the ROI union and keeps
	// partial and inside hits with their classification. This is the
	// default: geometries outside every ROI stay in the set but are out
	// of query scope.
	RoiExclude RoiMode = iota

	// RoiStrict keeps only hits fully inside the ROI union.
	RoiStrict

	// RoiAll keeps every hit with its classification and leaves the
	// decision to the rasterizer.
	RoiAll
)

// TieBreak selects how equal-order results are ordered. The document
// format permits repeated order values; typical consumers expect
// document-order tie-breaking, but the behavior is configurable.
type TieBreak int

const (
	// TieBreakDocumentOrder breaks order ties by position in the source
	// document (or insertion order for authored sets). The default.
	TieBreakDocumentOrder TieBreak = iota

	// TieBreakLabel breaks order ties lexicographically by label, then
	// by document order.
	TieBreakLabel
)

// QueryOptions configures a window query.
type QueryOptions struct {
	// Coords selects whether result geometries come back in base or
	// query-level coordinates.
	Coords CoordMode

	// RoiMode filters results against the ROI union when the set
	// declares regions of interest.
	RoiMode RoiMode

	// TieBreak orders results with equal Order values.
	TieBreak TieBreak
}

// DefaultQueryOptions returns default options: base coordinates,
// ROI-exclude filtering, document-order tie-breaking.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{}
}
