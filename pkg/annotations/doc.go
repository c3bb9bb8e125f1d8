// Package annotations manages vector annotations overlaid on gigapixel
// whole-slide pathology images and answers the query that dominates
// training-data extraction: which annotated geometries intersect this
// tile window, at this pyramid level?
//
// # Basic Usage
//
//	set, err := annotations.LoadFile("slide.xml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	idx, err := set.BuildIndex()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	level := annotations.Level{Index: 2, Downsample: 4}
//	window := annotations.WindowRect(1024, 1024, 512, 512)
//	hits, err := idx.Query(window, level, annotations.DefaultQueryOptions())
//	for _, hit := range hits {
//	    rasterize(hit.Annotation, hit.Overlap)
//	}
//
// # Tiling Workflow
//
// The index is bulk-built once per slide and then queried millions of
// times per dataset epoch, typically from many tiling workers at once.
// After BuildIndex returns, queries are lock-free and safe to issue
// concurrently; see Index for the mutation contract.
//
// Results come back ordered by ascending draw order (document order on
// ties) so the rasterizer can paint lowest-precedence shapes first. When
// the set declares regions of interest, hits outside the ROI union are
// filtered out and the rest carry an inside/partial classification; the
// package classifies only, it never clips vertices.
//
// # Coordinate Spaces
//
// All geometry is stored in base (level 0) pixel coordinates. Query
// windows are expressed in the coordinate space of the queried pyramid
// level; QueryOptions.Coords selects whether results come back in base
// or level-local coordinates.
//
// # Authoring
//
// Sets can also be built programmatically:
//
//	set := annotations.NewAnnotationSet(annotations.Metadata{ImageID: "slide-12"})
//	box, _ := annotations.NewBox(0, 0, 512, 512)
//	h, _ := set.Add(annotations.Annotation{Geometry: box, Label: "tissue", Order: 1})
//
// Decoding pixel data, tile extraction and mask rasterization are out of
// scope; this package deals only in geometry.
package annotations
