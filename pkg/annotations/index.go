package annotations

import (
	"sort"
	"time"

	"github.com/dhconnelly/rtreego"
	"go.uber.org/zap"
)

// R-tree branching factors, shared by the main and ROI indexes.
const (
	rtreeMinBranch = 25
	rtreeMaxBranch = 50
)

// rectEpsilon pads zero-extent dimensions; rtreego requires positive
// lengths. A false bbox hit this introduces is removed by the exact
// refine step.
const rectEpsilon = 1e-9

func spatialRect(r Rect) rtreego.Rect {
	w, h := r.Width(), r.Height()
	if w < rectEpsilon {
		w = rectEpsilon
	}
	if h < rectEpsilon {
		h = rectEpsilon
	}
	rect, _ := rtreego.NewRect(rtreego.Point{r.MinX, r.MinY}, []float64{w, h})
	return rect
}

// searchRect inflates a query window on all sides before the R-tree
// probe. rtreego rectangles intersect only with positive overlap, while
// Rect intervals are closed: a window merely touching a bounding box
// must still match. The exact refine removes the false positives the
// inflation admits.
func searchRect(r Rect) rtreego.Rect {
	rect, _ := rtreego.NewRect(
		rtreego.Point{r.MinX - rectEpsilon, r.MinY - rectEpsilon},
		[]float64{r.Width() + 2*rectEpsilon, r.Height() + 2*rectEpsilon})
	return rect
}

// indexEntry wraps one annotation for R-tree storage. It carries the
// handle and the bbox computed at build time; the geometry itself stays
// in the set's table.
type indexEntry struct {
	handle Handle
	bounds Rect
	rect   rtreego.Rect
}

func (e *indexEntry) Bounds() rtreego.Rect { return e.rect }

// BaseLevel is the identity pyramid level: full resolution, downsample 1.
var BaseLevel = Level{Index: 0, Downsample: 1}

// Hit is one query result: the annotation, its handle, and its overlap
// classification against the ROI union (or against the query window when
// the set declares no regions of interest).
type Hit struct {
	Handle     Handle
	Annotation Annotation
	Overlap    RoiOverlap
}

// Index answers window-intersection queries over an AnnotationSet.
//
// Construction is an explicit bulk build: BuildIndex computes every
// bounding box and the ROI mini-index up front and bulk-loads the R-tree,
// because the dominant workload is load once, query millions of times.
// After a successful build the index and its set are immutable from the
// query side; any number of goroutines may call Query concurrently with
// no locking, since queries write no shared state.
//
// Authoring edits go through Insert and Remove, which patch the tree
// incrementally and fall back to a full rebuild once edits accumulate
// past half the built size. Mutation requires the same exclusive access
// as mutating the set itself: the caller must ensure no queries are in
// flight. An index left behind by a set mutation it was not told about
// refuses queries with a QueryError instead of answering from stale
// state.
type Index struct {
	set        *AnnotationSet
	generation uint64

	rtree    *rtreego.Rtree
	byHandle map[Handle]*indexEntry
	roi      *roiIndex
	bounds   Rect

	builtSize int
	edits     int
}

// BuildIndex bulk-builds a queryable index over the set's current
// annotations. An empty set yields a valid index whose queries return
// empty results.
func (s *AnnotationSet) BuildIndex(opts ...LoadOptions) (*Index, error) {
	opt := DefaultLoadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	start := time.Now()

	ix := &Index{set: s}
	if err := ix.rebuild(); err != nil {
		return nil, err
	}

	opt.logger().Debug("annotation index built",
		zap.Int("annotations", ix.builtSize),
		zap.Int("rois", len(s.rois)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ix, nil
}

// rebuild recomputes everything from the set. Nothing is visible to
// queries until the method returns, so an abandoned in-progress build
// leaves no partial shared state.
func (ix *Index) rebuild() error {
	s := ix.set
	byHandle := make(map[Handle]*indexEntry, len(s.table))
	spatials := make([]rtreego.Spatial, 0, len(s.table))
	bounds := emptyRect()

	for i := range s.table {
		if s.table[i].Geometry == nil {
			continue
		}
		e := &indexEntry{handle: Handle(i), bounds: s.table[i].Bounds()}
		e.rect = spatialRect(e.bounds)
		byHandle[e.handle] = e
		spatials = append(spatials, e)
		bounds = bounds.Union(e.bounds)
	}

	ix.rtree = rtreego.NewTree(2, rtreeMinBranch, rtreeMaxBranch, spatials...)
	ix.byHandle = byHandle
	ix.roi = buildRoiIndex(s.rois)
	ix.bounds = bounds
	ix.builtSize = len(spatials)
	ix.edits = 0
	ix.generation = s.generation
	return nil
}

// Bounds returns the union of all indexed bounding boxes.
func (ix *Index) Bounds() Rect { return ix.bounds }

// Count returns the number of indexed annotations.
func (ix *Index) Count() int { return len(ix.byHandle) }

// Query returns the annotations intersecting the given window, expressed
// in the coordinate space of level, sorted by ascending Order (ties by
// document order unless configured otherwise). Annotations without an
// order (free-floating points) sort after all order-bearing results.
//
// If the set declares regions of interest and the window misses all of
// them, the result is empty without the main index being touched. RoiAll
// disables that short-circuit along with the ROI filtering itself.
func (ix *Index) Query(window Rect, level Level, opts QueryOptions) ([]Hit, error) {
	if ix == nil || ix.rtree == nil {
		return nil, &QueryError{Reason: "index not built; call BuildIndex first"}
	}
	if ix.generation != ix.set.generation {
		return nil, &QueryError{Reason: "annotation set mutated since build; rebuild the index"}
	}
	if err := level.Validate(); err != nil {
		return nil, &QueryError{Reason: err.Error()}
	}
	if !window.Valid() {
		return nil, &QueryError{Reason: "window has negative extent"}
	}

	t := level.Transform()
	w := t.RectToBase(window)

	searchWindow := w
	if ix.roi != nil && opts.RoiMode != RoiAll {
		if !ix.roi.windowIntersects(w) {
			return []Hit{}, nil
		}
		searchWindow = ix.roi.clipWindow(w)
	}

	hits := ix.collect(searchWindow, w, opts)
	sortHits(hits, opts.TieBreak)

	if opts.Coords == CoordLevel {
		for i := range hits {
			hits[i].Annotation.Geometry = mapPoints(hits[i].Annotation.Geometry, func(p Point) Point {
				x, y := t.ToLevel(p.X, p.Y)
				return Point{X: x, Y: y}
			})
		}
	}
	return hits, nil
}

func (ix *Index) collect(searchWindow, window Rect, opts QueryOptions) []Hit {
	spatials := ix.rtree.SearchIntersect(searchRect(searchWindow))
	hits := make([]Hit, 0, len(spatials))
	for _, sp := range spatials {
		e := sp.(*indexEntry)
		if !e.bounds.Intersects(searchWindow) {
			// Inflated search rect and padded entries can overshoot.
			continue
		}
		ann := ix.set.table[e.handle]
		if !ann.Geometry.IntersectsRect(searchWindow) {
			continue
		}

		var overlap RoiOverlap
		if ix.roi != nil {
			overlap = ix.roi.classify(ann.Geometry)
			switch opts.RoiMode {
			case RoiExclude:
				if overlap == RoiOutside {
					continue
				}
			case RoiStrict:
				if overlap != RoiInside {
					continue
				}
			case RoiAll:
				// keep everything
			}
		} else {
			overlap = classifyRect(ann.Geometry, window)
		}
		hits = append(hits, Hit{Handle: e.handle, Annotation: ann, Overlap: overlap})
	}
	return hits
}

func sortHits(hits []Hit, tie TieBreak) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		ab, bb := a.Annotation.OrderBearing(), b.Annotation.OrderBearing()
		if ab != bb {
			// Order-bearing annotations come first; free-floating points
			// trail in document order.
			return ab
		}
		if ab && a.Annotation.Order != b.Annotation.Order {
			return a.Annotation.Order < b.Annotation.Order
		}
		if tie == TieBreakLabel && a.Annotation.Label != b.Annotation.Label {
			return a.Annotation.Label < b.Annotation.Label
		}
		return a.Handle < b.Handle
	})
}

// Insert adds the annotation behind an existing handle to the index.
// Used after AnnotationSet.Add during authoring; requires exclusive
// access like any mutation.
//
// Each Insert or Remove accounts for exactly one set mutation. A caller
// that mutates the set twice and patches once leaves the index one
// generation behind, and queries keep failing until the missing patch
// (or a fresh BuildIndex) lands.
func (ix *Index) Insert(h Handle) error {
	ann, err := ix.set.Annotation(h)
	if err != nil {
		return err
	}
	if _, ok := ix.byHandle[h]; ok {
		return &QueryError{Reason: "handle already indexed"}
	}
	if ix.maintenanceRebuildDue() {
		return ix.rebuild()
	}
	e := &indexEntry{handle: h, bounds: ann.Bounds()}
	e.rect = spatialRect(e.bounds)
	ix.rtree.Insert(e)
	ix.byHandle[h] = e
	ix.bounds = ix.bounds.Union(e.bounds)
	ix.edits++
	ix.generation++
	return nil
}

// Remove drops a handle from the index after AnnotationSet.Remove. Like
// Insert, it accounts for exactly one set mutation.
func (ix *Index) Remove(h Handle) error {
	e, ok := ix.byHandle[h]
	if !ok {
		return &QueryError{Reason: "handle not indexed"}
	}
	if ix.maintenanceRebuildDue() {
		return ix.rebuild()
	}
	ix.rtree.Delete(e)
	delete(ix.byHandle, h)
	// bounds are left loose; they only ever over-approximate.
	ix.edits++
	ix.generation++
	return nil
}

// maintenanceRebuildDue applies the rebuild policy: once incremental
// edits exceed half the bulk-built size (or the ROI set changed shape),
// patching is abandoned for a fresh bulk build. Policy, not correctness.
func (ix *Index) maintenanceRebuildDue() bool {
	if (ix.roi == nil) != (len(ix.set.rois) == 0) {
		return true
	}
	if ix.roi != nil && len(ix.roi.entries) != len(ix.set.rois) {
		return true
	}
	threshold := ix.builtSize / 2
	if threshold < 1 {
		threshold = 1
	}
	return ix.edits >= threshold
}
