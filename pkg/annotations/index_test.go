package annotations

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
)

func mustAdd(t *testing.T, s *AnnotationSet, a Annotation) Handle {
	t.Helper()
	h, err := s.Add(a)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return h
}

func mustIndex(t *testing.T, s *AnnotationSet) *Index {
	t.Helper()
	ix, err := s.BuildIndex()
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	return ix
}

// TestQueryScenario covers the canonical tile-window case: one box, one
// window overlapping it, one window missing it.
func TestQueryScenario(t *testing.T) {
	set := NewAnnotationSet(Metadata{ImageID: "img"})
	box, _ := NewBox(0, 0, 10, 10)
	mustAdd(t, set, Annotation{Geometry: box, Label: "tissue", Order: 1})
	ix := mustIndex(t, set)

	hits, err := ix.Query(WindowRect(5, 5, 20, 20), BaseLevel, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Annotation.Label != "tissue" {
		t.Errorf("label = %q", hits[0].Annotation.Label)
	}
	if hits[0].Overlap != RoiPartial {
		t.Errorf("overlap = %v, want partial", hits[0].Overlap)
	}

	hits, err = ix.Query(WindowRect(20, 20, 5, 5), BaseLevel, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}

	// A window enclosing the whole box classifies as inside.
	hits, _ = ix.Query(WindowRect(-5, -5, 30, 30), BaseLevel, DefaultQueryOptions())
	if len(hits) != 1 || hits[0].Overlap != RoiInside {
		t.Errorf("enclosing window: hits=%v", hits)
	}
}

// TestQueryTouchingWindow: windows sharing only an edge or corner with a
// bounding box still match; intervals are closed.
func TestQueryTouchingWindow(t *testing.T) {
	set := NewAnnotationSet(Metadata{ImageID: "img"})
	box, _ := NewBox(0, 0, 10, 10)
	mustAdd(t, set, Annotation{Geometry: box, Label: "tissue", Order: 1})
	ix := mustIndex(t, set)

	tests := []struct {
		name   string
		window Rect
		want   int
	}{
		{"edge contact", WindowRect(10, 5, 5, 2), 1},
		{"corner contact", WindowRect(10, 10, 5, 5), 1},
		{"degenerate on edge", WindowRect(10, 5, 0, 2), 1},
		{"just past the edge", WindowRect(10.5, 5, 5, 2), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := ix.Query(tt.window, BaseLevel, DefaultQueryOptions())
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(hits) != tt.want {
				t.Errorf("got %d hits, want %d", len(hits), tt.want)
			}
		})
	}
}

func TestQueryOrdering(t *testing.T) {
	set := NewAnnotationSet(Metadata{ImageID: "img"})
	box, _ := NewBox(0, 0, 100, 100)
	mustAdd(t, set, Annotation{Geometry: box, Label: "c", Order: 3})
	mustAdd(t, set, Annotation{Geometry: box, Label: "a", Order: 1})
	mustAdd(t, set, Annotation{Geometry: box, Label: "b", Order: 2})
	mustAdd(t, set, Annotation{Geometry: box, Label: "a2", Order: 1})
	mustAdd(t, set, Annotation{Geometry: Point{50, 50}, Label: "pt"})
	ix := mustIndex(t, set)

	hits, err := ix.Query(WindowRect(0, 0, 100, 100), BaseLevel, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var labels []string
	for _, h := range hits {
		labels = append(labels, h.Annotation.Label)
	}
	want := []string{"a", "a2", "b", "c", "pt"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}

	// Label tie-break flips equal-order entries when configured.
	opts := DefaultQueryOptions()
	opts.TieBreak = TieBreakLabel
	hits, _ = ix.Query(WindowRect(0, 0, 100, 100), BaseLevel, opts)
	if hits[0].Annotation.Label != "a" || hits[1].Annotation.Label != "a2" {
		t.Errorf("label tie-break order: %q, %q", hits[0].Annotation.Label, hits[1].Annotation.Label)
	}
}

// TestQueryAgainstBruteForce cross-checks the index against a linear
// scan over randomized geometries and windows.
func TestQueryAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	set := NewAnnotationSet(Metadata{ImageID: "img"})

	var anns []Annotation
	for i := 0; i < 300; i++ {
		x := rng.Float64() * 1000
		y := rng.Float64() * 1000
		size := rng.Float64()*50 + 1
		var g Geometry
		switch i % 4 {
		case 0:
			b, err := NewBox(x, y, x+size, y+size)
			if err != nil {
				t.Fatal(err)
			}
			g = b
		case 1:
			pg, err := NewPolygon(square(x, y, size))
			if err != nil {
				t.Fatal(err)
			}
			g = pg
		case 2:
			// Diamond: exercises the exact refine step beyond bboxes.
			pg, err := NewPolygon(Ring{
				{x + size/2, y}, {x + size, y + size/2},
				{x + size/2, y + size}, {x, y + size/2},
			})
			if err != nil {
				t.Fatal(err)
			}
			g = pg
		case 3:
			g = Point{x, y}
		}
		ann := Annotation{Geometry: g, Label: "g", Order: i}
		anns = append(anns, ann)
		mustAdd(t, set, ann)
	}
	ix := mustIndex(t, set)

	opts := DefaultQueryOptions()
	for trial := 0; trial < 100; trial++ {
		w := WindowRect(rng.Float64()*1000, rng.Float64()*1000, rng.Float64()*200, rng.Float64()*200)

		want := map[Handle]bool{}
		for i, ann := range anns {
			if ann.Bounds().Intersects(w) && ann.Geometry.IntersectsRect(w) {
				want[Handle(i)] = true
			}
		}

		hits, err := ix.Query(w, BaseLevel, opts)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(hits) != len(want) {
			t.Fatalf("trial %d: got %d hits, want %d", trial, len(hits), len(want))
		}
		for _, h := range hits {
			if !want[h.Handle] {
				t.Fatalf("trial %d: unexpected hit %d", trial, h.Handle)
			}
		}
	}
}

func TestQueryAtLevel(t *testing.T) {
	set := NewAnnotationSet(Metadata{ImageID: "img"})
	box, _ := NewBox(1000, 1000, 2000, 2000)
	mustAdd(t, set, Annotation{Geometry: box, Label: "t", Order: 1})
	ix := mustIndex(t, set)

	// Window in level-2 (downsample 4) coordinates covering the box.
	level := Level{Index: 2, Downsample: 4}
	hits, err := ix.Query(WindowRect(200, 200, 400, 400), level, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	// Default mode keeps base coordinates.
	if hits[0].Annotation.Bounds() != (Rect{1000, 1000, 2000, 2000}) {
		t.Errorf("base coords: %+v", hits[0].Annotation.Bounds())
	}

	opts := DefaultQueryOptions()
	opts.Coords = CoordLevel
	hits, _ = ix.Query(WindowRect(200, 200, 400, 400), level, opts)
	if hits[0].Annotation.Bounds() != (Rect{250, 250, 500, 500}) {
		t.Errorf("level coords: %+v", hits[0].Annotation.Bounds())
	}
	// The set's own geometry stays in base space.
	if a, _ := set.Annotation(hits[0].Handle); a.Bounds() != (Rect{1000, 1000, 2000, 2000}) {
		t.Error("query must not mutate stored geometry")
	}
}

func TestQueryErrors(t *testing.T) {
	var unbuilt *Index
	var qe *QueryError
	if _, err := unbuilt.Query(WindowRect(0, 0, 1, 1), BaseLevel, DefaultQueryOptions()); !errors.As(err, &qe) {
		t.Errorf("unbuilt index error = %v, want *QueryError", err)
	}

	set := NewAnnotationSet(Metadata{ImageID: "img"})
	box, _ := NewBox(0, 0, 10, 10)
	mustAdd(t, set, Annotation{Geometry: box, Label: "t", Order: 1})
	ix := mustIndex(t, set)

	if _, err := ix.Query(WindowRect(0, 0, 1, 1), Level{Index: 1, Downsample: -1}, DefaultQueryOptions()); !errors.As(err, &qe) {
		t.Errorf("bad level error = %v", err)
	}
	if _, err := ix.Query(Rect{10, 10, 0, 0}, BaseLevel, DefaultQueryOptions()); !errors.As(err, &qe) {
		t.Errorf("invalid window error = %v", err)
	}

	// Mutating the set invalidates the index.
	mustAdd(t, set, Annotation{Geometry: box, Label: "u", Order: 2})
	if _, err := ix.Query(WindowRect(0, 0, 1, 1), BaseLevel, DefaultQueryOptions()); !errors.As(err, &qe) {
		t.Errorf("stale index error = %v", err)
	}
}

func TestEmptyIndex(t *testing.T) {
	set := NewAnnotationSet(Metadata{ImageID: "img"})
	ix := mustIndex(t, set)
	hits, err := ix.Query(WindowRect(0, 0, 100, 100), BaseLevel, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query over empty index: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
}

func TestIncrementalMaintenance(t *testing.T) {
	set := NewAnnotationSet(Metadata{ImageID: "img"})
	box, _ := NewBox(0, 0, 10, 10)
	var handles []Handle
	for i := 0; i < 10; i++ {
		b := box
		h := mustAdd(t, set, Annotation{Geometry: b, Label: "g", Order: i}.Translate(float64(i*20), 0))
		handles = append(handles, h)
	}
	ix := mustIndex(t, set)

	// Insert a new annotation and patch the index.
	far, _ := NewBox(1000, 1000, 1010, 1010)
	h := mustAdd(t, set, Annotation{Geometry: far, Label: "new", Order: 99})
	if err := ix.Insert(h); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	hits, err := ix.Query(WindowRect(995, 995, 20, 20), BaseLevel, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query after Insert: %v", err)
	}
	if len(hits) != 1 || hits[0].Annotation.Label != "new" {
		t.Fatalf("after Insert: %v", hits)
	}

	// Remove one and verify it no longer matches.
	if err := set.Remove(handles[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := ix.Remove(handles[0]); err != nil {
		t.Fatalf("index Remove: %v", err)
	}
	hits, err = ix.Query(WindowRect(0, 0, 10, 10), BaseLevel, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query after Remove: %v", err)
	}
	for _, hit := range hits {
		if hit.Handle == handles[0] {
			t.Error("removed annotation still returned")
		}
	}

	// Keep editing past the rebuild threshold; queries must stay correct.
	for i := 1; i <= 6; i++ {
		if err := set.Remove(handles[i]); err != nil {
			t.Fatalf("Remove %d: %v", i, err)
		}
		if err := ix.Remove(handles[i]); err != nil {
			t.Fatalf("index Remove %d: %v", i, err)
		}
	}
	hits, err = ix.Query(WindowRect(0, 0, 2000, 2000), BaseLevel, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query after bulk edits: %v", err)
	}
	if len(hits) != set.Len() {
		t.Errorf("got %d hits, want %d", len(hits), set.Len())
	}
}

// TestUnderPatchedIndex: every set mutation needs its own index patch.
// Two Adds followed by a single Insert leave the index stale, and it
// must refuse queries rather than answer from a set it only half knows.
func TestUnderPatchedIndex(t *testing.T) {
	set := NewAnnotationSet(Metadata{ImageID: "img"})
	box, _ := NewBox(0, 0, 10, 10)
	mustAdd(t, set, Annotation{Geometry: box, Label: "a", Order: 1})
	ix := mustIndex(t, set)

	h1 := mustAdd(t, set, Annotation{Geometry: box, Label: "b", Order: 2}.Translate(20, 0))
	mustAdd(t, set, Annotation{Geometry: box, Label: "c", Order: 3}.Translate(40, 0))
	if err := ix.Insert(h1); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	var qe *QueryError
	if _, err := ix.Query(WindowRect(0, 0, 100, 100), BaseLevel, DefaultQueryOptions()); !errors.As(err, &qe) {
		t.Errorf("under-patched index error = %v, want *QueryError", err)
	}
}

// TestConcurrentQueries exercises the documented contract: after a
// build, any number of readers may query with no locking.
func TestConcurrentQueries(t *testing.T) {
	set := NewAnnotationSet(Metadata{ImageID: "img"})
	for i := 0; i < 100; i++ {
		b, _ := NewBox(float64(i*10), 0, float64(i*10)+5, 5)
		mustAdd(t, set, Annotation{Geometry: b, Label: "g", Order: i})
	}
	ix := mustIndex(t, set)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for q := 0; q < 200; q++ {
				window := WindowRect(float64((worker*37+q)%900), 0, 50, 50)
				hits, err := ix.Query(window, BaseLevel, DefaultQueryOptions())
				if err != nil {
					t.Errorf("worker %d: %v", worker, err)
					return
				}
				for i := 1; i < len(hits); i++ {
					if hits[i-1].Annotation.Order > hits[i].Annotation.Order {
						t.Errorf("worker %d: results out of order", worker)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()
}
