package annotations

import "testing"

func square(x0, y0, size float64) Ring {
	return Ring{
		{x0, y0},
		{x0 + size, y0},
		{x0 + size, y0 + size},
		{x0, y0 + size},
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
		want Rect
	}{
		{"point", Point{3, 4}, Rect{3, 4, 3, 4}},
		{"multipoint", MultiPoint{Points: []Point{{1, 8}, {5, 2}}}, Rect{1, 2, 5, 8}},
		{"polygon", Polygon{Exterior: square(10, 20, 5)}, Rect{10, 20, 15, 25}},
		{
			"multipolygon",
			MultiPolygon{Parts: []Polygon{
				{Exterior: square(0, 0, 2)},
				{Exterior: square(10, 10, 2)},
			}},
			Rect{0, 0, 12, 12},
		},
		{"box", Box{1, 2, 3, 4}, Rect{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.Bounds(); got != tt.want {
				t.Errorf("Bounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	donut := Polygon{
		Exterior:  square(0, 0, 10),
		Interiors: []Ring{square(3, 3, 4)},
	}
	tests := []struct {
		name string
		g    Geometry
		x, y float64
		want bool
	}{
		{"point exact", Point{2, 3}, 2, 3, true},
		{"point miss", Point{2, 3}, 2, 3.5, false},
		{"polygon interior", Polygon{Exterior: square(0, 0, 10)}, 5, 5, true},
		{"polygon boundary edge", Polygon{Exterior: square(0, 0, 10)}, 10, 5, true},
		{"polygon boundary vertex", Polygon{Exterior: square(0, 0, 10)}, 0, 0, true},
		{"polygon outside", Polygon{Exterior: square(0, 0, 10)}, 11, 5, false},
		{"donut ring", donut, 1, 1, true},
		{"donut hole", donut, 5, 5, false},
		{"donut hole boundary", donut, 3, 5, true},
		{"box interior", Box{0, 0, 10, 10}, 5, 5, true},
		{"box boundary", Box{0, 0, 10, 10}, 0, 10, true},
		{"box outside", Box{0, 0, 10, 10}, -0.5, 5, false},
		{"multipoint hit", MultiPoint{Points: []Point{{1, 1}, {2, 2}}}, 2, 2, true},
		{"multipoint miss", MultiPoint{Points: []Point{{1, 1}, {2, 2}}}, 1.5, 1.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%g, %g) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestIntersectsRect(t *testing.T) {
	donut := Polygon{
		Exterior:  square(0, 0, 10),
		Interiors: []Ring{square(2, 2, 6)},
	}
	diamond := Polygon{Exterior: Ring{{5, 0}, {10, 5}, {5, 10}, {0, 5}}}
	tests := []struct {
		name string
		g    Geometry
		r    Rect
		want bool
	}{
		{"box overlap", Box{0, 0, 10, 10}, WindowRect(5, 5, 20, 20), true},
		{"box disjoint", Box{0, 0, 10, 10}, WindowRect(20, 20, 5, 5), false},
		{"box touch edge", Box{0, 0, 10, 10}, WindowRect(10, 0, 5, 5), true},
		{"polygon window inside", Polygon{Exterior: square(0, 0, 10)}, WindowRect(4, 4, 2, 2), true},
		{"polygon around window corner", diamond, WindowRect(4, 4, 2, 2), true},
		{"diamond misses bbox corner", diamond, WindowRect(-1, -1, 1.5, 1.5), false},
		{"window inside donut hole", donut, WindowRect(4, 4, 2, 2), false},
		{"window straddles hole boundary", donut, WindowRect(1, 1, 3, 3), true},
		{"window contains polygon", Polygon{Exterior: square(3, 3, 2)}, WindowRect(0, 0, 10, 10), true},
		{"point in window", Point{5, 5}, WindowRect(0, 0, 10, 10), true},
		{"point on window edge", Point{0, 5}, WindowRect(0, 0, 10, 10), true},
		{"point outside window", Point{-1, 5}, WindowRect(0, 0, 10, 10), false},
		{"degenerate window touches box", Box{0, 0, 10, 10}, WindowRect(10, 5, 0, 2), true},
		{"degenerate window misses box", Box{0, 0, 10, 10}, WindowRect(10.5, 5, 0, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.IntersectsRect(tt.r); got != tt.want {
				t.Errorf("IntersectsRect(%+v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestRectOps(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{5, 5, 20, 20}
	if got := a.Union(b); got != (Rect{0, 0, 20, 20}) {
		t.Errorf("Union = %+v", got)
	}
	if got := a.Intersect(b); got != (Rect{5, 5, 10, 10}) {
		t.Errorf("Intersect = %+v", got)
	}
	if !a.ContainsRect(Rect{1, 1, 9, 9}) {
		t.Error("ContainsRect should include inner rect")
	}
	if a.ContainsRect(b) {
		t.Error("ContainsRect should reject overlapping rect")
	}
	if !WindowRect(3, 4, 0, 0).Valid() {
		t.Error("zero-size window should be valid")
	}
}
