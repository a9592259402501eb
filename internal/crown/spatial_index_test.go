package crown

import (
	"math"
	"sort"
	"testing"
)

func TestCellKey_Unique(t *testing.T) {
	// Distinct cells, including negative coordinates, must map to distinct
	// keys within a realistic neighborhood.
	seen := make(map[int64][2]int64)
	for cx := int64(-50); cx <= 50; cx++ {
		for cy := int64(-50); cy <= 50; cy++ {
			key := cellKey(cx, cy)
			if prev, ok := seen[key]; ok {
				t.Fatalf("cell (%d,%d) collides with (%d,%d) on key %d", cx, cy, prev[0], prev[1], key)
			}
			seen[key] = [2]int64{cx, cy}
		}
	}
}

func TestGridIndex_CandidatesAreSuperset(t *testing.T) {
	cloud := gridCloud()
	gi := NewGridIndex(cloud, 2.0)
	cyl := Cylinder{X: 0.6, Y: 0.6, Z: 12, Radius: 1.5, Height: 4}

	candidates := map[Point]bool{}
	gi.VisitCandidates(cyl, func(p Point) { candidates[p] = true })

	for _, p := range cloud {
		if cyl.Contains(p) && !candidates[p] {
			t.Errorf("member point %+v missing from candidates", p)
		}
	}
}

func TestGridIndex_MatchesDirectScan(t *testing.T) {
	cloud := gridCloud()
	// A deliberately awkward cell size still yields identical member sets.
	gi := NewGridIndex(cloud, 0.7)

	cylinders := []Cylinder{
		{X: 0, Y: 0, Z: 12, Radius: 1, Height: 3},
		{X: 20.5, Y: 20.5, Z: 18, Radius: 2, Height: 5},
		{X: -3, Y: -3, Z: 12, Radius: 1.5, Height: 3}, // negative cells
		{X: 10, Y: 10, Z: 15, Radius: 3, Height: 6},   // empty region
	}

	for _, cyl := range cylinders {
		var indexed, direct []Point
		gi.VisitCandidates(cyl, func(p Point) {
			if cyl.Contains(p) {
				indexed = append(indexed, p)
			}
		})
		for _, p := range cloud {
			if cyl.Contains(p) {
				direct = append(direct, p)
			}
		}

		sortPoints(indexed)
		sortPoints(direct)
		if len(indexed) != len(direct) {
			t.Fatalf("cylinder %+v: %d members via index, %d direct", cyl, len(indexed), len(direct))
		}
		for i := range direct {
			if indexed[i] != direct[i] {
				t.Fatalf("cylinder %+v: member %d differs: %+v vs %+v", cyl, i, indexed[i], direct[i])
			}
		}
	}
}

func TestGridIndex_DegenerateCylinderHasNoCandidates(t *testing.T) {
	gi := NewGridIndex(gridCloud(), 1.0)

	nan := math.NaN()
	for _, cyl := range []Cylinder{
		{X: nan, Y: 0, Radius: 1},
		{X: 0, Y: 0, Radius: nan},
		{X: 0, Y: 0, Radius: -1},
	} {
		count := 0
		gi.VisitCandidates(cyl, func(Point) { count++ })
		if count != 0 {
			t.Errorf("cylinder %+v: got %d candidates, want 0", cyl, count)
		}
	}
}

func TestBuildIndex(t *testing.T) {
	params := DefaultParams()

	if idx := buildIndex(gridCloud(), params); idx == nil {
		t.Error("expected a grid index for a normal cloud")
	}

	params.UseSpatialIndex = false
	if idx := buildIndex(gridCloud(), params); idx != nil {
		t.Error("expected nil index when disabled")
	}

	params.UseSpatialIndex = true
	// All heights non-positive: no usable cell size, fall back to direct scan.
	if idx := buildIndex([]Point{{0, 0, -1}, {1, 1, 0}}, params); idx != nil {
		t.Error("expected nil index for a cloud with no positive heights")
	}
}

func sortPoints(pts []Point) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].Z < pts[j].Z
	})
}
