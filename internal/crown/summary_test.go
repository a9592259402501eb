package crown

import (
	"math"
	"testing"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil)
	if s.Seeds != 0 || s.Converged != 0 || s.Degenerate != 0 {
		t.Errorf("summary of nothing = %+v, want zeros", s)
	}
}

func TestSummarize(t *testing.T) {
	nan := math.NaN()
	results := []PointMode{
		{Point: Point{0, 0, 10}, Mode: Mode{0, 0, 10}},
		{Point: Point{3, 4, 10}, Mode: Mode{0, 0, 10}}, // displacement 5
		{Point: Point{1, 1, -2}, Mode: Mode{nan, nan, nan}},
	}
	diags := []SeedDiagnostics{
		{Iterations: 1, Converged: true},
		{Iterations: 5, Converged: true},
		{Iterations: 1, Converged: true, Degenerate: true},
	}

	s := Summarize(results, diags)

	if s.Seeds != 3 {
		t.Errorf("Seeds = %d, want 3", s.Seeds)
	}
	if s.Converged != 3 {
		t.Errorf("Converged = %d, want 3", s.Converged)
	}
	if s.Degenerate != 1 {
		t.Errorf("Degenerate = %d, want 1", s.Degenerate)
	}
	if want := (1.0 + 5.0 + 1.0) / 3; math.Abs(s.MeanIterations-want) > 1e-12 {
		t.Errorf("MeanIterations = %f, want %f", s.MeanIterations, want)
	}
	if s.StdDevIterations <= 0 {
		t.Errorf("StdDevIterations = %f, want positive", s.StdDevIterations)
	}
	// Degenerate seeds are excluded from displacement, so the mean is over
	// distances 0 and 5.
	if math.Abs(s.MeanDisplacement-2.5) > 1e-12 {
		t.Errorf("MeanDisplacement = %f, want 2.5", s.MeanDisplacement)
	}
}

func TestSummarize_SingleSeedHasZeroStdDev(t *testing.T) {
	results := []PointMode{{Point: Point{0, 0, 10}, Mode: Mode{0, 0, 10}}}
	diags := []SeedDiagnostics{{Iterations: 2, Converged: true}}

	s := Summarize(results, diags)
	if s.StdDevIterations != 0 {
		t.Errorf("StdDevIterations = %f, want 0 for a single seed", s.StdDevIterations)
	}
	if s.MeanIterations != 2 {
		t.Errorf("MeanIterations = %f, want 2", s.MeanIterations)
	}
}
