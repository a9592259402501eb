package crown

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RunSummary aggregates per-seed diagnostics for reporting.
type RunSummary struct {
	Seeds            int
	Converged        int
	Degenerate       int
	MeanIterations   float64
	StdDevIterations float64
	// MeanDisplacement is the mean straight-line distance from each seed to
	// its mode, over non-degenerate seeds.
	MeanDisplacement float64
}

// Summarize computes a RunSummary from a result table and its diagnostics.
// The slices must be the same length.
func Summarize(results []PointMode, diags []SeedDiagnostics) RunSummary {
	s := RunSummary{Seeds: len(diags)}
	if len(diags) == 0 {
		return s
	}

	iterations := make([]float64, len(diags))
	var displacements []float64
	for i, d := range diags {
		iterations[i] = float64(d.Iterations)
		if d.Converged {
			s.Converged++
		}
		if d.Degenerate {
			s.Degenerate++
			continue
		}
		r := results[i]
		dx := r.Mode.X - r.Point.X
		dy := r.Mode.Y - r.Point.Y
		dz := r.Mode.Z - r.Point.Z
		displacements = append(displacements, math.Sqrt(dx*dx+dy*dy+dz*dz))
	}

	s.MeanIterations = stat.Mean(iterations, nil)
	if len(iterations) > 1 {
		s.StdDevIterations = stat.StdDev(iterations, nil)
	}
	if len(displacements) > 0 {
		s.MeanDisplacement = stat.Mean(displacements, nil)
	}
	return s
}
