package crown

import (
	"fmt"
	"math"
)

// Defaults for mean-shift parameters. Epsilon matches the hard-coded
// convergence tolerance of the reference method.
const (
	DefaultMaxIterations             = 200
	DefaultEpsilon                   = 0.01
	DefaultCrownDiameterToTreeHeight = 0.6
	DefaultCrownHeightToTreeHeight   = 0.5
)

// ConvergenceMode selects the stopping rule of the per-seed iteration.
type ConvergenceMode int

const (
	// ConvergenceEuclidean stops once the centroid moved no further than
	// epsilon in one iteration, measured as straight-line distance. This is
	// the recommended rule.
	ConvergenceEuclidean ConvergenceMode = iota
	// ConvergencePerAxis stops once every axis delta is below epsilon.
	ConvergencePerAxis
	// ConvergencePerAxisLegacy reproduces the inverted guard of one of the
	// reference implementations: the loop keeps running while every axis
	// delta is still below epsilon, so a stationary seed iterates until the
	// budget runs out. Selectable for comparisons against reference output;
	// not recommended otherwise. Under this guard the Converged diagnostic
	// reports the guard turning false, i.e. the first iteration that moved
	// at least epsilon on some axis.
	ConvergencePerAxisLegacy
)

// String returns the mode name used in configuration files and flags.
func (m ConvergenceMode) String() string {
	switch m {
	case ConvergencePerAxis:
		return "per-axis"
	case ConvergencePerAxisLegacy:
		return "per-axis-legacy"
	default:
		return "euclidean"
	}
}

// ParseKernelProfile maps a profile name to its KernelProfile.
func ParseKernelProfile(s string) (KernelProfile, error) {
	switch s {
	case "classic":
		return ProfileClassic, nil
	case "improved":
		return ProfileImproved, nil
	}
	return ProfileClassic, fmt.Errorf("unknown kernel profile %q (want classic or improved)", s)
}

// ParseConvergenceMode maps a mode name to its ConvergenceMode.
func ParseConvergenceMode(s string) (ConvergenceMode, error) {
	switch s {
	case "euclidean":
		return ConvergenceEuclidean, nil
	case "per-axis":
		return ConvergencePerAxis, nil
	case "per-axis-legacy":
		return ConvergencePerAxisLegacy, nil
	}
	return ConvergenceEuclidean, fmt.Errorf("unknown convergence mode %q (want euclidean, per-axis or per-axis-legacy)", s)
}

// Params configures one mean-shift run. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	// CrownDiameterToTreeHeight converts the centroid height into the kernel
	// diameter. Must be positive; non-positive values produce degenerate
	// zero-volume kernels.
	CrownDiameterToTreeHeight float64
	// CrownHeightToTreeHeight converts the centroid height into the kernel
	// height. Must be positive.
	CrownHeightToTreeHeight float64
	// MaxIterations bounds the number of kernel moves per seed. When the
	// budget runs out the last centroid is accepted as the mode.
	MaxIterations int
	// Epsilon is the convergence tolerance in cloud units.
	Epsilon float64
	// UniformKernel disables distance weighting: every member point
	// contributes weight one. Matches the classic variant's option.
	UniformKernel bool
	// Profile selects the cylinder placement and vertical weighting variant.
	Profile KernelProfile
	// Convergence selects the stopping rule.
	Convergence ConvergenceMode
	// UseSpatialIndex enables grid-index candidate pruning. Results are
	// identical with or without it; only the scan cost changes.
	UseSpatialIndex bool
}

// DefaultParams returns run parameters matching the reference method's
// defaults.
func DefaultParams() Params {
	return Params{
		CrownDiameterToTreeHeight: DefaultCrownDiameterToTreeHeight,
		CrownHeightToTreeHeight:   DefaultCrownHeightToTreeHeight,
		MaxIterations:             DefaultMaxIterations,
		Epsilon:                   DefaultEpsilon,
		Profile:                   ProfileClassic,
		Convergence:               ConvergenceEuclidean,
		UseSpatialIndex:           true,
	}
}

// Validate checks that the parameters describe a runnable configuration.
func (p Params) Validate() error {
	if p.CrownDiameterToTreeHeight <= 0 {
		return fmt.Errorf("crown diameter to tree height ratio must be positive, got %g", p.CrownDiameterToTreeHeight)
	}
	if p.CrownHeightToTreeHeight <= 0 {
		return fmt.Errorf("crown height to tree height ratio must be positive, got %g", p.CrownHeightToTreeHeight)
	}
	if p.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", p.MaxIterations)
	}
	if p.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %g", p.Epsilon)
	}
	return nil
}

// keepGoing reports whether the loop should run another iteration given the
// last update's axis deltas. It mirrors the do-while guards of the reference
// drivers; the budget check is applied separately by the caller.
func (m ConvergenceMode) keepGoing(dx, dy, dz, eps float64) bool {
	switch m {
	case ConvergencePerAxis:
		return math.Abs(dx) >= eps || math.Abs(dy) >= eps || math.Abs(dz) >= eps
	case ConvergencePerAxisLegacy:
		return math.Abs(dx) < eps && math.Abs(dy) < eps && math.Abs(dz) < eps
	default:
		return math.Sqrt(dx*dx+dy*dy+dz*dz) > eps
	}
}

// ShiftSeed runs the mean-shift iteration for a single seed against the
// read-only cloud and returns its mode with diagnostics. index may be nil, in
// which case every candidate in the cloud is tested directly.
//
// A degenerate iteration (zero total weight) produces a NaN centroid that
// propagates to the returned mode, matching the reference behavior; the
// diagnostics flag it instead of failing.
func ShiftSeed(cloud []Point, seed Point, params Params, index NeighborIndex) (Mode, SeedDiagnostics) {
	centroid := Mode{X: seed.X, Y: seed.Y, Z: seed.Z}
	var diag SeedDiagnostics

	for {
		cyl := params.Profile.CylinderAt(centroid, params.CrownDiameterToTreeHeight, params.CrownHeightToTreeHeight)
		old := centroid

		var sumX, sumY, sumZ, sumW float64
		accumulate := func(p Point) {
			if !cyl.Contains(p) {
				return
			}
			w := 1.0
			if !params.UniformKernel {
				w = params.Profile.VerticalWeight(cyl, p.Z) * HorizontalWeight(cyl, p.X, p.Y)
			}
			sumX += w * p.X
			sumY += w * p.Y
			sumZ += w * p.Z
			sumW += w
		}
		if index != nil {
			index.VisitCandidates(cyl, accumulate)
		} else {
			for _, p := range cloud {
				accumulate(p)
			}
		}

		if sumW == 0 || math.IsNaN(sumW) {
			diag.Degenerate = true
		}
		centroid = Mode{X: sumX / sumW, Y: sumY / sumW, Z: sumZ / sumW}
		diag.Iterations++

		dx := centroid.X - old.X
		dy := centroid.Y - old.Y
		dz := centroid.Z - old.Z
		if !params.Convergence.keepGoing(dx, dy, dz, params.Epsilon) {
			diag.Converged = true
			return centroid, diag
		}
		if diag.Iterations >= params.MaxIterations {
			return centroid, diag
		}
	}
}
