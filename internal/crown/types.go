// Package crown implements adaptive mean-shift mode-finding over lidar point
// clouds for tree crown delineation. Every input point seeds a cylinder-shaped
// kernel whose radius and height scale with the seed's current height; the
// kernel is repeatedly re-centered on the weighted centroid of the points it
// covers until it stops moving. Points whose kernels settle on the same mode
// belong to the same crown (grouping modes into crowns is a downstream step,
// not part of this package).
package crown

// Point is a single lidar return in a projected coordinate system.
// X and Y are planar meters, Z is height above ground.
type Point struct {
	X, Y, Z float64
}

// Mode is the stationary kernel position a seed converges to, interpreted
// downstream as a crown-center estimate.
type Mode struct {
	X, Y, Z float64
}

// PointMode pairs an input point with its computed mode. A result table holds
// one PointMode per input point, in input order: result[i] corresponds to
// cloud[i].
type PointMode struct {
	Point Point
	Mode  Mode
}

// SeedDiagnostics reports how one seed's iteration ended. It is optional
// output and never changes the shape of the result table.
type SeedDiagnostics struct {
	// Iterations is the number of centroid updates performed.
	Iterations int
	// Converged is true when the stopping rule fired, false when the
	// iteration budget ran out first.
	Converged bool
	// Degenerate is true when some iteration found no weight at all, in
	// which case the mode is NaN.
	Degenerate bool
}
