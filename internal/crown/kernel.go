package crown

import "math"

// gaussianDecay is the tuned decay constant of the horizontal kernel,
// following equation (11) in Ferraz et al. 2012. It is not user-configurable.
const gaussianDecay = -5.0

// Cylinder is the kernel geometry for one iteration: a vertical cylinder
// centered at (X, Y, Z) with the given radius and height. Cylinders are
// recomputed from the current centroid at every iteration and never persisted.
type Cylinder struct {
	X, Y, Z float64
	Radius  float64
	Height  float64
}

// Contains reports whether p lies inside the cylinder. The rim and the top
// and bottom faces are inclusive.
func (c Cylinder) Contains(p Point) bool {
	dx := p.X - c.X
	dy := p.Y - c.Y
	if dx*dx+dy*dy > c.Radius*c.Radius {
		return false
	}
	top := c.Z + 0.5*c.Height
	bottom := top - c.Height
	return bottom <= p.Z && p.Z <= top
}

// KernelProfile selects one of the two cylinder-placement and
// vertical-weighting conventions.
type KernelProfile int

const (
	// ProfileClassic centers the cylinder on the seed's current height and
	// restricts vertical weighting to the upper three quarters of the span
	// via an explicit band mask.
	ProfileClassic KernelProfile = iota
	// ProfileImproved shrinks the cylinder to 0.75 of the classic height and
	// shifts its center up by a sixth of that height, biasing the kernel
	// toward the upper crown where lidar returns concentrate. No mask is
	// needed: membership filtering already bounds the weighted band.
	ProfileImproved
)

// String returns the profile name used in configuration files and flags.
func (k KernelProfile) String() string {
	switch k {
	case ProfileImproved:
		return "improved"
	default:
		return "classic"
	}
}

// CylinderAt derives the kernel cylinder for a centroid position from the two
// crown shape ratios. The radius is half of crownDiameterToTreeHeight times
// the centroid height; the height is crownHeightToTreeHeight times the
// centroid height, rescaled and re-centered for the improved profile.
func (k KernelProfile) CylinderAt(centroid Mode, crownDiameterToTreeHeight, crownHeightToTreeHeight float64) Cylinder {
	radius := crownDiameterToTreeHeight * centroid.Z * 0.5
	height := crownHeightToTreeHeight * centroid.Z
	z := centroid.Z
	if k == ProfileImproved {
		height *= 0.75
		z += height / 6.0
	}
	return Cylinder{X: centroid.X, Y: centroid.Y, Z: z, Radius: radius, Height: height}
}

// VerticalWeight computes the Epanechnikov-shaped weight of a point's height
// within the cylinder. For points inside the effective vertical band the
// weight is in [0, 1]: zero at the band edges, one at the band's center.
// Callers filter membership first; the classic profile additionally masks
// out-of-band heights to zero itself.
func (k KernelProfile) VerticalWeight(c Cylinder, pointZ float64) float64 {
	if k == ProfileImproved {
		// The cylinder is already rescaled and re-centered, so a plain
		// parabolic falloff across the half-height does the job.
		d := math.Abs(c.Z-pointZ) / (0.5 * c.Height)
		return 1 - d*d
	}
	return verticalWeightClassic(c, pointZ)
}

// verticalWeightClassic weights across the upper three quarters of the
// cylinder, the band [centerZ − h/4, centerZ + h/2]. The distance to the
// nearer band edge is normalized by half the band height (3h/8), so the
// weight peaks at the band's midpoint and falls to zero at both edges.
// Points outside the band are masked to zero.
func verticalWeightClassic(c Cylinder, pointZ float64) float64 {
	lower := c.Z - c.Height/4.0
	upper := c.Z + c.Height/2.0
	if pointZ < lower || pointZ > upper {
		return 0
	}
	halfBand := c.Height * 3.0 / 8.0
	d := math.Min(math.Abs(lower-pointZ), math.Abs(upper-pointZ)) / halfBand
	e := 1 - d
	return 1 - e*e
}

// HorizontalWeight computes the Gaussian weight of a point's planar distance
// to the cylinder axis, normalized by the radius. The weight is in (0, 1]
// and equals one only on the axis; points near the rim are down-weighted.
func HorizontalWeight(c Cylinder, pointX, pointY float64) float64 {
	d := math.Hypot(pointX-c.X, pointY-c.Y) / c.Radius
	return math.Exp(gaussianDecay * d * d)
}
