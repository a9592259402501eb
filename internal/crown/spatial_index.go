package crown

import (
	"math"
	"sort"
)

// estimatedPointsPerCell is used for initial grid capacity estimation.
const estimatedPointsPerCell = 4

// NeighborIndex narrows the candidate scan for a kernel cylinder. Candidates
// are a superset of the cylinder's members; exact membership is always
// re-tested with Cylinder.Contains, so swapping index implementations never
// changes results. A nil index means a direct scan of the whole cloud.
type NeighborIndex interface {
	VisitCandidates(c Cylinder, visit func(Point))
}

// GridIndex buckets points into square cells on the XY plane for
// sub-quadratic cylinder queries. A query visits every point in the cell
// rectangle covering the cylinder footprint. Cell size only affects scan
// cost, never correctness.
type GridIndex struct {
	cellSize float64
	points   []Point
	grid     map[int64][]int
}

// NewGridIndex builds a grid index over the cloud. The index keeps a
// reference to the slice; the cloud must not be mutated while the index is
// in use. cellSize must be positive.
func NewGridIndex(points []Point, cellSize float64) *GridIndex {
	gi := &GridIndex{
		cellSize: cellSize,
		points:   points,
		grid:     make(map[int64][]int, len(points)/estimatedPointsPerCell+1),
	}
	for i, p := range points {
		key := cellKey(gi.cellOf(p.X), gi.cellOf(p.Y))
		gi.grid[key] = append(gi.grid[key], i)
	}
	return gi
}

func (gi *GridIndex) cellOf(v float64) int64 {
	return int64(math.Floor(v / gi.cellSize))
}

// cellKey packs a signed cell coordinate pair into one map key using zigzag
// encoding followed by Szudzik's pairing function.
func cellKey(cx, cy int64) int64 {
	var a, b int64
	if cx >= 0 {
		a = 2 * cx
	} else {
		a = -2*cx - 1
	}
	if cy >= 0 {
		b = 2 * cy
	} else {
		b = -2*cy - 1
	}
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// VisitCandidates calls visit for every point whose cell intersects the
// cylinder's bounding square, in cloud order. Preserving cloud order keeps
// weighted sums bit-identical to a direct scan, so enabling the index never
// perturbs results. Degenerate cylinders (NaN center or radius, or negative
// radius) have no candidates.
func (gi *GridIndex) VisitCandidates(c Cylinder, visit func(Point)) {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Radius) || c.Radius < 0 {
		return
	}
	minX := gi.cellOf(c.X - c.Radius)
	maxX := gi.cellOf(c.X + c.Radius)
	minY := gi.cellOf(c.Y - c.Radius)
	maxY := gi.cellOf(c.Y + c.Radius)

	var candidates []int
	for cx := minX; cx <= maxX; cx++ {
		for cy := minY; cy <= maxY; cy++ {
			candidates = append(candidates, gi.grid[cellKey(cx, cy)]...)
		}
	}
	sort.Ints(candidates)
	for _, idx := range candidates {
		visit(gi.points[idx])
	}
}

var _ NeighborIndex = (*GridIndex)(nil)

// buildIndex constructs the neighbor index for a run, or returns nil when
// the configuration calls for a direct scan. The cell size is the largest
// kernel radius any centroid can reach: centroids are weighted averages of
// cloud heights, so no cylinder outgrows the one derived from the tallest
// point.
func buildIndex(cloud []Point, params Params) NeighborIndex {
	if !params.UseSpatialIndex {
		return nil
	}
	maxZ := math.Inf(-1)
	for _, p := range cloud {
		if p.Z > maxZ {
			maxZ = p.Z
		}
	}
	cellSize := params.CrownDiameterToTreeHeight * maxZ * 0.5
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil
	}
	return NewGridIndex(cloud, cellSize)
}
