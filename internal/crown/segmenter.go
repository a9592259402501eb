package crown

import (
	"github.com/banshee-data/crownshift/internal/monitoring"
)

// Segmenter computes one crown mode per input point. Output order matches
// input order.
type Segmenter interface {
	Segment(cloud []Point) []PointMode
}

// MeanShiftSegmenter implements Segmenter using adaptive mean-shift
// mode-finding with a cylinder kernel.
type MeanShiftSegmenter struct {
	params Params
}

// NewMeanShiftSegmenter creates a segmenter with the specified parameters.
func NewMeanShiftSegmenter(params Params) *MeanShiftSegmenter {
	return &MeanShiftSegmenter{params: params}
}

// NewDefaultMeanShiftSegmenter creates a segmenter with default parameters.
func NewDefaultMeanShiftSegmenter() *MeanShiftSegmenter {
	return NewMeanShiftSegmenter(DefaultParams())
}

// GetParams returns the current run parameters.
func (s *MeanShiftSegmenter) GetParams() Params {
	return s.params
}

// SetParams updates the run parameters.
func (s *MeanShiftSegmenter) SetParams(params Params) {
	s.params = params
}

// Segment runs mode-finding for every point in the cloud sequentially and
// returns the result table. Returns nil for an empty cloud.
func (s *MeanShiftSegmenter) Segment(cloud []Point) []PointMode {
	results, _ := s.SegmentDiagnostics(cloud)
	return results
}

// SegmentDiagnostics is Segment with per-seed diagnostics alongside the
// result table. diags[i] describes how results[i] was reached.
func (s *MeanShiftSegmenter) SegmentDiagnostics(cloud []Point) ([]PointMode, []SeedDiagnostics) {
	if len(cloud) == 0 {
		return nil, nil
	}

	index := buildIndex(cloud, s.params)
	results := make([]PointMode, len(cloud))
	diags := make([]SeedDiagnostics, len(cloud))
	for i, seed := range cloud {
		mode, diag := ShiftSeed(cloud, seed, s.params, index)
		results[i] = PointMode{Point: seed, Mode: mode}
		diags[i] = diag
	}

	logDegenerates(diags)
	return results, diags
}

// logDegenerates emits a single warning when any seed produced a degenerate
// kernel, rather than one line per seed.
func logDegenerates(diags []SeedDiagnostics) {
	degenerate := 0
	for _, d := range diags {
		if d.Degenerate {
			degenerate++
		}
	}
	if degenerate > 0 {
		monitoring.Logf("crown: %d of %d seeds hit degenerate kernels (NaN modes)", degenerate, len(diags))
	}
}

// Verify at compile time that *MeanShiftSegmenter implements Segmenter.
var _ Segmenter = (*MeanShiftSegmenter)(nil)
