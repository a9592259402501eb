package crown

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SegmentParallel runs per-seed mode-finding across a worker pool. Seeds are
// independent and only read the shared cloud, so workers need no locking:
// each writes exclusively to its own result and diagnostics slots. Output
// order matches input order, identical to the sequential path.
//
// workers <= 0 means runtime.NumCPU(). The context cancels outstanding work;
// on cancellation the partial results are discarded and ctx.Err() returned.
func SegmentParallel(ctx context.Context, cloud []Point, params Params, workers int) ([]PointMode, []SeedDiagnostics, error) {
	if len(cloud) == 0 {
		return nil, nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	index := buildIndex(cloud, params)
	results := make([]PointMode, len(cloud))
	diags := make([]SeedDiagnostics, len(cloud))

	g, ctx := errgroup.WithContext(ctx)
	seeds := make(chan int)

	g.Go(func() error {
		defer close(seeds)
		for i := range cloud {
			select {
			case seeds <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range seeds {
				mode, diag := ShiftSeed(cloud, cloud[i], params, index)
				results[i] = PointMode{Point: cloud[i], Mode: mode}
				diags[i] = diag
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	logDegenerates(diags)
	return results, diags, nil
}
