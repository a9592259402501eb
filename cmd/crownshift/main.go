// Command crownshift delineates tree crowns in a lidar point cloud with
// adaptive mean-shift mode-finding. It reads an XYZ/CSV cloud, computes one
// mode per point, writes the six-column result table as CSV and optionally
// persists the run to a SQLite database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/crownshift/internal/cloudio"
	"github.com/banshee-data/crownshift/internal/config"
	"github.com/banshee-data/crownshift/internal/crown"
	"github.com/banshee-data/crownshift/internal/crowndb"
	"github.com/banshee-data/crownshift/internal/monitoring"
	"github.com/banshee-data/crownshift/internal/version"
)

// Config holds the resolved CLI configuration for one segmentation run.
type Config struct {
	InputPath  string
	OutputPath string
	TuningPath string
	DBPath     string
	Workers    int
	Params     crown.Params
}

func main() {
	var (
		inputPath   = flag.String("input", "", "point cloud file (XYZ or CSV); '-' for stdin")
		outputPath  = flag.String("output", "", "result table CSV file; '-' or empty for stdout")
		tuningPath  = flag.String("tuning", "", "optional tuning JSON file (see config/tuning.defaults.json)")
		dbPath      = flag.String("db", "", "optional SQLite database to persist the run")
		cd2th       = flag.Float64("cd2th", 0, "crown diameter to tree height ratio (overrides tuning)")
		ch2th       = flag.Float64("ch2th", 0, "crown height to tree height ratio (overrides tuning)")
		maxIter     = flag.Int("max-iterations", 0, "iteration budget per seed (overrides tuning)")
		epsilon     = flag.Float64("epsilon", 0, "convergence tolerance (overrides tuning)")
		uniform     = flag.Bool("uniform", false, "use an unweighted kernel (classic variant only)")
		profile     = flag.String("profile", "", "kernel profile: classic or improved (overrides tuning)")
		convergence = flag.String("convergence", "", "convergence mode: euclidean, per-axis or per-axis-legacy (overrides tuning)")
		workers     = flag.Int("workers", -1, "worker count; 0 means one per CPU (overrides tuning)")
		noIndex     = flag.Bool("no-index", false, "disable the spatial grid index (direct scans)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("crownshift %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg, err := resolveConfig(*inputPath, *outputPath, *tuningPath, *dbPath, *workers,
		func(params *crown.Params) error {
			return applyOverrides(params, *cd2th, *ch2th, *maxIter, *epsilon, *uniform, *profile, *convergence, *noIndex)
		})
	if err == nil {
		err = run(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "crownshift: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig layers tuning-file values over defaults, then explicit flags
// over both.
func resolveConfig(inputPath, outputPath, tuningPath, dbPath string, workers int,
	override func(*crown.Params) error) (Config, error) {

	cfg := Config{
		InputPath:  inputPath,
		OutputPath: outputPath,
		TuningPath: tuningPath,
		DBPath:     dbPath,
	}
	if inputPath == "" {
		return cfg, fmt.Errorf("missing -input (use '-' for stdin)")
	}

	tuned := config.EmptyTuningConfig()
	if tuningPath != "" {
		loaded, err := config.LoadTuningConfig(tuningPath)
		if err != nil {
			return cfg, err
		}
		tuned = loaded
	}

	params := crown.DefaultParams()
	params.CrownDiameterToTreeHeight = tuned.GetCrownDiameterToTreeHeight()
	params.CrownHeightToTreeHeight = tuned.GetCrownHeightToTreeHeight()
	params.MaxIterations = tuned.GetMaxIterations()
	params.Epsilon = tuned.GetEpsilon()
	params.UniformKernel = tuned.GetUniformKernel()
	params.UseSpatialIndex = tuned.GetSpatialIndex()

	var err error
	if params.Profile, err = crown.ParseKernelProfile(tuned.GetKernelProfile()); err != nil {
		return cfg, err
	}
	if params.Convergence, err = crown.ParseConvergenceMode(tuned.GetConvergence()); err != nil {
		return cfg, err
	}

	if err := override(&params); err != nil {
		return cfg, err
	}
	if err := params.Validate(); err != nil {
		return cfg, err
	}

	cfg.Params = params
	cfg.Workers = workers
	if workers < 0 {
		cfg.Workers = tuned.GetWorkers()
	}
	return cfg, nil
}

func applyOverrides(params *crown.Params, cd2th, ch2th float64, maxIter int,
	epsilon float64, uniform bool, profile, convergence string, noIndex bool) error {

	if cd2th != 0 {
		params.CrownDiameterToTreeHeight = cd2th
	}
	if ch2th != 0 {
		params.CrownHeightToTreeHeight = ch2th
	}
	if maxIter != 0 {
		params.MaxIterations = maxIter
	}
	if epsilon != 0 {
		params.Epsilon = epsilon
	}
	if uniform {
		params.UniformKernel = true
	}

	var err error
	if profile != "" {
		if params.Profile, err = crown.ParseKernelProfile(profile); err != nil {
			return err
		}
	}
	if convergence != "" {
		if params.Convergence, err = crown.ParseConvergenceMode(convergence); err != nil {
			return err
		}
	}
	if noIndex {
		params.UseSpatialIndex = false
	}
	return nil
}

func run(cfg Config) error {
	cloud, err := readCloud(cfg.InputPath)
	if err != nil {
		return err
	}
	monitoring.Logf("crownshift: loaded %d points from %s", len(cloud), cfg.InputPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, diags, err := crown.SegmentParallel(ctx, cloud, cfg.Params, cfg.Workers)
	if err != nil {
		return fmt.Errorf("segmentation: %w", err)
	}
	elapsed := time.Since(start)

	summary := crown.Summarize(results, diags)
	monitoring.Logf("crownshift: %d seeds in %s: %d converged, %d degenerate, mean %.1f iterations (stddev %.1f), mean displacement %.2f",
		summary.Seeds, elapsed.Round(time.Millisecond), summary.Converged, summary.Degenerate,
		summary.MeanIterations, summary.StdDevIterations, summary.MeanDisplacement)

	if err := writeModes(cfg.OutputPath, results); err != nil {
		return err
	}

	if cfg.DBPath != "" {
		if err := persistRun(cfg, elapsed, results, diags); err != nil {
			return err
		}
	}
	return nil
}

func readCloud(path string) ([]crown.Point, error) {
	if path == "-" {
		return cloudio.ReadCloud(os.Stdin)
	}
	return cloudio.ReadCloudFile(path)
}

func writeModes(path string, results []crown.PointMode) error {
	if path == "" || path == "-" {
		return cloudio.WriteModes(os.Stdout, results)
	}
	return cloudio.WriteModesFile(path, results)
}

func persistRun(cfg Config, elapsed time.Duration,
	results []crown.PointMode, diags []crown.SeedDiagnostics) error {

	db, err := crowndb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	paramsJSON, err := json.Marshal(cfg.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	store := crowndb.NewRunStore(db)
	run := &crowndb.SegmentationRun{
		Source:     cfg.InputPath,
		PointCount: len(results),
		ParamsJSON: paramsJSON,
		DurationMs: elapsed.Milliseconds(),
	}
	if err := store.InsertRun(run); err != nil {
		return err
	}
	if err := store.InsertModes(run.RunID, results, diags); err != nil {
		return err
	}
	monitoring.Logf("crownshift: persisted run %s to %s", run.RunID, cfg.DBPath)
	return nil
}
