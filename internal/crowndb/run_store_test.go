package crowndb

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/crownshift/internal/crown"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "crown_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesMigrations(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Reopening an already-migrated database is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestRunStore_InsertAndGetRun(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	run := &SegmentationRun{
		Source:     "plot7.xyz",
		PointCount: 1234,
		ParamsJSON: json.RawMessage(`{"max_iterations":200}`),
		DurationMs: 42,
	}
	require.NoError(t, store.InsertRun(run))
	assert.NotEmpty(t, run.RunID, "InsertRun should assign a UUID")
	assert.NotZero(t, run.CreatedAtNs)

	got, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, "plot7.xyz", got.Source)
	assert.Equal(t, 1234, got.PointCount)
	assert.JSONEq(t, `{"max_iterations":200}`, string(got.ParamsJSON))
	assert.Equal(t, int64(42), got.DurationMs)
}

func TestRunStore_GetRunNotFound(t *testing.T) {
	store := NewRunStore(openTestDB(t))
	_, err := store.GetRun("no-such-run")
	assert.Error(t, err)
}

func TestRunStore_ModesRoundTrip(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	run := &SegmentationRun{PointCount: 3, ParamsJSON: json.RawMessage(`{}`)}
	require.NoError(t, store.InsertRun(run))

	nan := math.NaN()
	results := []crown.PointMode{
		{Point: crown.Point{X: 1, Y: 2, Z: 10}, Mode: crown.Mode{X: 1.1, Y: 2.1, Z: 10.5}},
		{Point: crown.Point{X: 3, Y: 4, Z: 12}, Mode: crown.Mode{X: 3.2, Y: 4.2, Z: 12.5}},
		{Point: crown.Point{X: 0, Y: 0, Z: -1}, Mode: crown.Mode{X: nan, Y: nan, Z: nan}},
	}
	diags := []crown.SeedDiagnostics{
		{Iterations: 3, Converged: true},
		{Iterations: 200, Converged: false},
		{Iterations: 1, Converged: true, Degenerate: true},
	}
	require.NoError(t, store.InsertModes(run.RunID, results, diags))

	gotResults, gotDiags, err := store.GetModes(run.RunID)
	require.NoError(t, err)
	require.Len(t, gotResults, 3)
	require.Len(t, gotDiags, 3)

	assert.Equal(t, results[0], gotResults[0])
	assert.Equal(t, results[1], gotResults[1])
	assert.Equal(t, diags, gotDiags)

	// Degenerate NaN mode round-trips through NULL columns.
	assert.Equal(t, results[2].Point, gotResults[2].Point)
	assert.True(t, math.IsNaN(gotResults[2].Mode.X))
	assert.True(t, math.IsNaN(gotResults[2].Mode.Y))
	assert.True(t, math.IsNaN(gotResults[2].Mode.Z))
}

func TestRunStore_ListRunsNewestFirst(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	first := &SegmentationRun{CreatedAtNs: 100, PointCount: 1, ParamsJSON: json.RawMessage(`{}`)}
	second := &SegmentationRun{CreatedAtNs: 200, PointCount: 2, ParamsJSON: json.RawMessage(`{}`)}
	require.NoError(t, store.InsertRun(first))
	require.NoError(t, store.InsertRun(second))

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID)
	assert.Equal(t, first.RunID, runs[1].RunID)
}
