package state

import (
	"math"
	"testing"

	"github.com/leapstack-labs/churnlab/internal/eval"
	"github.com/leapstack-labs/churnlab/internal/pipeline"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun("data/churn.csv", "compare")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if run.ID == "" {
		t.Error("run ID should not be empty")
	}
	if run.Status != RunStatusRunning {
		t.Errorf("new run status = %q, want running", run.Status)
	}

	if err := store.CompleteRun(run.ID, RunStatusCompleted, ""); err != nil {
		t.Fatalf("complete run: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != RunStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed run has no completion time")
	}
	if got.Dataset != "data/churn.csv" || got.Kind != "compare" {
		t.Errorf("run fields lost: %+v", got)
	}
}

func TestSQLiteStore_FailedRun(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun("data/churn.csv", "sweep")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.CompleteRun(run.ID, RunStatusFailed, "split: boom"); err != nil {
		t.Fatalf("complete run: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != RunStatusFailed || got.Error != "split: boom" {
		t.Errorf("failed run = %+v", got)
	}
}

func TestSQLiteStore_RunNotFound(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.GetRun("nope"); err == nil {
		t.Error("expected error for unknown run")
	}
	if err := store.CompleteRun("nope", RunStatusCompleted, ""); err == nil {
		t.Error("expected error completing unknown run")
	}
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.CreateRun("data/churn.csv", "compare"); err != nil {
			t.Fatalf("create run %d: %v", i, err)
		}
	}

	runs, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("listed %d runs, want 2 (limit)", len(runs))
	}

	runs, err = store.ListRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("listed %d runs, want 3", len(runs))
	}
}

func TestSQLiteStore_MetricsRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	run, _ := store.CreateRun("data/churn.csv", "compare")

	table := eval.MetricsTable{
		{Variant: "nn_original", Metric: eval.MetricAccuracy, Estimate: 0.85},
		{Variant: "nn_original", Metric: eval.MetricPrecision, Estimate: math.NaN()},
		{Variant: "knn_original", Metric: eval.MetricAccuracy, Estimate: 0.78},
	}
	if err := store.SaveMetrics(run.ID, table); err != nil {
		t.Fatalf("save metrics: %v", err)
	}

	got, err := store.MetricsForRun(run.ID)
	if err != nil {
		t.Fatalf("load metrics: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d rows, want 3", len(got))
	}
	if got[0].Variant != "nn_original" || got[0].Estimate != 0.85 {
		t.Errorf("row 0 = %+v", got[0])
	}
	// NaN estimates survive the NULL round trip.
	if !math.IsNaN(got[1].Estimate) {
		t.Errorf("row 1 estimate = %v, want NaN", got[1].Estimate)
	}
	if got[2].Variant != "knn_original" {
		t.Errorf("stored order lost: %+v", got[2])
	}
}

func TestSQLiteStore_TrialsRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	run, _ := store.CreateRun("data/churn.csv", "sweep")

	trials := []pipeline.Trial{
		{Index: 1, Hidden: []int{32, 16}, Dropout: []float64{0.2, 0.1}, Score: 0.91},
		{Index: 0, Hidden: []int{16}, Dropout: []float64{0}, Score: 0.88},
		{Index: 2, Hidden: []int{64}, Dropout: []float64{0.5}, Score: math.NaN(), Err: "loss diverged"},
	}
	if err := store.SaveTrials(run.ID, trials); err != nil {
		t.Fatalf("save trials: %v", err)
	}

	got, err := store.TrialsForRun(run.ID)
	if err != nil {
		t.Fatalf("load trials: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d trials, want 3", len(got))
	}

	// Stored (sorted) order is preserved, not submission order.
	if got[0].Index != 1 || got[1].Index != 0 {
		t.Errorf("trial order = %d, %d", got[0].Index, got[1].Index)
	}
	if len(got[0].Hidden) != 2 || got[0].Hidden[0] != 32 || got[0].Dropout[1] != 0.1 {
		t.Errorf("hyperparameters lost: %+v", got[0])
	}
	if !math.IsNaN(got[2].Score) || got[2].Err != "loss diverged" {
		t.Errorf("failed trial lost its state: %+v", got[2])
	}
	if !got[2].Failed() {
		t.Error("failed trial should report Failed")
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	if _, err := store.CreateRun("x", "compare"); err == nil {
		t.Error("expected error on unopened store")
	}
	if err := store.Migrate(); err == nil {
		t.Error("expected migrate error on unopened store")
	}
}
