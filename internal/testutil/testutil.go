// Package testutil provides shared helpers for churnlab tests.
package testutil

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/churnlab/internal/dataset"
)

// TestLogger returns a debug-level logger that writes through t.Log so
// output shows up only for failing tests.
func TestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(&testWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// Schema returns the schema used by the synthetic test dataset.
func Schema() dataset.Schema {
	return dataset.Schema{
		ID:     "id",
		Target: "churn",
		Fields: []dataset.Field{
			{Name: "plan", Kind: dataset.Categorical},
			{Name: "tenure", Kind: dataset.Count},
			{Name: "charges", Kind: dataset.Continuous},
		},
	}
}

// Table builds a deterministic synthetic churn table with n rows. Rows
// alternate plans, and the label correlates with tenure so models have
// signal to find.
func Table(t *testing.T, n int) *dataset.Table {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	plans := []string{"basic", "plus", "premium"}

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		tenure := rng.Intn(72) + 1
		charges := 20 + 80*rng.Float64()
		churn := "No"
		if tenure < 24 && rng.Float64() < 0.7 {
			churn = "Yes"
		}
		rows = append(rows, []string{
			plans[i%len(plans)],
			fmt.Sprintf("%d", tenure),
			fmt.Sprintf("%.2f", charges),
			churn,
		})
	}

	tbl, err := dataset.NewTable(Schema().Fields, "churn", rows)
	if err != nil {
		t.Fatalf("failed to build test table: %v", err)
	}
	return tbl
}

// WriteCSV writes a CSV file with the synthetic schema into a temp
// directory and returns its path.
func WriteCSV(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "churn.csv")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test CSV: %v", err)
	}
	return path
}

// InDelta checks that two floats agree within tolerance, treating NaN
// as equal to NaN.
func InDelta(t *testing.T, want, got, delta float64, msg string) {
	t.Helper()
	if math.IsNaN(want) && math.IsNaN(got) {
		return
	}
	if math.Abs(want-got) > delta {
		t.Errorf("%s: want %v, got %v (delta %v)", msg, want, got, delta)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}
