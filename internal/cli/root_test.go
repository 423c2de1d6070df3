package cli

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/churnlab/internal/config"
)

// writeDataset writes a synthetic churn CSV and a matching config file,
// returning the config path.
func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	rng := rand.New(rand.NewSource(7))
	plans := []string{"basic", "plus", "premium"}

	var b strings.Builder
	b.WriteString("id,plan,tenure,charges,churn\n")
	for i := 0; i < 250; i++ {
		tenure := rng.Intn(72) + 1
		charges := 20 + 80*rng.Float64()
		churn := "No"
		if tenure < 24 && rng.Float64() < 0.7 {
			churn = "Yes"
		}
		fmt.Fprintf(&b, "c%d,%s,%d,%.2f,%s\n", i, plans[i%3], tenure, charges, churn)
	}
	csvPath := filepath.Join(dir, "churn.csv")
	if err := os.WriteFile(csvPath, []byte(b.String()), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	cfg := fmt.Sprintf(`data_path: %s
state_path: %s
dataset:
  id_column: id
  target_column: churn
  positive_label: "Yes"
  categorical: [plan]
  continuous: [charges]
  counts: [tenure]
split:
  proportion: 0.8
  seed: 42
recipe:
  discretize_column: tenure
  bins: 4
  log_column: charges
missing:
  from: 0
  to: 50
  columns: [tenure, charges]
model:
  threshold: 0.5
  hidden: [8]
  dropout: []
  epochs: 10
  batch_size: 16
  learning_rate: 0.05
  validation_split: 0.25
  knn_neighbors: 5
  seed: 1
sweep:
  hidden: [[4], [8]]
  dropout: [[0]]
`, csvPath, filepath.Join(dir, "state.db"))

	cfgPath := filepath.Join(dir, "churnlab.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRootVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "churnlab v") {
		t.Errorf("version output = %q", out)
	}
}

func TestCheckCommand(t *testing.T) {
	cfgPath := writeDataset(t)

	out, err := execute(t, "check", "--config", cfgPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "250 total") {
		t.Errorf("check output missing row count:\n%s", out)
	}
}

func TestRunCommandComparisonTable(t *testing.T) {
	cfgPath := writeDataset(t)

	out, err := execute(t, "run", "--config", cfgPath, "--no-history", "-o", "markdown")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, want := range []string{"nn_original", "nn_drop", "nn_mean", "nn_median", "knn_original", "roc_auc"} {
		if !strings.Contains(out, want) {
			t.Errorf("comparison table missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandRecordsHistory(t *testing.T) {
	cfgPath := writeDataset(t)

	if _, err := execute(t, "run", "--config", cfgPath, "--skip-knn"); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, err := execute(t, "history", "--config", cfgPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "compare") || !strings.Contains(out, "completed") {
		t.Errorf("history missing the recorded run:\n%s", out)
	}
}

func TestSweepCommand(t *testing.T) {
	cfgPath := writeDataset(t)

	out, err := execute(t, "sweep", "--config", cfgPath, "--no-history", "--workers", "2")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "Best:") {
		t.Errorf("sweep output missing best trial:\n%s", out)
	}
	if !strings.Contains(out, "ROC-AUC") {
		t.Errorf("sweep output missing ranking table:\n%s", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	cfgPath := writeDataset(t)

	out, err := execute(t, "history", "--config", cfgPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No recorded runs") {
		t.Errorf("history output = %q", out)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	cfgPath := writeDataset(t)

	if _, err := execute(t, "run", "--config", cfgPath, "--no-history", "-o", "xml"); err == nil {
		t.Error("expected error for unknown output format")
	}
}
