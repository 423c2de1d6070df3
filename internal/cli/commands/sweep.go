package commands

import (
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnlab/internal/config"
	"github.com/leapstack-labs/churnlab/internal/dataset"
	"github.com/leapstack-labs/churnlab/internal/pipeline"
	"github.com/leapstack-labs/churnlab/internal/state"
)

// SweepOptions holds options for the sweep command.
type SweepOptions struct {
	NoHistory bool
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand() *cobra.Command {
	opts := &SweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Grid search over neural network hyperparameters",
		Long: `Train one neural network per point of the configured hyperparameter
grid and rank the trials by validation ROC-AUC.

The grid is the cartesian product of the hidden layer sets and dropout
sets under the sweep section of the config. Trials run concurrently on a
worker pool; a failed trial is reported in the ranking but never aborts
the sweep. The test split is left untouched, scoring happens on a
validation slice carved out of the training split.`,
		Example: `  # Sweep with the configured grid
  churnlab sweep

  # Sweep with four concurrent trials
  churnlab sweep --workers 4`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the sweep in the history database")

	return cmd
}

func runSweep(cmd *cobra.Command, opts *SweepOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	base, err := dataset.Load(cfg.DataPath, cfg.Schema())
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	logger.Info("loaded dataset", "path", cfg.DataPath, "rows", base.Len())

	var store *state.SQLiteStore
	var run *state.Run
	if !opts.NoHistory {
		store, err = openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err = store.CreateRun(cfg.DataPath, "sweep")
		if err != nil {
			return err
		}
	}

	sweepCfg := pipeline.SweepConfig{
		Hidden:          cfg.Sweep.Hidden,
		Dropout:         cfg.Sweep.Dropout,
		ValidationSplit: cfg.Model.ValidationSplit,
		Workers:         workerCount(cfg),
		Base:            ffConfigFrom(cfg),
	}
	logger.Info("starting sweep",
		"trials", len(pipeline.Grid(sweepCfg.Hidden, sweepCfg.Dropout)),
		"workers", sweepCfg.Workers)

	runner := pipeline.NewRunner(runConfigFrom(cfg), logger)
	trials, err := runner.Sweep(cmd.Context(), base, sweepCfg)
	if err != nil {
		if run != nil {
			if cerr := store.CompleteRun(run.ID, state.RunStatusFailed, err.Error()); cerr != nil {
				logger.Warn("failed to record sweep failure", "run", run.ID, "error", cerr)
			}
		}
		return err
	}

	renderTrials(cmd.OutOrStdout(), trials)

	if best, ok := pipeline.Best(trials); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "\nBest: hidden=%v dropout=%v roc_auc=%.4f\n",
			best.Hidden, best.Dropout, best.Score)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "\nNo trial completed successfully")
	}

	if run != nil {
		if err := store.SaveTrials(run.ID, trials); err != nil {
			return err
		}
		if err := store.CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
			return err
		}
		logger.Info("recorded sweep", "run", run.ID)
	}

	return nil
}

// renderTrials prints the ranked trial table.
func renderTrials(w io.Writer, trials []pipeline.Trial) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rank", "Hidden", "Dropout", "ROC-AUC", "Status"})

	for rank, tr := range trials {
		score := "NaN"
		if !math.IsNaN(tr.Score) {
			score = fmt.Sprintf("%.4f", tr.Score)
		}
		status := "ok"
		if tr.Failed() {
			status = "failed: " + tr.Err
		}
		t.AppendRow(table.Row{rank + 1, fmt.Sprintf("%v", tr.Hidden), fmt.Sprintf("%v", tr.Dropout), score, status})
	}

	t.Render()
}
