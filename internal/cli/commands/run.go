package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnlab/internal/config"
	"github.com/leapstack-labs/churnlab/internal/dataset"
	"github.com/leapstack-labs/churnlab/internal/model"
	"github.com/leapstack-labs/churnlab/internal/pipeline"
	"github.com/leapstack-labs/churnlab/internal/report"
	"github.com/leapstack-labs/churnlab/internal/state"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	NoHistory bool
	SkipKNN   bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Train and compare all pipeline variants",
		Long: `Execute the full comparison pipeline.

The dataset is run through five variants: the neural network on the
original data, the neural network under three missing-data repair
policies (drop, mean, median), and a nearest-neighbour baseline. Every
variant shares the same split seed and preprocessing recipe settings, so
the resulting metrics are directly comparable.`,
		Example: `  # Run the comparison with config defaults
  churnlab run

  # Run against a different CSV without recording history
  churnlab run --data data/churn_2026.csv --no-history

  # Emit the comparison table as JSON
  churnlab run -o json`,
		Aliases: []string{"compare"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the run in the history database")
	cmd.Flags().BoolVar(&opts.SkipKNN, "skip-knn", false, "Skip the nearest-neighbour baseline")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	table, err := dataset.Load(cfg.DataPath, cfg.Schema())
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	logger.Info("loaded dataset", "path", cfg.DataPath, "rows", table.Len())

	var store *state.SQLiteStore
	var run *state.Run
	if !opts.NoHistory {
		store, err = openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err = store.CreateRun(cfg.DataPath, "compare")
		if err != nil {
			return err
		}
	}

	runner := pipeline.NewRunner(runConfigFrom(cfg), logger)
	metrics, err := runner.RunAll(cmd.Context(), table, buildVariants(cfg, opts))
	if err != nil {
		if run != nil {
			if cerr := store.CompleteRun(run.ID, state.RunStatusFailed, err.Error()); cerr != nil {
				logger.Warn("failed to record run failure", "run", run.ID, "error", cerr)
			}
		}
		return err
	}

	if err := report.Render(cmd.OutOrStdout(), metrics, cfg.OutputFormat); err != nil {
		return err
	}

	if run != nil {
		if err := store.SaveMetrics(run.ID, metrics); err != nil {
			return err
		}
		if err := store.CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
			return err
		}
		logger.Info("recorded run", "run", run.ID)
	}

	return nil
}

// buildVariants assembles the comparison variants in report order.
func buildVariants(cfg *config.Config, opts *RunOptions) []pipeline.Variant {
	ff := ffConfigFrom(cfg)

	variants := []pipeline.Variant{
		{Label: "nn_original", Adapter: model.NewFeedForward(ff)},
	}
	for _, policy := range []dataset.Policy{dataset.PolicyDrop, dataset.PolicyMean, dataset.PolicyMedian} {
		variants = append(variants, pipeline.Variant{
			Label:   "nn_" + string(policy),
			Missing: missingSpec(cfg, policy),
			Adapter: model.NewFeedForward(ff),
		})
	}
	if !opts.SkipKNN {
		variants = append(variants, pipeline.Variant{
			Label:   "knn_original",
			Adapter: model.NewKNN(cfg.Model.KNNNeighbors),
		})
	}
	return variants
}

func missingSpec(cfg *config.Config, policy dataset.Policy) *dataset.MissingSpec {
	return &dataset.MissingSpec{
		From:    cfg.Missing.From,
		To:      cfg.Missing.To,
		Columns: cfg.Missing.Columns,
		Policy:  policy,
	}
}
