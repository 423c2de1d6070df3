// Package pipeline wires the dataset, recipe, model, and eval stages
// into a single parameterized run. One pipeline function serves every
// variant; the variants differ only in their configuration.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/leapstack-labs/churnlab/internal/dataset"
	"github.com/leapstack-labs/churnlab/internal/eval"
	"github.com/leapstack-labs/churnlab/internal/model"
	"github.com/leapstack-labs/churnlab/internal/recipe"
)

// RunConfig holds the settings shared by every variant of a run.
type RunConfig struct {
	SplitProportion float64
	Seed            int64
	Recipe          recipe.Options
	Threshold       float64
}

// Variant is one row group of the comparison: a label, an optional
// missing-data experiment applied before splitting, and the model to
// train.
type Variant struct {
	Label   string
	Missing *dataset.MissingSpec
	Adapter model.Adapter
}

// Runner executes variant pipelines over an immutable base table.
type Runner struct {
	cfg    RunConfig
	logger *slog.Logger
}

// NewRunner returns a runner. A nil logger discards output.
func NewRunner(cfg RunConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{cfg: cfg, logger: logger}
}

// RunVariant executes the full pipeline for one variant: simulate and
// repair missing data if configured, split, fit the recipe on the
// training split only, transform both splits, train, predict, and
// evaluate. The base table is never mutated.
func (r *Runner) RunVariant(ctx context.Context, base *dataset.Table, v Variant) ([]eval.MetricRow, error) {
	table := base
	if v.Missing != nil {
		simulated, err := dataset.Simulate(base, *v.Missing)
		if err != nil {
			return nil, fmt.Errorf("variant %s: simulate missing: %w", v.Label, err)
		}
		repaired, err := dataset.Repair(simulated, *v.Missing)
		if err != nil {
			return nil, fmt.Errorf("variant %s: repair: %w", v.Label, err)
		}
		table = repaired
		r.logger.Debug("applied missingness",
			"variant", v.Label,
			"policy", string(v.Missing.Policy),
			"rows_before", base.Len(),
			"rows_after", table.Len())
	}

	train, test, err := dataset.Split(table, r.cfg.SplitProportion, r.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("variant %s: split: %w", v.Label, err)
	}

	rec, err := recipe.Fit(train, r.cfg.Recipe)
	if err != nil {
		return nil, fmt.Errorf("variant %s: fit recipe: %w", v.Label, err)
	}

	trainX, trainY, err := rec.Apply(train)
	if err != nil {
		return nil, fmt.Errorf("variant %s: transform train: %w", v.Label, err)
	}
	testX, testY, err := rec.Apply(test)
	if err != nil {
		return nil, fmt.Errorf("variant %s: transform test: %w", v.Label, err)
	}

	r.logger.Debug("fitting model",
		"variant", v.Label,
		"adapter", v.Adapter.Name(),
		"train_rows", train.Len(),
		"features", len(rec.Features()))

	handle, err := v.Adapter.Fit(ctx, trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", v.Label, err)
	}
	scores, err := handle.Predict(testX)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", v.Label, err)
	}

	return eval.Tag(v.Label, eval.Evaluate(testY, scores, r.cfg.Threshold)), nil
}

// RunAll executes every variant in order against the same base table
// and aggregates the metric rows into one comparison table. A variant
// failure aborts the run; only sweep trials tolerate failures.
func (r *Runner) RunAll(ctx context.Context, base *dataset.Table, variants []Variant) (eval.MetricsTable, error) {
	groups := make([][]eval.MetricRow, 0, len(variants))
	for _, v := range variants {
		r.logger.Info("running variant", "variant", v.Label, "adapter", v.Adapter.Name())
		rows, err := r.RunVariant(ctx, base, v)
		if err != nil {
			return nil, err
		}
		groups = append(groups, rows)
	}
	return eval.Aggregate(groups...), nil
}
