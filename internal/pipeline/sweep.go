package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/leapstack-labs/churnlab/internal/dataset"
	"github.com/leapstack-labs/churnlab/internal/eval"
	"github.com/leapstack-labs/churnlab/internal/model"
	"github.com/leapstack-labs/churnlab/internal/recipe"
)

// SweepConfig describes a grid search over feed-forward
// hyperparameters. The grid is the cartesian product of the hidden
// width sets and the dropout rate sets.
type SweepConfig struct {
	Hidden          [][]int
	Dropout         [][]float64
	ValidationSplit float64
	Workers         int
	Base            model.FeedForwardConfig
}

// Trial is one grid point. Failed trials keep their error string and a
// NaN score; they never abort the sweep.
type Trial struct {
	Index   int
	Hidden  []int
	Dropout []float64
	Score   float64
	Err     string
}

// Failed reports whether the trial's training run failed.
func (t Trial) Failed() bool { return t.Err != "" }

// Grid enumerates the cartesian product of hidden and dropout value
// sets in submission order.
func Grid(hidden [][]int, dropout [][]float64) []Trial {
	var trials []Trial
	for _, h := range hidden {
		for _, d := range dropout {
			trials = append(trials, Trial{
				Index:   len(trials),
				Hidden:  h,
				Dropout: d,
				Score:   math.NaN(),
			})
		}
	}
	return trials
}

// Sweep trains one feed-forward model per grid point on a worker pool
// and scores each on a held-out validation slice of the training split.
// Trials are returned sorted by validation ROC-AUC descending, with
// ties broken by submission order and failed trials last.
func (r *Runner) Sweep(ctx context.Context, base *dataset.Table, cfg SweepConfig) ([]Trial, error) {
	if cfg.ValidationSplit <= 0 || cfg.ValidationSplit >= 1 {
		return nil, fmt.Errorf("validation split must be in (0,1), got %v", cfg.ValidationSplit)
	}

	trials := Grid(cfg.Hidden, cfg.Dropout)
	if len(trials) == 0 {
		return nil, fmt.Errorf("empty hyperparameter grid")
	}

	// The sweep evaluates on a validation slice carved out of the
	// training split; the test split stays untouched for the final
	// comparison.
	train, _, err := dataset.Split(base, r.cfg.SplitProportion, r.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("sweep: split: %w", err)
	}
	fit, val, err := dataset.Split(train, 1-cfg.ValidationSplit, r.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("sweep: validation split: %w", err)
	}

	rec, err := recipe.Fit(fit, r.cfg.Recipe)
	if err != nil {
		return nil, fmt.Errorf("sweep: fit recipe: %w", err)
	}
	fitX, fitY, err := rec.Apply(fit)
	if err != nil {
		return nil, fmt.Errorf("sweep: transform fit slice: %w", err)
	}
	valX, valY, err := rec.Apply(val)
	if err != nil {
		return nil, fmt.Errorf("sweep: transform validation slice: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trials {
		i := i
		g.Go(func() error {
			t := &trials[i]
			score, err := r.runTrial(gctx, fitX, fitY, valX, valY, cfg.Base, t)
			if err != nil {
				r.logger.Warn("trial failed", "trial", t.Index, "error", err)
				t.Err = err.Error()
				return nil
			}
			t.Score = score
			r.logger.Debug("trial completed", "trial", t.Index, "score", score)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortTrials(trials)
	return trials, nil
}

func (r *Runner) runTrial(ctx context.Context, fitX *mat.Dense, fitY []float64, valX *mat.Dense, valY []float64, base model.FeedForwardConfig, t *Trial) (float64, error) {
	cfg := base
	cfg.Hidden = t.Hidden
	cfg.Dropout = t.Dropout

	nn := model.NewFeedForward(cfg)
	handle, err := nn.Fit(ctx, fitX, fitY)
	if err != nil {
		return 0, err
	}
	scores, err := handle.Predict(valX)
	if err != nil {
		return 0, err
	}
	return eval.AUC(valY, scores), nil
}

// SortTrials orders trials by score descending with a stable tie-break
// by submission order. Failed and NaN-scored trials sort last.
func SortTrials(trials []Trial) {
	sort.SliceStable(trials, func(a, b int) bool {
		sa, sb := trials[a].Score, trials[b].Score
		if math.IsNaN(sa) {
			return false
		}
		if math.IsNaN(sb) {
			return true
		}
		return sa > sb
	})
}

// Best returns the highest-scoring successful trial.
func Best(trials []Trial) (Trial, bool) {
	for _, t := range trials {
		if !t.Failed() && !math.IsNaN(t.Score) {
			return t, true
		}
	}
	return Trial{}, false
}
