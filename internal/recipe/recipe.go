// Package recipe implements the fitted feature-transformation pipeline:
// discretize one numeric column into ordered bins, log-transform
// another, one-hot encode all categorical predictors, then center and
// scale every feature column. A recipe is fit exactly once on the
// training split and applied read-only to any compatible table, which
// is what keeps test data out of every fitted statistic.
package recipe

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/leapstack-labs/churnlab/internal/dataset"
)

// Options selects the columns the recipe transforms and the target
// encoding.
type Options struct {
	// Discretize names the numeric column to bin into ordered
	// quantile-based bins.
	Discretize string
	// Bins is the number of bins for the discretized column.
	Bins int
	// Log names the numeric column to natural-log transform.
	Log string
	// Target names the binary target column.
	Target string
	// Positive is the target level encoded as 1.
	Positive string
}

// DomainError reports a log transform applied to a non-positive value.
type DomainError struct {
	Column string
	Value  float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("log transform of column %q: non-positive value %v", e.Column, e.Value)
}

// DegenerateColumnError reports a zero-variance feature column
// encountered during scaling.
type DegenerateColumnError struct {
	Feature string
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("feature %q has zero standard deviation", e.Feature)
}

// Recipe is an immutable fitted transformation pipeline. All state is
// captured at fit time; Apply never mutates the recipe or its input.
type Recipe struct {
	opts   Options
	fields []dataset.Field
	edges  []float64           // interior bin edges for the discretized column
	levels map[string][]string // categorical column -> ordered one-hot levels
	names  []string            // expanded feature names, matrix column order
	mean   []float64
	std    []float64
}

// Fit learns the recipe's parameters from the training split only:
// quantile bin edges, the one-hot level schema from observed levels,
// and per-feature mean and standard deviation computed after the
// discretize, log, and encoding transforms.
func Fit(train *dataset.Table, opts Options) (*Recipe, error) {
	if opts.Bins < 2 {
		return nil, fmt.Errorf("bin count must be at least 2, got %d", opts.Bins)
	}
	if opts.Discretize == opts.Log {
		return nil, fmt.Errorf("discretize and log columns must differ (both %q)", opts.Discretize)
	}
	if train.Len() == 0 {
		return nil, fmt.Errorf("cannot fit recipe on an empty table")
	}

	r := &Recipe{
		opts:   opts,
		fields: train.Fields(),
		levels: make(map[string][]string),
	}

	if err := r.checkColumns(train); err != nil {
		return nil, err
	}

	// Quantile-based bin edges from training data only.
	vals, err := train.Floats(opts.Discretize)
	if err != nil {
		return nil, err
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	r.edges = make([]float64, opts.Bins-1)
	for i := 1; i < opts.Bins; i++ {
		q := float64(i) / float64(opts.Bins)
		r.edges[i-1] = stat.Quantile(q, stat.Empirical, sorted, nil)
	}

	// The log column must be strictly positive on training data; apply
	// re-checks future values.
	logVals, err := train.Floats(opts.Log)
	if err != nil {
		return nil, err
	}
	for _, v := range logVals {
		if v <= 0 {
			return nil, &DomainError{Column: opts.Log, Value: v}
		}
	}

	// One-hot schema: distinct levels per categorical predictor in
	// order of first appearance. The discretized column contributes
	// its full ordered bin label set.
	for _, f := range r.fields {
		switch {
		case f.Name == opts.Discretize:
			labels := make([]string, opts.Bins)
			for i := range labels {
				labels[i] = binLabel(i)
			}
			r.levels[f.Name] = labels
		case f.Kind == dataset.Categorical:
			col, err := train.Col(f.Name)
			if err != nil {
				return nil, err
			}
			seen := make(map[string]bool)
			var levels []string
			for _, v := range col {
				if !seen[v] {
					seen[v] = true
					levels = append(levels, v)
				}
			}
			r.levels[f.Name] = levels
		}
	}

	r.names = r.featureNames()

	// Center/scale statistics over the transformed training matrix.
	raw, _, err := r.buildMatrix(train)
	if err != nil {
		return nil, err
	}
	rows, cols := raw.Dims()
	r.mean = make([]float64, cols)
	r.std = make([]float64, cols)
	colBuf := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(colBuf, j, raw)
		r.mean[j], r.std[j] = stat.MeanStdDev(colBuf, nil)
	}

	return r, nil
}

// Features returns the expanded feature names in matrix column order.
func (r *Recipe) Features() []string {
	return append([]string(nil), r.names...)
}

// Apply transforms a compatible table into a standardized feature
// matrix and a 0/1 target vector. It is pure: applying the same recipe
// to the same table twice yields identical output. Levels unseen at fit
// time map to all-zero indicator rows; a zero-variance feature column
// yields a DegenerateColumnError.
func (r *Recipe) Apply(t *dataset.Table) (*mat.Dense, []float64, error) {
	if err := r.checkColumns(t); err != nil {
		return nil, nil, err
	}

	raw, y, err := r.buildMatrix(t)
	if err != nil {
		return nil, nil, err
	}

	rows, cols := raw.Dims()
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		if r.std[j] == 0 {
			return nil, nil, &DegenerateColumnError{Feature: r.names[j]}
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, (raw.At(i, j)-r.mean[j])/r.std[j])
		}
	}
	return out, y, nil
}

// buildMatrix applies discretize, log, and one-hot encoding, producing
// the unscaled feature matrix and the encoded target.
func (r *Recipe) buildMatrix(t *dataset.Table) (*mat.Dense, []float64, error) {
	n := t.Len()
	width := len(r.names)
	m := mat.NewDense(n, width, nil)

	col := 0
	for _, f := range r.fields {
		levels, categorical := r.levels[f.Name]
		if categorical {
			values, err := t.Col(f.Name)
			if err != nil {
				return nil, nil, err
			}
			for i, v := range values {
				if f.Name == r.opts.Discretize {
					x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
					if err != nil {
						return nil, nil, fmt.Errorf("column %q: row %d: %w", f.Name, i, err)
					}
					v = binLabel(r.bin(x))
				}
				// A level unseen at fit time leaves the row all zero.
				for k, level := range levels {
					if v == level {
						m.Set(i, col+k, 1)
						break
					}
				}
			}
			col += len(levels)
			continue
		}

		values, err := t.Floats(f.Name)
		if err != nil {
			return nil, nil, err
		}
		for i, v := range values {
			if f.Name == r.opts.Log {
				if v <= 0 {
					return nil, nil, &DomainError{Column: f.Name, Value: v}
				}
				v = math.Log(v)
			}
			m.Set(i, col, v)
		}
		col++
	}

	target, err := t.Col(r.opts.Target)
	if err != nil {
		return nil, nil, err
	}
	y := make([]float64, n)
	for i, v := range target {
		if v == r.opts.Positive {
			y[i] = 1
		}
	}

	return m, y, nil
}

// bin maps a value to its training-fit bin index. Values at or below an
// interior edge fall into the bin to its left; values beyond the last
// edge fall into the final bin.
func (r *Recipe) bin(v float64) int {
	for i, edge := range r.edges {
		if v <= edge {
			return i
		}
	}
	return len(r.edges)
}

func (r *Recipe) featureNames() []string {
	var names []string
	for _, f := range r.fields {
		if levels, ok := r.levels[f.Name]; ok {
			for _, level := range levels {
				names = append(names, f.Name+"_"+level)
			}
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

func (r *Recipe) checkColumns(t *dataset.Table) error {
	if _, ok := fieldByName(t, r.opts.Discretize); !ok {
		return &dataset.SchemaError{Column: r.opts.Discretize}
	}
	if _, ok := fieldByName(t, r.opts.Log); !ok {
		return &dataset.SchemaError{Column: r.opts.Log}
	}
	if t.Target() != r.opts.Target {
		return &dataset.SchemaError{Column: r.opts.Target}
	}
	return nil
}

func fieldByName(t *dataset.Table, name string) (dataset.Field, bool) {
	for _, f := range t.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return dataset.Field{}, false
}

func binLabel(i int) string {
	return "bin" + strconv.Itoa(i+1)
}
