// Package model wraps the trainable classifiers behind a uniform
// fit/predict contract so the pipeline can evaluate them
// interchangeably.
package model

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Handle is an opaque trained model. Predictions are reproducible for a
// fixed handle and input.
type Handle interface {
	// Predict returns one score in [0,1] per input row.
	Predict(X *mat.Dense) ([]float64, error)
}

// Adapter trains a classifier on a feature matrix and 0/1 label vector.
type Adapter interface {
	Name() string
	Fit(ctx context.Context, X *mat.Dense, y []float64) (Handle, error)
}

// TrainingError wraps a failure raised inside an adapter's fit or
// predict. Sweeps record these per trial instead of aborting.
type TrainingError struct {
	Adapter string
	Err     error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("%s: training failed: %v", e.Adapter, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

func checkDims(X *mat.Dense, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("empty feature matrix (%dx%d)", rows, cols)
	}
	if rows != len(y) {
		return fmt.Errorf("feature rows (%d) do not match labels (%d)", rows, len(y))
	}
	return nil
}
