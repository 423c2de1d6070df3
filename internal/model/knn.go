package model

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// KNN is the k-nearest-neighbors baseline. Fit stores the training
// data; Predict scores each point by the fraction of positive labels
// among its k nearest training neighbors, so scores land in [0,1] and
// work with both thresholding and ROC analysis.
type KNN struct {
	k int
}

// NewKNN returns a KNN adapter with the given neighbor count.
func NewKNN(k int) *KNN {
	return &KNN{k: k}
}

// Name implements Adapter.
func (m *KNN) Name() string { return "knn" }

// Fit implements Adapter.
func (m *KNN) Fit(_ context.Context, X *mat.Dense, y []float64) (Handle, error) {
	if m.k <= 0 {
		return nil, &TrainingError{Adapter: m.Name(), Err: fmt.Errorf("neighbor count must be positive, got %d", m.k)}
	}
	if err := checkDims(X, y); err != nil {
		return nil, &TrainingError{Adapter: m.Name(), Err: err}
	}

	rows, cols := X.Dims()
	train := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		train[i] = mat.Row(nil, i, X)
	}
	if m.k > rows {
		return nil, &TrainingError{Adapter: m.Name(), Err: fmt.Errorf("k=%d exceeds %d training rows", m.k, rows)}
	}

	return &knnHandle{
		k:        m.k,
		features: cols,
		x:        train,
		y:        append([]float64(nil), y...),
	}, nil
}

type knnHandle struct {
	k        int
	features int
	x        [][]float64
	y        []float64
}

// Predict implements Handle. Rows are scored independently, so the work
// is sharded across the available CPUs.
func (h *knnHandle) Predict(X *mat.Dense) ([]float64, error) {
	rows, cols := X.Dims()
	if cols != h.features {
		return nil, &TrainingError{
			Adapter: "knn",
			Err:     fmt.Errorf("input has %d features, model was trained on %d", cols, h.features),
		}
	}

	out := make([]float64, rows)
	workers := runtime.GOMAXPROCS(0)
	perWorker := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := min(start+perWorker, rows)
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			row := make([]float64, cols)
			for i := s; i < e; i++ {
				mat.Row(row, i, X)
				out[i] = h.score(row)
			}
		}(start, end)
	}
	wg.Wait()

	return out, nil
}

// score returns the positive fraction among the k nearest neighbors.
// Squared distances avoid the square root in comparisons.
func (h *knnHandle) score(xi []float64) float64 {
	type pair struct {
		d float64
		v float64
	}

	nbrs := make([]pair, 0, h.k+1)
	for j, xj := range h.x {
		d := 0.0
		for i := range xi {
			diff := xi[i] - xj[i]
			d += diff * diff
		}

		if len(nbrs) < h.k {
			nbrs = append(nbrs, pair{d: d, v: h.y[j]})
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		} else if d < nbrs[len(nbrs)-1].d {
			nbrs[len(nbrs)-1] = pair{d: d, v: h.y[j]}
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		}
	}

	sum := 0.0
	for _, p := range nbrs {
		sum += p.v
	}
	return sum / float64(len(nbrs))
}
