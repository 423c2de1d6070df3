package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// FeedForwardConfig holds the hyperparameters of the feed-forward
// network: hidden layer widths, per-hidden-layer dropout rates, and the
// usual SGD knobs. A zero dropout slice disables dropout everywhere.
type FeedForwardConfig struct {
	Hidden       []int
	Dropout      []float64
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
}

func (c FeedForwardConfig) validate() error {
	if len(c.Hidden) == 0 {
		return fmt.Errorf("at least one hidden layer is required")
	}
	for _, w := range c.Hidden {
		if w <= 0 {
			return fmt.Errorf("hidden layer width must be positive, got %d", w)
		}
	}
	if len(c.Dropout) > len(c.Hidden) {
		return fmt.Errorf("got %d dropout rates for %d hidden layers", len(c.Dropout), len(c.Hidden))
	}
	for _, p := range c.Dropout {
		if p < 0 || p >= 1 {
			return fmt.Errorf("dropout rate must be in [0,1), got %v", p)
		}
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epoch count must be positive, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", c.LearningRate)
	}
	return nil
}

// dropoutRate returns the rate for hidden layer l, defaulting to 0.
func (c FeedForwardConfig) dropoutRate(l int) float64 {
	if l < len(c.Dropout) {
		return c.Dropout[l]
	}
	return 0
}

// FeedForward trains a small fully-connected binary classifier with
// ReLU hidden layers, a sigmoid output, cross-entropy loss, and
// mini-batch SGD. Training is deterministic for a fixed seed.
type FeedForward struct {
	cfg FeedForwardConfig
}

// NewFeedForward returns a feed-forward adapter with the given
// hyperparameters.
func NewFeedForward(cfg FeedForwardConfig) *FeedForward {
	return &FeedForward{cfg: cfg}
}

// Name implements Adapter.
func (f *FeedForward) Name() string { return "feedforward" }

// Fit implements Adapter.
func (f *FeedForward) Fit(ctx context.Context, X *mat.Dense, y []float64) (Handle, error) {
	if err := f.cfg.validate(); err != nil {
		return nil, &TrainingError{Adapter: f.Name(), Err: err}
	}
	if err := checkDims(X, y); err != nil {
		return nil, &TrainingError{Adapter: f.Name(), Err: err}
	}

	rows, features := X.Dims()
	sizes := append([]int{features}, f.cfg.Hidden...)
	sizes = append(sizes, 1)
	layers := len(sizes) - 1

	rnd := rand.New(rand.NewSource(f.cfg.Seed))

	weights := make([]*mat.Dense, layers)
	biases := make([][]float64, layers)
	for l := 0; l < layers; l++ {
		scale := math.Sqrt(2 / float64(sizes[l]))
		data := make([]float64, sizes[l]*sizes[l+1])
		for i := range data {
			data[i] = rnd.NormFloat64() * scale
		}
		weights[l] = mat.NewDense(sizes[l], sizes[l+1], data)
		biases[l] = make([]float64, sizes[l+1])
	}

	for epoch := 0; epoch < f.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, &TrainingError{Adapter: f.Name(), Err: err}
		}

		perm := rnd.Perm(rows)
		for start := 0; start < rows; start += f.cfg.BatchSize {
			end := min(start+f.cfg.BatchSize, rows)
			batch := perm[start:end]

			xb := mat.NewDense(len(batch), features, nil)
			yb := make([]float64, len(batch))
			for i, idx := range batch {
				xb.SetRow(i, mat.Row(nil, idx, X))
				yb[i] = y[idx]
			}

			if err := f.step(weights, biases, xb, yb, rnd); err != nil {
				return nil, &TrainingError{Adapter: f.Name(), Err: err}
			}
		}
	}

	return &ffHandle{
		features: features,
		weights:  weights,
		biases:   biases,
	}, nil
}

// step runs one forward/backward pass over a mini-batch and applies the
// SGD update in place.
func (f *FeedForward) step(weights []*mat.Dense, biases [][]float64, xb *mat.Dense, yb []float64, rnd *rand.Rand) error {
	layers := len(weights)
	n, _ := xb.Dims()

	// Forward pass, keeping activations and inverted-dropout masks for
	// the backward pass.
	activations := make([]*mat.Dense, layers+1)
	masks := make([]*mat.Dense, layers)
	activations[0] = xb
	for l := 0; l < layers; l++ {
		z := new(mat.Dense)
		z.Mul(activations[l], weights[l])
		addBias(z, biases[l])

		if l == layers-1 {
			z.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, z)
		} else {
			z.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
			if p := f.cfg.dropoutRate(l); p > 0 {
				_, cols := z.Dims()
				mask := mat.NewDense(n, cols, nil)
				keep := 1 / (1 - p)
				for i := 0; i < n; i++ {
					for j := 0; j < cols; j++ {
						if rnd.Float64() >= p {
							mask.Set(i, j, keep)
						}
					}
				}
				z.MulElem(z, mask)
				masks[l] = mask
			}
		}
		activations[l+1] = z
	}

	out := activations[layers]
	for i := 0; i < n; i++ {
		if math.IsNaN(out.At(i, 0)) {
			return fmt.Errorf("loss diverged (NaN output)")
		}
	}

	// Backward pass. With a sigmoid output and cross-entropy loss the
	// output delta is simply (p - y)/n.
	delta := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		delta.Set(i, 0, (out.At(i, 0)-yb[i])/float64(n))
	}

	for l := layers - 1; l >= 0; l-- {
		var gw mat.Dense
		gw.Mul(activations[l].T(), delta)

		_, cols := delta.Dims()
		gb := make([]float64, cols)
		for j := 0; j < cols; j++ {
			for i := 0; i < n; i++ {
				gb[j] += delta.At(i, j)
			}
		}

		var next *mat.Dense
		if l > 0 {
			next = new(mat.Dense)
			next.Mul(delta, weights[l].T())
			prev := activations[l]
			r, c := next.Dims()
			for i := 0; i < r; i++ {
				for j := 0; j < c; j++ {
					if prev.At(i, j) <= 0 {
						next.Set(i, j, 0)
					} else if masks[l-1] != nil {
						next.Set(i, j, next.At(i, j)*masks[l-1].At(i, j))
					}
				}
			}
		}

		var scaled mat.Dense
		scaled.Scale(f.cfg.LearningRate, &gw)
		weights[l].Sub(weights[l], &scaled)
		for j := range biases[l] {
			biases[l][j] -= f.cfg.LearningRate * gb[j]
		}

		delta = next
	}

	return nil
}

// ffHandle is the trained network state.
type ffHandle struct {
	features int
	weights  []*mat.Dense
	biases   [][]float64
}

// Predict implements Handle. Dropout is disabled at inference.
func (h *ffHandle) Predict(X *mat.Dense) ([]float64, error) {
	rows, cols := X.Dims()
	if cols != h.features {
		return nil, &TrainingError{
			Adapter: "feedforward",
			Err:     fmt.Errorf("input has %d features, model was trained on %d", cols, h.features),
		}
	}

	a := X
	for l := range h.weights {
		z := new(mat.Dense)
		z.Mul(a, h.weights[l])
		addBias(z, h.biases[l])
		if l == len(h.weights)-1 {
			z.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, z)
		} else {
			z.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
		}
		a = z
	}

	scores := make([]float64, rows)
	for i := 0; i < rows; i++ {
		scores[i] = a.At(i, 0)
	}
	return scores, nil
}

func addBias(z *mat.Dense, bias []float64) {
	rows, cols := z.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			z.Set(i, j, z.At(i, j)+bias[j])
		}
	}
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
