package model

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testConfig() FeedForwardConfig {
	return FeedForwardConfig{
		Hidden:       []int{8},
		Dropout:      nil,
		Epochs:       50,
		BatchSize:    8,
		LearningRate: 0.1,
		Seed:         1,
	}
}

// xorData is a small nonlinear problem the network must be able to
// separate.
func xorData() (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(3))
	n := 200
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := float64(rng.Intn(2))
		b := float64(rng.Intn(2))
		// Small jitter keeps rows distinct.
		X.Set(i, 0, a*2-1+0.1*rng.NormFloat64())
		X.Set(i, 1, b*2-1+0.1*rng.NormFloat64())
		if a != b {
			y[i] = 1
		}
	}
	return X, y
}

func TestFeedForwardConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FeedForwardConfig)
	}{
		{"no hidden layers", func(c *FeedForwardConfig) { c.Hidden = nil }},
		{"zero width layer", func(c *FeedForwardConfig) { c.Hidden = []int{8, 0} }},
		{"too many dropout rates", func(c *FeedForwardConfig) { c.Dropout = []float64{0.1, 0.2} }},
		{"dropout of one", func(c *FeedForwardConfig) { c.Dropout = []float64{1.0} }},
		{"negative dropout", func(c *FeedForwardConfig) { c.Dropout = []float64{-0.1} }},
		{"zero epochs", func(c *FeedForwardConfig) { c.Epochs = 0 }},
		{"zero batch size", func(c *FeedForwardConfig) { c.BatchSize = 0 }},
		{"zero learning rate", func(c *FeedForwardConfig) { c.LearningRate = 0 }},
	}

	X, y := xorData()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewFeedForward(cfg).Fit(context.Background(), X, y)
			var trainErr *TrainingError
			if !errors.As(err, &trainErr) {
				t.Fatalf("expected TrainingError, got %v", err)
			}
		})
	}
}

func TestFeedForwardDeterministic(t *testing.T) {
	X, y := xorData()

	predict := func() []float64 {
		h, err := NewFeedForward(testConfig()).Fit(context.Background(), X, y)
		if err != nil {
			t.Fatalf("fit: %v", err)
		}
		scores, err := h.Predict(X)
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		return scores
	}

	a := predict()
	b := predict()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at row %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFeedForwardLearnsXOR(t *testing.T) {
	X, y := xorData()

	cfg := testConfig()
	cfg.Epochs = 200
	h, err := NewFeedForward(cfg).Fit(context.Background(), X, y)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	scores, err := h.Predict(X)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	correct := 0
	for i, s := range scores {
		if s < 0 || s > 1 {
			t.Fatalf("score %v outside [0,1]", s)
		}
		if (s >= 0.5) == (y[i] == 1) {
			correct++
		}
	}
	if acc := float64(correct) / float64(len(y)); acc < 0.9 {
		t.Errorf("training accuracy %v, want at least 0.9", acc)
	}
}

func TestFeedForwardDropoutStillDeterministic(t *testing.T) {
	X, y := xorData()

	cfg := testConfig()
	cfg.Dropout = []float64{0.3}

	fit := func() []float64 {
		h, err := NewFeedForward(cfg).Fit(context.Background(), X, y)
		if err != nil {
			t.Fatalf("fit: %v", err)
		}
		scores, _ := h.Predict(X)
		return scores
	}

	a, b := fit(), fit()
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("dropout training is not seed-deterministic")
		}
	}
}

func TestFeedForwardPredictDimCheck(t *testing.T) {
	X, y := xorData()
	h, err := NewFeedForward(testConfig()).Fit(context.Background(), X, y)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	wide := mat.NewDense(3, 5, nil)
	if _, err := h.Predict(wide); err == nil {
		t.Error("expected error predicting with wrong feature count")
	}
}

func TestFeedForwardCancelledContext(t *testing.T) {
	X, y := xorData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFeedForward(testConfig()).Fit(ctx, X, y); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestFeedForwardDimMismatch(t *testing.T) {
	X := mat.NewDense(4, 2, nil)
	y := make([]float64, 3)
	if _, err := NewFeedForward(testConfig()).Fit(context.Background(), X, y); err == nil {
		t.Error("expected error for row/label count mismatch")
	}
}

func TestTrainingErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &TrainingError{Adapter: "feedforward", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("TrainingError does not unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("empty error message")
	}
}

func TestScoresAreFinite(t *testing.T) {
	X, y := xorData()
	h, err := NewFeedForward(testConfig()).Fit(context.Background(), X, y)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	scores, _ := h.Predict(X)
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("score %d is not finite: %v", i, s)
		}
	}
}
