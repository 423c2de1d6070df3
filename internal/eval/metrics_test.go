package eval

import (
	"math"
	"reflect"
	"testing"
)

func almostEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-9
}

func TestThreshold(t *testing.T) {
	scores := []float64{0.1, 0.5, 0.49999, 0.9, 0.0}
	got := Threshold(scores, 0.5)
	want := []int{0, 1, 0, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Threshold = %v, want %v", got, want)
	}
}

func TestConfuse(t *testing.T) {
	truth := []float64{1, 1, 0, 0, 1, 0}
	pred := []int{1, 0, 1, 0, 1, 0}

	c := Confuse(truth, pred)
	want := Confusion{TP: 2, FN: 1, FP: 1, TN: 2}
	if c != want {
		t.Errorf("Confuse = %+v, want %+v", c, want)
	}
}

func TestConfusionMetrics(t *testing.T) {
	// 100 predictions: TP=40, FP=10, FN=5, TN=45.
	c := Confusion{TP: 40, FP: 10, FN: 5, TN: 45}

	if got := c.Accuracy(); !almostEqual(got, 0.85) {
		t.Errorf("Accuracy = %v, want 0.85", got)
	}
	if got := c.Precision(); !almostEqual(got, 0.8) {
		t.Errorf("Precision = %v, want 0.8", got)
	}
	if got := c.Recall(); !almostEqual(got, 40.0/45.0) {
		t.Errorf("Recall = %v, want %v", got, 40.0/45.0)
	}
	p, r := 0.8, 40.0/45.0
	if got := c.F1(); !almostEqual(got, 2*p*r/(p+r)) {
		t.Errorf("F1 = %v, want %v", got, 2*p*r/(p+r))
	}
}

func TestUndefinedMetricsAreNaN(t *testing.T) {
	tests := []struct {
		name  string
		c     Confusion
		check func(Confusion) float64
	}{
		{"accuracy of empty matrix", Confusion{}, Confusion.Accuracy},
		{"precision with no predicted positives", Confusion{TN: 5, FN: 2}, Confusion.Precision},
		{"recall with no actual positives", Confusion{TN: 5, FP: 2}, Confusion.Recall},
		{"f1 with undefined precision", Confusion{TN: 5, FN: 2}, Confusion.F1},
		{"f1 with zero precision and recall", Confusion{FP: 3, FN: 3}, Confusion.F1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.c); !math.IsNaN(got) {
				t.Errorf("got %v, want NaN", got)
			}
		})
	}
}

func TestAUCPerfectRanking(t *testing.T) {
	truth := []float64{0, 0, 1, 1}
	scores := []float64{0.1, 0.2, 0.8, 0.9}
	if got := AUC(truth, scores); !almostEqual(got, 1.0) {
		t.Errorf("AUC = %v, want 1.0", got)
	}
}

func TestAUCUnsortedScores(t *testing.T) {
	// Scores arrive in prediction order, interleaved by class; the
	// ranking is still perfect.
	truth := []float64{1, 0, 1, 0}
	scores := []float64{0.9, 0.2, 0.8, 0.4}
	if got := AUC(truth, scores); !almostEqual(got, 1.0) {
		t.Errorf("AUC = %v, want 1.0", got)
	}
}

func TestAUCInvertedRanking(t *testing.T) {
	truth := []float64{1, 1, 0, 0}
	scores := []float64{0.1, 0.2, 0.8, 0.9}
	if got := AUC(truth, scores); !almostEqual(got, 0.0) {
		t.Errorf("AUC = %v, want 0.0", got)
	}
}

func TestAUCRandomScoresMidRange(t *testing.T) {
	truth := []float64{1, 0, 1, 0}
	scores := []float64{0.6, 0.6, 0.4, 0.4}
	got := AUC(truth, scores)
	if got < 0.25 || got > 0.75 {
		t.Errorf("AUC = %v, want mid-range for uninformative scores", got)
	}
}

func TestAUCSingleClass(t *testing.T) {
	if got := AUC([]float64{1, 1, 1}, []float64{0.1, 0.5, 0.9}); !math.IsNaN(got) {
		t.Errorf("AUC over all-positive truth = %v, want NaN", got)
	}
	if got := AUC([]float64{0, 0, 0}, []float64{0.1, 0.5, 0.9}); !math.IsNaN(got) {
		t.Errorf("AUC over all-negative truth = %v, want NaN", got)
	}
}

func TestEvaluateRowOrder(t *testing.T) {
	truth := []float64{1, 0, 1, 0}
	scores := []float64{0.9, 0.2, 0.8, 0.4}

	rows := Evaluate(truth, scores, 0.5)
	wantMetrics := []string{MetricAccuracy, MetricAUC, MetricPrecision, MetricRecall, MetricF1}
	if len(rows) != len(wantMetrics) {
		t.Fatalf("Evaluate returned %d rows, want %d", len(rows), len(wantMetrics))
	}
	for i, m := range wantMetrics {
		if rows[i].Metric != m {
			t.Errorf("row %d metric = %q, want %q", i, rows[i].Metric, m)
		}
	}
	// Perfect split at 0.5 on this data.
	if !almostEqual(rows[0].Estimate, 1.0) {
		t.Errorf("accuracy = %v, want 1.0", rows[0].Estimate)
	}
}

func TestTagAndAggregate(t *testing.T) {
	a := Tag("nn_original", Evaluate([]float64{1, 0}, []float64{0.9, 0.1}, 0.5))
	b := Tag("knn_original", Evaluate([]float64{1, 0}, []float64{0.9, 0.1}, 0.5))

	tbl := Aggregate(a, b)
	if len(tbl) != 10 {
		t.Fatalf("aggregated table has %d rows, want 10", len(tbl))
	}

	variants := tbl.Variants()
	if !reflect.DeepEqual(variants, []string{"nn_original", "knn_original"}) {
		t.Errorf("Variants() = %v", variants)
	}
	for _, r := range tbl[:5] {
		if r.Variant != "nn_original" {
			t.Errorf("first group mislabeled: %+v", r)
		}
	}
}
