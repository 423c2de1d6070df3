// Package eval converts prediction scores into labels, computes binary
// classification metrics, and assembles labeled comparison tables
// across model variants.
package eval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metric names as they appear in comparison tables.
const (
	MetricAccuracy  = "accuracy"
	MetricAUC       = "roc_auc"
	MetricPrecision = "precision"
	MetricRecall    = "recall"
	MetricF1        = "f1"
)

// MetricRow is one (variant, metric, estimate) entry of a comparison
// table. Undefined metrics carry a NaN estimate rather than an error so
// tables stay complete.
type MetricRow struct {
	Variant  string
	Metric   string
	Estimate float64
}

// MetricsTable is an ordered sequence of metric rows, grouped by
// variant.
type MetricsTable []MetricRow

// Variants returns the distinct variant labels in first-appearance
// order.
func (t MetricsTable) Variants() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t {
		if !seen[r.Variant] {
			seen[r.Variant] = true
			out = append(out, r.Variant)
		}
	}
	return out
}

// Threshold converts scores into 0/1 labels; scores at or above cutoff
// are labeled positive.
func Threshold(scores []float64, cutoff float64) []int {
	out := make([]int, len(scores))
	for i, s := range scores {
		if s >= cutoff {
			out[i] = 1
		}
	}
	return out
}

// Confusion is a binary confusion matrix.
type Confusion struct {
	TP, FP, TN, FN int
}

// Confuse tallies predictions against 0/1 ground truth.
func Confuse(truth []float64, pred []int) Confusion {
	var c Confusion
	for i := range truth {
		positive := truth[i] >= 0.5
		switch {
		case pred[i] == 1 && positive:
			c.TP++
		case pred[i] == 1 && !positive:
			c.FP++
		case pred[i] == 0 && positive:
			c.FN++
		default:
			c.TN++
		}
	}
	return c
}

// Accuracy returns (TP+TN)/(TP+TN+FP+FN), or NaN on an empty matrix.
func (c Confusion) Accuracy() float64 {
	total := c.TP + c.TN + c.FP + c.FN
	if total == 0 {
		return math.NaN()
	}
	return float64(c.TP+c.TN) / float64(total)
}

// Precision returns TP/(TP+FP), or NaN when no positives were
// predicted.
func (c Confusion) Precision() float64 {
	if c.TP+c.FP == 0 {
		return math.NaN()
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall returns TP/(TP+FN), or NaN when no positives exist.
func (c Confusion) Recall() float64 {
	if c.TP+c.FN == 0 {
		return math.NaN()
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// F1 returns the harmonic mean of precision and recall, or NaN when
// both are zero or either is undefined.
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if math.IsNaN(p) || math.IsNaN(r) || p+r == 0 {
		return math.NaN()
	}
	return 2 * p * r / (p + r)
}

// AUC computes the area under the ROC curve from continuous scores,
// independent of any decision threshold. Returns NaN when the truth
// vector contains only one class.
func AUC(truth, scores []float64) float64 {
	pos := 0
	for _, t := range truth {
		if t >= 0.5 {
			pos++
		}
	}
	if pos == 0 || pos == len(truth) {
		return math.NaN()
	}

	// stat.ROC wants scores ascending with aligned class flags.
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	sorted := make([]float64, len(scores))
	classes := make([]bool, len(scores))
	for i, j := range idx {
		sorted[i] = scores[j]
		classes[i] = truth[j] >= 0.5
	}

	// stat.ROC returns both curves ascending from (0,0) to (1,1),
	// ready for trapezoidal integration over fpr.
	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// Evaluate computes the full metric set for one variant: threshold
// metrics at the given cutoff plus threshold-independent ROC-AUC. The
// variant label on the returned rows is empty; see Tag.
func Evaluate(truth, scores []float64, cutoff float64) []MetricRow {
	pred := Threshold(scores, cutoff)
	c := Confuse(truth, pred)

	return []MetricRow{
		{Metric: MetricAccuracy, Estimate: c.Accuracy()},
		{Metric: MetricAUC, Estimate: AUC(truth, scores)},
		{Metric: MetricPrecision, Estimate: c.Precision()},
		{Metric: MetricRecall, Estimate: c.Recall()},
		{Metric: MetricF1, Estimate: c.F1()},
	}
}

// Tag returns a copy of the rows with the variant label set.
func Tag(variant string, rows []MetricRow) []MetricRow {
	out := make([]MetricRow, len(rows))
	for i, r := range rows {
		r.Variant = variant
		out[i] = r
	}
	return out
}

// Aggregate concatenates metric-row groups into one table, preserving
// input order.
func Aggregate(groups ...[]MetricRow) MetricsTable {
	var t MetricsTable
	for _, g := range groups {
		t = append(t, g...)
	}
	return t
}
