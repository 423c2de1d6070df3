package dataset

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Policy selects how rows with missing values are repaired.
type Policy string

const (
	// PolicyNone leaves the table untouched.
	PolicyNone Policy = "none"
	// PolicyDrop removes every row containing a missing marker.
	PolicyDrop Policy = "drop"
	// PolicyMean substitutes the column mean computed over the
	// reference slice.
	PolicyMean Policy = "mean"
	// PolicyMedian substitutes the column median computed over the
	// reference slice.
	PolicyMedian Policy = "median"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyNone, PolicyDrop, PolicyMean, PolicyMedian:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown repair policy %q (want none, drop, mean, or median)", s)
}

// MissingSpec describes a missingness experiment: overwrite the given
// numeric columns over the half-open row range [From, To) with missing
// markers, then repair under Policy.
type MissingSpec struct {
	From    int
	To      int
	Columns []string
	Policy  Policy
}

func (s MissingSpec) validate(t *Table) error {
	if s.From < 0 || s.To > t.Len() || s.From >= s.To {
		return fmt.Errorf("missing range [%d,%d) out of bounds for %d rows", s.From, s.To, t.Len())
	}
	for _, name := range s.Columns {
		f, ok := t.fieldByName(name)
		if !ok {
			return &SchemaError{Column: name}
		}
		if !f.Kind.Numeric() {
			return fmt.Errorf("column %q is not numeric", name)
		}
	}
	return nil
}

func (t *Table) fieldByName(name string) (Field, bool) {
	for _, f := range t.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Simulate returns a copy of the table with the spec's columns
// overwritten by missing markers over its row range.
func Simulate(t *Table, spec MissingSpec) (*Table, error) {
	if err := spec.validate(t); err != nil {
		return nil, err
	}
	out := t.Clone()
	for i := spec.From; i < spec.To; i++ {
		for _, name := range spec.Columns {
			out.set(i, name, Missing)
		}
	}
	return out, nil
}

// Repair resolves missing markers according to the spec's policy. For
// the mean and median policies the substituted statistic is computed
// strictly over the reference slice, the rows outside [From, To), so
// the imputation value is never contaminated by the data it replaces.
func Repair(t *Table, spec MissingSpec) (*Table, error) {
	switch spec.Policy {
	case PolicyNone:
		return t.Clone(), nil
	case PolicyDrop:
		return t.DropIncomplete(), nil
	case PolicyMean, PolicyMedian:
		return impute(t, spec)
	}
	return nil, fmt.Errorf("unknown repair policy %q", spec.Policy)
}

func impute(t *Table, spec MissingSpec) (*Table, error) {
	if err := spec.validate(t); err != nil {
		return nil, err
	}
	out := t.Clone()
	for _, name := range spec.Columns {
		ref, err := referenceValues(t, name, spec.From, spec.To)
		if err != nil {
			return nil, err
		}
		if len(ref) == 0 {
			return nil, fmt.Errorf("column %q: no reference values outside rows [%d,%d)", name, spec.From, spec.To)
		}

		var fill float64
		if spec.Policy == PolicyMean {
			fill = stat.Mean(ref, nil)
		} else {
			fill = median(ref)
		}
		formatted := strconv.FormatFloat(fill, 'g', -1, 64)

		col, _ := t.Col(name)
		for i, v := range col {
			if IsMissing(v) {
				out.set(i, name, formatted)
			}
		}
	}
	return out, nil
}

// referenceValues collects the parsed, non-missing values of a column
// from rows outside the overwritten range.
func referenceValues(t *Table, name string, from, to int) ([]float64, error) {
	col, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	var out []float64
	for i, v := range col {
		if i >= from && i < to {
			continue
		}
		if IsMissing(v) {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: row %d: %w", name, i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
