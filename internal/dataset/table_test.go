package dataset

import (
	"testing"
)

var testFields = []Field{
	{Name: "plan", Kind: Categorical},
	{Name: "tenure", Kind: Count},
	{Name: "charges", Kind: Continuous},
}

func mustTable(t *testing.T, rows [][]string) *Table {
	t.Helper()
	tbl, err := NewTable(testFields, "churn", rows)
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	return tbl
}

func TestIsMissing(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"NA", true},
		{"NaN", true},
		{"", true},
		{"   ", true},
		{" NA ", true},
		{"0", false},
		{"na", false},
		{"none", false},
	}
	for _, tt := range tests {
		if got := IsMissing(tt.value); got != tt.want {
			t.Errorf("IsMissing(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestNewTableRowWidth(t *testing.T) {
	_, err := NewTable(testFields, "churn", [][]string{
		{"basic", "12", "50.0"},
	})
	if err == nil {
		t.Fatal("expected error for row missing the target cell")
	}
}

func TestTableAccessors(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"basic", "12", "50.0", "No"},
		{"plus", "3", "75.5", "Yes"},
	})

	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if tbl.Target() != "churn" {
		t.Errorf("Target() = %q, want churn", tbl.Target())
	}

	v, err := tbl.Value(1, "plan")
	if err != nil || v != "plus" {
		t.Errorf("Value(1, plan) = %q, %v", v, err)
	}

	col, err := tbl.Col("churn")
	if err != nil {
		t.Fatalf("Col(churn): %v", err)
	}
	if col[0] != "No" || col[1] != "Yes" {
		t.Errorf("Col(churn) = %v", col)
	}

	if _, err := tbl.Value(0, "nope"); err == nil {
		t.Error("expected SchemaError for unknown column")
	}
}

func TestTableFloats(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"basic", "12", "50.0", "No"},
		{"plus", "3", "75.5", "Yes"},
	})

	vals, err := tbl.Floats("charges")
	if err != nil {
		t.Fatalf("Floats(charges): %v", err)
	}
	if vals[0] != 50.0 || vals[1] != 75.5 {
		t.Errorf("Floats(charges) = %v", vals)
	}

	withMissing := mustTable(t, [][]string{
		{"basic", "NA", "50.0", "No"},
	})
	if _, err := withMissing.Floats("tenure"); err == nil {
		t.Error("expected error parsing missing cell as float")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"basic", "12", "50.0", "No"},
	})
	clone := tbl.Clone()
	clone.set(0, "plan", "premium")

	v, _ := tbl.Value(0, "plan")
	if v != "basic" {
		t.Errorf("mutating a clone changed the original: %q", v)
	}
}

func TestDropIncomplete(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"basic", "12", "50.0", "No"},
		{"plus", "NA", "75.5", "Yes"},
		{"premium", "8", "", "No"},
		{"basic", "40", "99.9", "No"},
	})

	got := tbl.DropIncomplete()
	if got.Len() != 2 {
		t.Fatalf("DropIncomplete kept %d rows, want 2", got.Len())
	}
	v, _ := got.Value(1, "tenure")
	if v != "40" {
		t.Errorf("surviving row order wrong, got tenure %q", v)
	}

	// Original is untouched.
	if tbl.Len() != 4 {
		t.Errorf("original table mutated, Len() = %d", tbl.Len())
	}
}

func TestSubsetOrder(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"basic", "1", "10", "No"},
		{"plus", "2", "20", "Yes"},
		{"premium", "3", "30", "No"},
	})

	sub := tbl.Subset([]int{2, 0})
	if sub.Len() != 2 {
		t.Fatalf("Subset kept %d rows, want 2", sub.Len())
	}
	v, _ := sub.Value(0, "tenure")
	if v != "3" {
		t.Errorf("Subset ignored index order, got tenure %q", v)
	}
}
