// Package dataset provides the in-memory record table along with CSV
// loading, deterministic train/test splitting, and missing-data
// simulation and repair.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind describes how a column's values are interpreted.
type Kind int

const (
	// Categorical columns hold unordered string levels.
	Categorical Kind = iota
	// Continuous columns hold real-valued measurements.
	Continuous
	// Count columns hold non-negative integer counts.
	Count
)

// Numeric reports whether the kind carries numeric values.
func (k Kind) Numeric() bool {
	return k == Continuous || k == Count
}

// Field is a named, typed predictor column.
type Field struct {
	Name string
	Kind Kind
}

// Schema describes the expected layout of a raw dataset file: an
// identifier column (dropped on load), a binary target column, and the
// predictor fields.
type Schema struct {
	ID     string
	Target string
	Fields []Field
}

// Field returns the predictor field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Missing is the marker written into cells by the missingness simulator.
const Missing = "NA"

// IsMissing reports whether a cell value represents a missing value.
// Empty and whitespace-only cells count as missing, matching the blank
// TotalCharges cells found in raw telco exports.
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "NA" || v == "NaN"
}

// Table is an ordered sequence of rows over a fixed set of predictor
// fields plus a target column. Cells are stored as raw strings; numeric
// access parses on demand. Tables are treated as immutable by the
// pipeline: every transformation returns a new table.
type Table struct {
	fields []Field
	target string
	index  map[string]int
	rows   [][]string
}

// NewTable builds a table over the given predictor fields and target
// column name. Each row must have len(fields)+1 cells, target last.
func NewTable(fields []Field, target string, rows [][]string) (*Table, error) {
	t := &Table{
		fields: append([]Field(nil), fields...),
		target: target,
		index:  make(map[string]int, len(fields)+1),
		rows:   rows,
	}
	for i, f := range t.fields {
		t.index[f.Name] = i
	}
	t.index[target] = len(t.fields)
	for i, row := range rows {
		if len(row) != len(fields)+1 {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(fields)+1)
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Fields returns the predictor fields in column order.
func (t *Table) Fields() []Field { return t.fields }

// Target returns the target column name.
func (t *Table) Target() string { return t.target }

// Value returns the cell at the given row for the named column.
func (t *Table) Value(row int, name string) (string, error) {
	col, ok := t.index[name]
	if !ok {
		return "", &SchemaError{Column: name}
	}
	return t.rows[row][col], nil
}

// Col returns a copy of the named column.
func (t *Table) Col(name string) ([]string, error) {
	col, ok := t.index[name]
	if !ok {
		return nil, &SchemaError{Column: name}
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[col]
	}
	return out, nil
}

// Floats parses the named column as float64 values. Missing cells are
// not allowed; callers repair or drop them first.
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.index[name]
	if !ok {
		return nil, &SchemaError{Column: name}
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		v := strings.TrimSpace(row[col])
		if IsMissing(v) {
			return nil, fmt.Errorf("column %q: missing value at row %d", name, i)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: row %d: %w", name, i, err)
		}
		out[i] = f
	}
	return out, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rows[i] = append([]string(nil), row...)
	}
	clone, _ := NewTable(t.fields, t.target, rows)
	return clone
}

// Subset returns a new table containing copies of the rows at the given
// indices, in the given order.
func (t *Table) Subset(indices []int) *Table {
	rows := make([][]string, len(indices))
	for i, idx := range indices {
		rows[i] = append([]string(nil), t.rows[idx]...)
	}
	sub, _ := NewTable(t.fields, t.target, rows)
	return sub
}

// Row returns a copy of the row at the given index.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// set overwrites a cell in place. Only table-producing operations in
// this package call it, always on a fresh Clone.
func (t *Table) set(row int, name, v string) {
	t.rows[row][t.index[name]] = v
}

// HasMissing reports whether any cell in the row is missing.
func (t *Table) HasMissing(row int) bool {
	for _, v := range t.rows[row] {
		if IsMissing(v) {
			return true
		}
	}
	return false
}

// DropIncomplete returns a new table without any row that contains a
// missing value.
func (t *Table) DropIncomplete() *Table {
	var keep []int
	for i := range t.rows {
		if !t.HasMissing(i) {
			keep = append(keep, i)
		}
	}
	return t.Subset(keep)
}

// SchemaError reports a column required by the schema that is absent
// from the data.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q not found", e.Column)
}
