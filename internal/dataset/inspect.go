package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Report summarizes a raw dataset file against a schema before any
// cleaning happens.
type Report struct {
	TotalRows    int
	CompleteRows int
	// MissingByColumn counts missing markers per schema column,
	// including the target.
	MissingByColumn map[string]int
	// UnparsableByColumn counts non-missing values in numeric columns
	// that do not parse as floats.
	UnparsableByColumn map[string]int
}

// Inspect scans a delimited file and reports per-column data quality
// against the schema. Unlike Load it keeps incomplete rows, so the
// report shows what Load would silently drop.
func Inspect(path string, schema Schema) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	required := []string{schema.ID, schema.Target}
	for _, fld := range schema.Fields {
		required = append(required, fld.Name)
	}
	for _, name := range required {
		if _, ok := pos[name]; !ok {
			return nil, &SchemaError{Column: name}
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	rep := &Report{
		TotalRows:          len(records),
		MissingByColumn:    make(map[string]int),
		UnparsableByColumn: make(map[string]int),
	}

	for _, rec := range records {
		complete := true
		for _, fld := range schema.Fields {
			v := strings.TrimSpace(rec[pos[fld.Name]])
			if IsMissing(v) {
				rep.MissingByColumn[fld.Name]++
				complete = false
				continue
			}
			if fld.Kind.Numeric() {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					rep.UnparsableByColumn[fld.Name]++
				}
			}
		}
		if IsMissing(strings.TrimSpace(rec[pos[schema.Target]])) {
			rep.MissingByColumn[schema.Target]++
			complete = false
		}
		if complete {
			rep.CompleteRows++
		}
	}

	return rep, nil
}
