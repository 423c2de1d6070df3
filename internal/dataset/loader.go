package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Load reads a delimited file with a header row into a Table. The
// identifier column named by the schema is dropped, and every row
// containing a missing value in any schema column is removed.
func Load(path string, schema Schema) (*Table, error) {
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

	// Every schema column must be present, including the identifier we
	// are about to drop.
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

	var rows [][]string
	for _, rec := range records {
		row := make([]string, 0, len(schema.Fields)+1)
		complete := true
		for _, fld := range schema.Fields {
			v := strings.TrimSpace(rec[pos[fld.Name]])
			if IsMissing(v) {
				complete = false
			}
			row = append(row, v)
		}
		target := strings.TrimSpace(rec[pos[schema.Target]])
		if IsMissing(target) {
			complete = false
		}
		row = append(row, target)
		if complete {
			rows = append(rows, row)
		}
	}

	return NewTable(schema.Fields, schema.Target, rows)
}
