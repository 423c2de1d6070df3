// Package report renders metrics tables for the console. It consumes
// structured values only; pipeline code never prints.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/churnlab/internal/eval"
)

// Render writes the comparison table in the given format: "table"
// (default), "markdown"/"md", "csv", or "json".
func Render(w io.Writer, t eval.MetricsTable, format string) error {
	switch format {
	case "json":
		return renderJSON(w, t)
	case "csv":
		return renderCSV(w, t)
	case "md", "markdown":
		return renderMarkdown(w, t)
	case "", "table":
		return renderTable(w, t)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, rows eval.MetricsTable) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Metric", "Estimate"})

	prev := rows[0].Variant
	for _, r := range rows {
		if r.Variant != prev {
			t.AppendSeparator()
			prev = r.Variant
		}
		t.AppendRow(table.Row{r.Variant, r.Metric, formatEstimate(r.Estimate)})
	}

	t.Render()
	return nil
}

func renderMarkdown(w io.Writer, rows eval.MetricsTable) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintln(w, "| Model | Metric | Estimate |")
	_, _ = fmt.Fprintln(w, "| --- | --- | --- |")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "| %s | %s | %s |\n", r.Variant, r.Metric, formatEstimate(r.Estimate))
	}
	return nil
}

func renderCSV(w io.Writer, rows eval.MetricsTable) error {
	_, _ = fmt.Fprintln(w, "model,metric,estimate")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s,%s,%s\n", escapeCSV(r.Variant), escapeCSV(r.Metric), formatEstimate(r.Estimate))
	}
	return nil
}

func renderJSON(w io.Writer, rows eval.MetricsTable) error {
	type jsonRow struct {
		Model    string   `json:"model"`
		Metric   string   `json:"metric"`
		Estimate *float64 `json:"estimate"`
	}

	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		out[i] = jsonRow{Model: r.Variant, Metric: r.Metric}
		if !math.IsNaN(r.Estimate) {
			est := r.Estimate
			out[i].Estimate = &est
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatEstimate(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
