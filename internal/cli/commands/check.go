package commands

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnlab/internal/dataset"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the dataset against the configured schema",
		Long: `Scan the raw CSV and report data quality per column: missing values
and numeric values that fail to parse. Rows counted as incomplete here
are the rows the pipeline drops during loading.`,
		Example: `  # Check the configured dataset
  churnlab check

  # Check a different file
  churnlab check --data data/churn_2026.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()

			rep, err := dataset.Inspect(cfg.DataPath, cfg.Schema())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Dataset: %s\n", cfg.DataPath)
			fmt.Fprintf(w, "Rows: %d total, %d complete, %d dropped on load\n\n",
				rep.TotalRows, rep.CompleteRows, rep.TotalRows-rep.CompleteRows)

			if len(rep.MissingByColumn) == 0 && len(rep.UnparsableByColumn) == 0 {
				fmt.Fprintln(w, "No data quality issues found")
				return nil
			}

			columns := make(map[string]struct{})
			for name := range rep.MissingByColumn {
				columns[name] = struct{}{}
			}
			for name := range rep.UnparsableByColumn {
				columns[name] = struct{}{}
			}
			names := make([]string, 0, len(columns))
			for name := range columns {
				names = append(names, name)
			}
			sort.Strings(names)

			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Column", "Missing", "Unparsable"})
			for _, name := range names {
				t.AppendRow(table.Row{name, rep.MissingByColumn[name], rep.UnparsableByColumn[name]})
			}
			t.Render()

			return nil
		},
	}
}
