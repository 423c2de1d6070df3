package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnlab/internal/config"
	"github.com/leapstack-labs/churnlab/internal/report"
	"github.com/leapstack-labs/churnlab/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs and their results",
		Long: `List recent runs from the history database, or show the stored
results of a single run when a run ID is given.`,
		Example: `  # List the last 20 runs
  churnlab history

  # Show the stored metrics or trials of one run
  churnlab history 6b02a27e-9e4a-4a9c-b1f3-6f25ad4a1f05`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			logger := config.GetLogger(cmd.Context())

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd.OutOrStdout(), store, args[0], cfg.OutputFormat)
			}
			return listRuns(cmd.OutOrStdout(), store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func listRuns(w io.Writer, store state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Kind", "Dataset", "Status", "Started", "Duration"})

	for _, r := range runs {
		duration := ""
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{r.ID, r.Kind, r.Dataset, string(r.Status), r.StartedAt.Format(time.RFC3339), duration})
	}

	t.Render()
	return nil
}

func showRun(w io.Writer, store state.Store, id, format string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %s (%s) on %s: %s\n", run.ID, run.Kind, run.Dataset, run.Status)
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}

	switch run.Kind {
	case "sweep":
		trials, err := store.TrialsForRun(id)
		if err != nil {
			return err
		}
		if len(trials) == 0 {
			fmt.Fprintln(w, "No trials recorded")
			return nil
		}
		renderTrials(w, trials)
	default:
		metrics, err := store.MetricsForRun(id)
		if err != nil {
			return err
		}
		if len(metrics) == 0 {
			fmt.Fprintln(w, "No metrics recorded")
			return nil
		}
		return report.Render(w, metrics, format)
	}
	return nil
}
