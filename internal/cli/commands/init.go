package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/churnlab/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new churnlab project",
		Long: `Write a churnlab.yaml with the default configuration.

The generated file documents every knob: dataset schema, split seed,
recipe settings, missingness window, model hyperparameters, and the
sweep grid. Edit it to match your CSV, then run 'churnlab check' to
validate the data.`,
		Example: `  # Initialize in the current directory
  churnlab init

  # Initialize in a new directory
  churnlab init my-churn-project

  # Overwrite an existing config
  churnlab init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "churnlab.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("churnlab.yaml already exists. Use --force to overwrite")
	}

	data, err := config.DefaultYAML()
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Wrote %s\n", configPath)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  1. Point data_path at your churn CSV")
	fmt.Fprintln(w, "  2. Run 'churnlab check' to validate the data")
	fmt.Fprintln(w, "  3. Run 'churnlab run' to train and compare models")

	return nil
}
