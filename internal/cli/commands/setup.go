// Package commands implements the churnlab subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/leapstack-labs/churnlab/internal/config"
	"github.com/leapstack-labs/churnlab/internal/model"
	"github.com/leapstack-labs/churnlab/internal/pipeline"
	"github.com/leapstack-labs/churnlab/internal/recipe"
	"github.com/leapstack-labs/churnlab/internal/state"
)

// getConfig returns the loaded configuration, falling back to defaults
// when a command runs outside the normal root PersistentPreRunE path.
func getConfig() *config.Config {
	if cfg := config.Current(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// openStore opens the run history database, creating its directory and
// applying migrations as needed.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" && cfg.StatePath != ":memory:" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// runConfigFrom maps configuration to the shared pipeline settings.
func runConfigFrom(cfg *config.Config) pipeline.RunConfig {
	return pipeline.RunConfig{
		SplitProportion: cfg.Split.Proportion,
		Seed:            cfg.Split.Seed,
		Recipe: recipe.Options{
			Discretize: cfg.Recipe.DiscretizeColumn,
			Bins:       cfg.Recipe.Bins,
			Log:        cfg.Recipe.LogColumn,
			Target:     cfg.Dataset.TargetColumn,
			Positive:   cfg.Dataset.PositiveLabel,
		},
		Threshold: cfg.Model.Threshold,
	}
}

// ffConfigFrom maps configuration to feed-forward hyperparameters.
func ffConfigFrom(cfg *config.Config) model.FeedForwardConfig {
	return model.FeedForwardConfig{
		Hidden:       cfg.Model.Hidden,
		Dropout:      cfg.Model.Dropout,
		Epochs:       cfg.Model.Epochs,
		BatchSize:    cfg.Model.BatchSize,
		LearningRate: cfg.Model.LearningRate,
		Seed:         cfg.Model.Seed,
	}
}

// workerCount resolves the configured worker count, defaulting to one
// worker per CPU.
func workerCount(cfg *config.Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return runtime.NumCPU()
}
