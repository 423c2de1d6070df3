// Package config provides configuration management for the churnlab CLI.
//
// Configuration is loaded from defaults, an optional churnlab.yaml file,
// CHURNLAB_ environment variables, and CLI flags, in increasing order of
// precedence.
package config

import (
	"fmt"

	"github.com/leapstack-labs/churnlab/internal/dataset"
)

// DatasetConfig describes the CSV layout: which column identifies rows,
// which column is the label, and how each feature column is typed.
type DatasetConfig struct {
	IDColumn      string   `koanf:"id_column"`
	TargetColumn  string   `koanf:"target_column"`
	PositiveLabel string   `koanf:"positive_label"`
	Categorical   []string `koanf:"categorical"`
	Continuous    []string `koanf:"continuous"`
	Counts        []string `koanf:"counts"`
}

// SplitConfig controls the train/test partition.
type SplitConfig struct {
	Proportion float64 `koanf:"proportion"`
	Seed       int64   `koanf:"seed"`
}

// RecipeConfig controls feature preprocessing.
type RecipeConfig struct {
	DiscretizeColumn string `koanf:"discretize_column"`
	Bins             int    `koanf:"bins"`
	LogColumn        string `koanf:"log_column"`
}

// MissingConfig controls the simulated missingness window. From and To
// are row positions, half-open.
type MissingConfig struct {
	From    int      `koanf:"from"`
	To      int      `koanf:"to"`
	Columns []string `koanf:"columns"`
}

// ModelConfig holds model hyperparameters shared by run and sweep.
type ModelConfig struct {
	Threshold       float64   `koanf:"threshold"`
	Hidden          []int     `koanf:"hidden"`
	Dropout         []float64 `koanf:"dropout"`
	Epochs          int       `koanf:"epochs"`
	BatchSize       int       `koanf:"batch_size"`
	LearningRate    float64   `koanf:"learning_rate"`
	ValidationSplit float64   `koanf:"validation_split"`
	KNNNeighbors    int       `koanf:"knn_neighbors"`
	Seed            int64     `koanf:"seed"`
}

// SweepConfig lists the hyperparameter grid axes. The sweep trains one
// trial per (hidden, dropout) pair in the cartesian product.
type SweepConfig struct {
	Hidden  [][]int     `koanf:"hidden"`
	Dropout [][]float64 `koanf:"dropout"`
}

// Config holds all CLI configuration options.
type Config struct {
	DataPath     string        `koanf:"data_path"`
	StatePath    string        `koanf:"state_path"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Workers      int           `koanf:"workers"`
	Dataset      DatasetConfig `koanf:"dataset"`
	Split        SplitConfig   `koanf:"split"`
	Recipe       RecipeConfig  `koanf:"recipe"`
	Missing      MissingConfig `koanf:"missing"`
	Model        ModelConfig   `koanf:"model"`
	Sweep        SweepConfig   `koanf:"sweep"`
}

// Schema builds the dataset schema from the configured column lists.
func (c *Config) Schema() dataset.Schema {
	fields := make([]dataset.Field, 0, len(c.Dataset.Categorical)+len(c.Dataset.Continuous)+len(c.Dataset.Counts))
	for _, name := range c.Dataset.Categorical {
		fields = append(fields, dataset.Field{Name: name, Kind: dataset.Categorical})
	}
	for _, name := range c.Dataset.Continuous {
		fields = append(fields, dataset.Field{Name: name, Kind: dataset.Continuous})
	}
	for _, name := range c.Dataset.Counts {
		fields = append(fields, dataset.Field{Name: name, Kind: dataset.Count})
	}
	return dataset.Schema{
		ID:     c.Dataset.IDColumn,
		Target: c.Dataset.TargetColumn,
		Fields: fields,
	}
}

// Validate checks if the configuration is valid. It does not check that
// the data file exists; commands that read it report that themselves.
func (c *Config) Validate() error {
	if c.Dataset.TargetColumn == "" {
		return fmt.Errorf("dataset.target_column is required")
	}
	if c.Dataset.PositiveLabel == "" {
		return fmt.Errorf("dataset.positive_label is required")
	}
	if len(c.Dataset.Categorical)+len(c.Dataset.Continuous)+len(c.Dataset.Counts) == 0 {
		return fmt.Errorf("at least one feature column is required")
	}
	if c.Split.Proportion <= 0 || c.Split.Proportion >= 1 {
		return fmt.Errorf("split.proportion must be in (0, 1), got %g", c.Split.Proportion)
	}
	if c.Model.Threshold < 0 || c.Model.Threshold > 1 {
		return fmt.Errorf("model.threshold must be in [0, 1], got %g", c.Model.Threshold)
	}
	if c.Missing.From < 0 || c.Missing.To < c.Missing.From {
		return fmt.Errorf("missing row range [%d, %d) is invalid", c.Missing.From, c.Missing.To)
	}
	if c.Recipe.Bins < 2 && c.Recipe.DiscretizeColumn != "" {
		return fmt.Errorf("recipe.bins must be at least 2, got %d", c.Recipe.Bins)
	}
	return nil
}
