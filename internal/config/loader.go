package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > churnlab.yaml > churnlab.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("churnlab.yaml"); err == nil {
		return "churnlab.yaml"
	}
	if _, err := os.Stat("churnlab.yml"); err == nil {
		return "churnlab.yml"
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// defaultMap flattens Default into the key layout koanf expects.
func defaultMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"data_path":  d.DataPath,
		"state_path": d.StatePath,
		"verbose":    false,
		"output":     d.OutputFormat,
		"workers":    d.Workers,
		"dataset": map[string]interface{}{
			"id_column":      d.Dataset.IDColumn,
			"target_column":  d.Dataset.TargetColumn,
			"positive_label": d.Dataset.PositiveLabel,
			"categorical":    d.Dataset.Categorical,
			"continuous":     d.Dataset.Continuous,
			"counts":         d.Dataset.Counts,
		},
		"split": map[string]interface{}{
			"proportion": d.Split.Proportion,
			"seed":       d.Split.Seed,
		},
		"recipe": map[string]interface{}{
			"discretize_column": d.Recipe.DiscretizeColumn,
			"bins":              d.Recipe.Bins,
			"log_column":        d.Recipe.LogColumn,
		},
		"missing": map[string]interface{}{
			"from":    d.Missing.From,
			"to":      d.Missing.To,
			"columns": d.Missing.Columns,
		},
		"model": map[string]interface{}{
			"threshold":        d.Model.Threshold,
			"hidden":           d.Model.Hidden,
			"dropout":          d.Model.Dropout,
			"epochs":           d.Model.Epochs,
			"batch_size":       d.Model.BatchSize,
			"learning_rate":    d.Model.LearningRate,
			"validation_split": d.Model.ValidationSplit,
			"knn_neighbors":    d.Model.KNNNeighbors,
			"seed":             d.Model.Seed,
		},
		"sweep": map[string]interface{}{
			"hidden":  d.Sweep.Hidden,
			"dropout": d.Sweep.Dropout,
		},
	}
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (CHURNLAB_ prefix)
	// Transform: CHURNLAB_DATA_PATH -> data_path
	if err := k.Load(env.Provider("CHURNLAB_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CHURNLAB_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --data and --state for brevity; the config
			// keys spell out what the paths point at.
			switch key {
			case "data":
				return "data_path", posflag.FlagVal(flags, f)
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// Current returns the currently loaded configuration.
// This is available after LoadConfig is called.
func Current() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
