// Package main provides the rabbit CLI for evaluating binary classifiers.
//
// # Basic Usage
//
// Metrics for a prediction file:
//
//	rabbit classify --truth y --pred yhat results.csv
//
// Aggregate every dated run after a cutoff and log the result:
//
//	rabbit classify --after 2025-06-01 --append runs.json out/*/preds_*.parquet
//
// Find the best threshold for a score column:
//
//	rabbit sweep --score p --objective f0.5 scores.csv
//
// Defaults for columns, betas and model settings may be kept in a YAML file
// passed with --config; flags override it.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := buildRootCmd(logger, level).Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg    Config
	logger *slog.Logger
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)
	a := &app{cfg: defaultConfig(), logger: logger}

	rootCmd := &cobra.Command{
		Use:   "rabbit",
		Short: "Binary classification metrics and data helpers",
		Long: `rabbit computes confusion-matrix metrics for 0/1 labelled data and
bundles the small tools used around an evaluation run: threshold sweeps,
ONNX scoring, dated file selection, result logs, plots and API cost estimates.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
			if configPath == "" {
				return nil
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger.Debug("loaded config", "path", configPath)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		buildClassifyCmd(a),
		buildSweepCmd(a),
		buildScoreCmd(a),
		buildDatesCmd(a),
		buildPriceCmd(a),
		buildTimeCmd(a),
		buildPlotCmd(a),
	)
	return rootCmd
}
