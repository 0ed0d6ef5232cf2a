package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	rabbits "github.com/jamesainslie/go-rabbits"
	"github.com/jamesainslie/go-rabbits/inference"
)

var errConfigNotFound = errors.New("config file not found")

// Config holds defaults shared by the subcommands.
type Config struct {
	Truth string    `yaml:"truth" validate:"required"`
	Pred  string    `yaml:"pred" validate:"required"`
	Score string    `yaml:"score" validate:"required"`
	Betas []float64 `yaml:"betas" validate:"dive,gt=0"`

	Sweep SweepConfig `yaml:"sweep"`
	Model ModelConfig `yaml:"model"`
	Dates DatesConfig `yaml:"dates"`
}

// SweepConfig is the default threshold grid and objective.
type SweepConfig struct {
	Min       float64 `yaml:"min" validate:"gte=0"`
	Max       float64 `yaml:"max" validate:"gtfield=Min"`
	Step      float64 `yaml:"step" validate:"gt=0"`
	Objective string  `yaml:"objective" validate:"required"`
}

// ModelConfig locates an ONNX classifier and its feature columns.
type ModelConfig struct {
	Path      string   `yaml:"path"`
	Library   string   `yaml:"library"`
	Features  []string `yaml:"features" validate:"dive,required"`
	Sessions  int      `yaml:"sessions" validate:"gte=0"`
	BatchSize int      `yaml:"batch_size" validate:"gte=0"`
	Threshold float64  `yaml:"threshold" validate:"gte=0,lte=1"`
}

// DatesConfig controls which path element carries a file's date.
type DatesConfig struct {
	Position int `yaml:"position" validate:"gte=0"`
}

func defaultConfig() Config {
	return Config{
		Truth: "truth",
		Pred:  "pred",
		Score: "score",
		Betas: slices.Clone(rabbits.DefaultBetas),
		Sweep: SweepConfig{Min: 0.05, Max: 1, Step: 0.05, Objective: "f1"},
		Model: ModelConfig{
			Sessions:  1,
			BatchSize: inference.DefaultBatchSize,
			Threshold: 0.5,
		},
	}
}

var validate = validator.New()

// loadConfig reads a YAML file over the defaults and validates the result.
func loadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", errConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// override replaces *dst with v when the named flag was set on the command
// line, so config file values only apply to flags left at their defaults.
func override[T any](cmd *cobra.Command, name string, v T, dst *T) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}
