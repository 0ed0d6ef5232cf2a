// Package sweep finds the decision threshold that best separates a score
// column into binary predictions.
package sweep

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"

	rabbits "github.com/jamesainslie/go-rabbits"
)

// ScoreDataset is a table with a label column and a continuous score column.
type ScoreDataset interface {
	rabbits.Dataset
	FloatColumn(name string) ([]float64, error)
}

// Config holds sweep parameters.
type Config struct {
	Betas     []float64
	Objective string // metric key to maximise
	Logger    *slog.Logger
}

// DefaultConfig returns default sweep configuration.
func DefaultConfig() Config {
	return Config{
		Betas:     slices.Clone(rabbits.DefaultBetas),
		Objective: "f1",
	}
}

// Result holds metrics for one threshold value.
type Result struct {
	Threshold float64
	Metrics   rabbits.Metrics
}

// Score returns the objective value of a result, NaN when undefined.
func (r Result) Score(objective string) float64 {
	v, ok := r.Metrics.Value(objective)
	if !ok {
		return math.NaN()
	}
	return v
}

// Thresholds generates threshold values from min (inclusive) to max
// (exclusive) with the given step.
func Thresholds(min, max, step float64) []float64 {
	if step <= 0 {
		return nil
	}
	var thresholds []float64
	for i := 0; ; i++ {
		t := min + float64(i)*step
		if t >= max-step*1e-9 {
			break
		}
		thresholds = append(thresholds, t)
	}
	return thresholds
}

// Run predicts positive where score >= threshold for every threshold and
// returns the results sorted by the objective, best first. Undefined
// objectives sort last; ties keep the lower threshold first.
func Run(ds ScoreDataset, truthCol, scoreCol string, thresholds []float64, cfg Config) ([]Result, error) {
	if cfg.Objective == "" {
		cfg.Objective = "f1"
	}

	calc, err := rabbits.New(rabbits.WithBetas(cfg.Betas...), rabbits.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	if _, ok := calc.Metrics(rabbits.Counts{}).Value(cfg.Objective); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjective, cfg.Objective)
	}

	truth, err := ds.IntColumn(truthCol)
	if err != nil {
		return nil, fmt.Errorf("reading column %q: %w", truthCol, err)
	}
	if err := rabbits.ValidateLabels(truthCol, truth); err != nil {
		return nil, err
	}
	scores, err := ds.FloatColumn(scoreCol)
	if err != nil {
		return nil, fmt.Errorf("reading column %q: %w", scoreCol, err)
	}
	if len(scores) != len(truth) {
		return nil, fmt.Errorf("%w: %q has %d values, %q has %d",
			rabbits.ErrLengthMismatch, scoreCol, len(scores), truthCol, len(truth))
	}

	type entry struct {
		Result
		score float64
	}
	ranked := make([]entry, 0, len(thresholds))
	pred := make([]int, len(scores))
	for _, threshold := range thresholds {
		Predict(scores, threshold, pred)
		r := Result{
			Threshold: threshold,
			Metrics:   calc.Metrics(rabbits.Tally(truth, pred)),
		}
		ranked = append(ranked, entry{Result: r, score: r.Score(cfg.Objective)})
	}

	slices.SortStableFunc(ranked, func(a, b entry) int {
		switch {
		case math.IsNaN(a.score) && math.IsNaN(b.score):
			return cmp.Compare(a.Threshold, b.Threshold)
		case math.IsNaN(a.score):
			return 1
		case math.IsNaN(b.score):
			return -1
		case a.score != b.score:
			return cmp.Compare(b.score, a.score)
		}
		return cmp.Compare(a.Threshold, b.Threshold)
	})

	results := make([]Result, len(ranked))
	for i, r := range ranked {
		results[i] = r.Result
	}
	return results, nil
}

// Predict writes 1 into dst where score >= threshold and 0 elsewhere,
// including NaN scores. dst must be as long as scores.
func Predict(scores []float64, threshold float64, dst []int) {
	for i, s := range scores {
		if s >= threshold {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
}
