package rabbits

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/samber/lo"
)

// Dataset is a read-only table whose label columns can be read as integers.
// Any tabular type can satisfy it; see the loader package for a file-backed one.
type Dataset interface {
	// IntColumn returns the named column as integers, one per row.
	IntColumn(name string) ([]int, error)
	// Len returns the number of rows.
	Len() int
}

// Calculator computes binary classification metrics.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	betas  []float64
	logger *slog.Logger
}

// New creates a Calculator. It fails if any configured beta is not positive.
func New(opts ...Option) (*Calculator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	betas, err := normalizeBetas(cfg.betas)
	if err != nil {
		return nil, err
	}

	return &Calculator{
		betas:  betas,
		logger: cfg.logger,
	}, nil
}

// Evaluate computes metrics with a one-off Calculator.
func Evaluate(ds Dataset, truthCol, predCol string, opts ...Option) (Metrics, error) {
	c, err := New(opts...)
	if err != nil {
		return Metrics{}, err
	}
	return c.Evaluate(ds, truthCol, predCol)
}

// FromCounts derives metrics from an already aggregated confusion matrix,
// logging through slog.Default like a Calculator built with no logger.
func FromCounts(counts Counts, betas ...float64) (Metrics, error) {
	c, err := New(WithBetas(betas...))
	if err != nil {
		return Metrics{}, err
	}
	return c.Metrics(counts), nil
}

// Betas returns the extra F-beta weights reported besides F1.
func (c *Calculator) Betas() []float64 {
	return slices.Clone(c.betas)
}

// Evaluate validates both label columns and computes the metric set.
// A value outside {0,1} in either column yields an *InvalidInputError and
// no metrics.
func (c *Calculator) Evaluate(ds Dataset, truthCol, predCol string) (Metrics, error) {
	truth, err := labelColumn(ds, truthCol)
	if err != nil {
		return Metrics{}, err
	}
	pred, err := labelColumn(ds, predCol)
	if err != nil {
		return Metrics{}, err
	}

	counts := Tally(truth, pred)
	c.logger.Debug("confusion matrix",
		"truth", truthCol,
		"pred", predCol,
		"tp", counts.TP,
		"fp", counts.FP,
		"tn", counts.TN,
		"fn", counts.FN,
	)

	return c.Metrics(counts), nil
}

// Metrics derives the metric set from counts using the calculator's betas.
func (c *Calculator) Metrics(counts Counts) Metrics {
	m := derive(counts, c.betas)
	if m.Precision+m.Recall == 0 {
		c.logger.Warn("precision and recall sum to zero; F-scores reported as 0",
			"tp", counts.TP, "n", counts.N())
	}
	return m
}

// Tally counts the (truth, pred) pairs. Both slices must hold only 0 and 1
// and have equal length.
func Tally(truth, pred []int) Counts {
	var c Counts
	for i := range truth {
		switch {
		case truth[i] == 1 && pred[i] == 1:
			c.TP++
		case truth[i] == 0 && pred[i] == 1:
			c.FP++
		case truth[i] == 0 && pred[i] == 0:
			c.TN++
		case truth[i] == 1 && pred[i] == 0:
			c.FN++
		}
	}
	return c
}

// ValidateLabels checks that every value is 0 or 1.
func ValidateLabels(column string, values []int) error {
	for i, v := range values {
		if v != 0 && v != 1 {
			return &InvalidInputError{Column: column, Row: i, Value: strconv.Itoa(v)}
		}
	}
	return nil
}

func labelColumn(ds Dataset, name string) ([]int, error) {
	values, err := ds.IntColumn(name)
	if err != nil {
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, fmt.Errorf("reading column %q: %w", name, err)
	}
	if len(values) != ds.Len() {
		return nil, fmt.Errorf("%w: column %q has %d values, dataset has %d rows",
			ErrLengthMismatch, name, len(values), ds.Len())
	}
	if err := ValidateLabels(name, values); err != nil {
		return nil, err
	}
	return values, nil
}

// normalizeBetas validates, de-duplicates and sorts betas, dropping 1
// since F1 is always reported under its own key.
func normalizeBetas(betas []float64) ([]float64, error) {
	for _, b := range betas {
		if b <= 0 || math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBeta, b)
		}
	}
	out := lo.Filter(lo.Uniq(betas), func(b float64, _ int) bool {
		return b != 1
	})
	slices.Sort(out)
	return out, nil
}
