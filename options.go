package rabbits

import (
	"log/slog"
	"slices"
)

// DefaultBetas are the F-beta weights reported when none are configured.
var DefaultBetas = []float64{0.5, 1.0, 2.0}

// Option configures a Calculator.
type Option func(*config)

type config struct {
	betas  []float64
	logger *slog.Logger
}

func defaultConfig() config {
	return config{
		betas:  slices.Clone(DefaultBetas),
		logger: slog.Default(),
	}
}

// WithBetas sets the F-beta weights (default: 0.5, 1, 2).
// F1 is always reported; passing no betas keeps only F1.
func WithBetas(betas ...float64) Option {
	return func(c *config) {
		c.betas = append([]float64(nil), betas...)
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
