// Package plotter draws bar charts of group means with confidence intervals.
package plotter

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Summary is a precomputed mean, sample standard deviation and size.
type Summary struct {
	Mean float64
	SD   float64
	N    int
}

// Group is one bar. Set either Samples or Summary; Summary wins when both are set.
type Group struct {
	Label   string
	Samples []float64
	Summary *Summary
}

// Stat is the reduced form of a Group.
type Stat struct {
	Label string
	Mean  float64
	SD    float64
	N     int
}

// PrepareStats reduces each group to mean, sample SD (ddof=1) and count.
// NaN samples are ignored; the mean is NaN for no samples and the SD is
// NaN for fewer than two.
func PrepareStats(groups []Group) []Stat {
	return lo.Map(groups, func(g Group, _ int) Stat {
		if g.Summary != nil {
			return Stat{Label: g.Label, Mean: g.Summary.Mean, SD: g.Summary.SD, N: g.Summary.N}
		}

		xs := lo.Filter(g.Samples, func(v float64, _ int) bool {
			return !math.IsNaN(v)
		})
		s := Stat{Label: g.Label, Mean: math.NaN(), SD: math.NaN(), N: len(xs)}
		switch {
		case s.N > 1:
			s.Mean, s.SD = stat.MeanStdDev(xs, nil)
		case s.N == 1:
			s.Mean = xs[0]
		}
		return s
	})
}

// Order returns the stats in the given label order. Labels not present are
// skipped and stats not named are dropped. A nil order keeps stats as is.
func Order(stats []Stat, order []string) []Stat {
	if order == nil {
		return stats
	}
	byLabel := lo.KeyBy(stats, func(s Stat) string { return s.Label })
	return lo.FilterMap(order, func(label string, _ int) (Stat, bool) {
		s, ok := byLabel[label]
		return s, ok
	})
}

// CIHalfWidth is multiplier*SD/sqrt(N), or 0 when the interval is undefined.
func CIHalfWidth(s Stat, multiplier float64) float64 {
	if s.N <= 1 || math.IsNaN(s.SD) || math.IsNaN(s.Mean) {
		return 0
	}
	return multiplier * s.SD / math.Sqrt(float64(s.N))
}
