package sweep

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	rabbits "github.com/jamesainslie/go-rabbits"
	"github.com/jamesainslie/go-rabbits/loader"
)

func TestThresholds(t *testing.T) {
	thresholds := Thresholds(0.01, 0.1, 0.02)

	want := []float64{0.01, 0.03, 0.05, 0.07, 0.09}
	if len(thresholds) != len(want) {
		t.Errorf("got %d thresholds, want %d", len(thresholds), len(want))
		t.Logf("got: %v", thresholds)
		return
	}

	for i := range want {
		diff := thresholds[i] - want[i]
		if diff < -0.001 || diff > 0.001 {
			t.Errorf("threshold[%d] = %v, want %v", i, thresholds[i], want[i])
		}
	}

	if got := Thresholds(0, 1, 0); got != nil {
		t.Errorf("zero step returned %v, want nil", got)
	}
	if got := Thresholds(0, 1, 0.1); len(got) != 10 {
		t.Errorf("got %d thresholds over [0,1) step 0.1, want 10", len(got))
	}
}

func scored(t *testing.T) *loader.Frame {
	t.Helper()
	f, err := loader.NewFrame([]string{"truth", "score"}, [][]string{
		{"1", "0.9"},
		{"1", "0.8"},
		{"0", "0.7"},
		{"1", "0.4"},
		{"0", "0.3"},
		{"0", "0.1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func TestRun(t *testing.T) {
	results, err := Run(scored(t), "truth", "score", []float64{0.05, 0.35, 0.5, 0.75, 0.95}, quietConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}

	// At 0.35: TP=3 FP=1 FN=0, F1 = 6/7, the best.
	best := results[0]
	if best.Threshold != 0.35 {
		t.Errorf("best threshold = %v, want 0.35", best.Threshold)
	}
	want := rabbits.Counts{TP: 3, FP: 1, TN: 2, FN: 0}
	if best.Metrics.Counts != want {
		t.Errorf("best counts = %+v, want %+v", best.Metrics.Counts, want)
	}

	// Nothing scores >= 0.95: precision undefined, F1 NaN, sorted last.
	last := results[len(results)-1]
	if last.Threshold != 0.95 || !math.IsNaN(last.Metrics.F1) {
		t.Errorf("last = %v (f1 %v), want 0.95 with NaN f1", last.Threshold, last.Metrics.F1)
	}

	for i := 1; i < len(results)-1; i++ {
		if results[i-1].Metrics.F1 < results[i].Metrics.F1 {
			t.Errorf("results not sorted by f1 at %d", i)
		}
	}
}

func TestRun_Objective(t *testing.T) {
	cfg := quietConfig()
	cfg.Objective = "recall"

	results, err := Run(scored(t), "truth", "score", []float64{0.05, 0.5}, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[0].Threshold != 0.05 {
		t.Errorf("best recall threshold = %v, want 0.05", results[0].Threshold)
	}

	cfg.Objective = "nope"
	if _, err := Run(scored(t), "truth", "score", []float64{0.5}, cfg); !errors.Is(err, ErrUnknownObjective) {
		t.Errorf("expected ErrUnknownObjective, got: %v", err)
	}
}

func TestRun_InvalidTruth(t *testing.T) {
	f, err := loader.NewFrame([]string{"truth", "score"}, [][]string{{"3", "0.5"}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Run(f, "truth", "score", []float64{0.5}, quietConfig())
	if !errors.Is(err, rabbits.ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel, got: %v", err)
	}
}

func TestPredict(t *testing.T) {
	dst := make([]int, 4)
	Predict([]float64{0.2, 0.5, math.NaN(), 0.9}, 0.5, dst)
	if diff := cmp.Diff([]int{0, 1, 0, 1}, dst); diff != "" {
		t.Errorf("Predict() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultConfig_BetasUnshared(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Betas[0] = 9
	if rabbits.DefaultBetas[0] != 0.5 {
		t.Errorf("DefaultBetas[0] = %v after mutating a config copy", rabbits.DefaultBetas[0])
	}
}

func TestRun_RanksEveryThreshold(t *testing.T) {
	thresholds := Thresholds(0, 1, 0.05)
	results, err := Run(scored(t), "truth", "score", thresholds, quietConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != len(thresholds) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(thresholds))
	}
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		ps, cs := prev.Score("f1"), cur.Score("f1")
		if ps < cs || (ps == cs && prev.Threshold > cur.Threshold) {
			t.Errorf("results[%d] (t=%v f1=%v) ranked before results[%d] (t=%v f1=%v)",
				i-1, prev.Threshold, ps, i, cur.Threshold, cs)
		}
	}
}
