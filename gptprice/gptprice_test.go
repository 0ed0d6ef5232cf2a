package gptprice

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestCompute(t *testing.T) {
	out := 500_000

	tests := []struct {
		name      string
		model     string
		batch     bool
		input     int
		output    *int
		wantIn    float64
		wantOut   float64
		wantTotal float64
	}{
		{
			name:      "explicit output",
			model:     "gpt-4o",
			input:     1_000_000,
			output:    &out,
			wantIn:    2.5,
			wantOut:   5,
			wantTotal: 7.5,
		},
		{
			name:      "output defaults to input",
			model:     "gpt-4.1-mini",
			input:     2_000_000,
			wantIn:    0.8,
			wantOut:   3.2,
			wantTotal: 4.0,
		},
		{
			name:      "batch halves prices",
			model:     "gpt-5",
			batch:     true,
			input:     1_000_000,
			output:    &out,
			wantIn:    0.625,
			wantOut:   2.5,
			wantTotal: 3.125,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(quiet, tt.model, tt.batch, tt.input, tt.output)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if !near(got.InputCost, tt.wantIn) {
				t.Errorf("InputCost = %v, want %v", got.InputCost, tt.wantIn)
			}
			if !near(got.OutputCost, tt.wantOut) {
				t.Errorf("OutputCost = %v, want %v", got.OutputCost, tt.wantOut)
			}
			if !near(got.TotalCost, tt.wantTotal) {
				t.Errorf("TotalCost = %v, want %v", got.TotalCost, tt.wantTotal)
			}
			if got.OutputTokens != tt.output {
				t.Errorf("OutputTokens = %v, want the caller's value", got.OutputTokens)
			}
		})
	}
}

func TestCompute_UnknownModel(t *testing.T) {
	_, err := Compute(quiet, "gpt-3", false, 10, nil)
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got: %v", err)
	}
}

func TestFromUsage(t *testing.T) {
	usage := openai.Usage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000, TotalTokens: 2_000_000}
	got, err := FromUsage(quiet, "gpt-4o-mini", false, usage)
	if err != nil {
		t.Fatalf("FromUsage() error = %v", err)
	}
	if !near(got.TotalCost, 0.75) {
		t.Errorf("TotalCost = %v, want 0.75", got.TotalCost)
	}
}

func TestModels(t *testing.T) {
	models := Models()
	if len(models) != len(Prices) {
		t.Fatalf("got %d models, want %d", len(models), len(Prices))
	}
	for i := 1; i < len(models); i++ {
		if models[i-1] > models[i] {
			t.Errorf("models not sorted: %v", models)
		}
	}
}
