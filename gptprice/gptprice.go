// Package gptprice estimates OpenAI API costs from token counts.
package gptprice

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
)

// ErrUnknownModel indicates a model missing from the price table.
var ErrUnknownModel = errors.New("gptprice: unrecognized model name")

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// Prices is the standard (non-batch) price table.
var Prices = map[string]Price{
	"gpt-5":        {Input: 1.25, Output: 10},
	"gpt-5-mini":   {Input: 0.25, Output: 2},
	"gpt-5-nano":   {Input: 0.05, Output: 0.4},
	"gpt-4.1":      {Input: 2, Output: 8},
	"gpt-4.1-mini": {Input: 0.4, Output: 1.6},
	"gpt-4.1-nano": {Input: 0.1, Output: 0.4},
	"gpt-4o":       {Input: 2.5, Output: 10},
	"gpt-4o-mini":  {Input: 0.15, Output: 0.6},
}

// Estimate is the cost breakdown for one request volume.
type Estimate struct {
	Model        string  `json:"model_name"`
	InputTokens  int     `json:"input_token"`
	OutputTokens *int    `json:"output_token"`
	InputCost    float64 `json:"input_cost"`
	OutputCost   float64 `json:"output_cost"`
	TotalCost    float64 `json:"total_cost"`
}

// Models lists the priced model names in sorted order.
func Models() []string {
	names := lo.Keys(Prices)
	slices.Sort(names)
	return names
}

// Compute prices a request volume. When outputTokens is nil the output is
// assumed to be as long as the input. Batch requests cost half.
func Compute(logger *slog.Logger, model string, batch bool, inputTokens int, outputTokens *int) (Estimate, error) {
	if logger == nil {
		logger = slog.Default()
	}

	estOutput := inputTokens
	if outputTokens == nil {
		logger.Info("no output token count given; assuming output as long as input", "tokens", inputTokens)
	} else {
		estOutput = *outputTokens
	}

	price, ok := Prices[model]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	if batch {
		logger.Info("using batch API price", "model", model)
		price.Input /= 2
		price.Output /= 2
	}

	inputCost := float64(inputTokens) / 1e6 * price.Input
	outputCost := float64(estOutput) / 1e6 * price.Output
	return Estimate{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    inputCost + outputCost,
	}, nil
}

// FromUsage prices the token usage reported by a chat completion response.
func FromUsage(logger *slog.Logger, model string, batch bool, usage openai.Usage) (Estimate, error) {
	out := usage.CompletionTokens
	return Compute(logger, model, batch, usage.PromptTokens, &out)
}
