package observability

import (
	"context"
	"testing"

	"github.com/Conceptual-Machines/merlai/internal/config"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name  string
		model string
		usage TokenUsage
		want  float64
	}{
		{name: "gpt-4.1", model: "gpt-4.1", usage: TokenUsage{Input: 1000, Output: 1000}, want: 0.010},
		{name: "gemini flash", model: "gemini-2.5-flash", usage: TokenUsage{Input: 2000, Output: 1000}, want: 0.0031},
		{name: "reasoning billed at input rate", model: "gpt-4.1-mini", usage: TokenUsage{Input: 1000, Output: 0, Reasoning: 1000}, want: 0.0008},
		{name: "unknown model uses default pricing", model: "mystery", usage: TokenUsage{Input: 1000, Output: 1000}, want: 0.002},
		{name: "no usage", model: "gpt-4.1", usage: TokenUsage{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateCost(tt.model, tt.usage), 1e-9)
		})
	}
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.001250", FormatCost(0.00125))
	assert.Equal(t, "$0.000000", FormatCost(0))
}

func TestGeminiUsage(t *testing.T) {
	assert.Equal(t, TokenUsage{}, GeminiUsage(nil))

	got := GeminiUsage(&genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     10,
		CandidatesTokenCount: 20,
		ThoughtsTokenCount:   5,
		TotalTokenCount:      35,
	})
	assert.Equal(t, TokenUsage{Input: 10, Output: 20, Reasoning: 5, Total: 35}, got)
}

func TestLangfuseDisabled(t *testing.T) {
	client := InitializeLangfuse(context.Background(), &config.Config{LangfuseEnabled: false})
	assert.False(t, client.IsEnabled())
	assert.Same(t, client, GetClient())

	// every call on a disabled client is a no-op
	trace := client.StartTrace(context.Background(), "compose", map[string]any{"style": "pop"})
	gen := trace.Generation("harmony", nil)
	gen.Metadata(map[string]any{"k": "v"})
	gen.LogCompletion("gpt-4.1", "prompt", "output", TokenUsage{Input: 1})
	gen.Finish()
	trace.Finish()
	client.Flush()
}
