package observability

import (
	"strconv"

	"github.com/openai/openai-go/responses"
	"google.golang.org/genai"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// GPT-4.1 pricing
	gpt41InputPrice  = 0.002
	gpt41OutputPrice = 0.008

	// GPT-4.1-mini pricing
	gpt41MiniInputPrice  = 0.0004
	gpt41MiniOutputPrice = 0.0016

	// GPT-4o-mini pricing
	gpt4oMiniInputPrice  = 0.00015
	gpt4oMiniOutputPrice = 0.0006

	// Gemini 2.5 Flash pricing
	gemini25FlashInputPrice  = 0.0003
	gemini25FlashOutputPrice = 0.0025

	// Gemini 2.5 Pro pricing
	gemini25ProInputPrice  = 0.00125
	gemini25ProOutputPrice = 0.01

	defaultPricedModel = "gpt-4.1-mini"
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for the hosted models merlai can call
var PricingTable = map[string]ModelPricing{
	"gpt-4.1": {
		InputPricePer1K:  gpt41InputPrice,
		OutputPricePer1K: gpt41OutputPrice,
	},
	"gpt-4.1-mini": {
		InputPricePer1K:  gpt41MiniInputPrice,
		OutputPricePer1K: gpt41MiniOutputPrice,
	},
	"gpt-4o-mini": {
		InputPricePer1K:  gpt4oMiniInputPrice,
		OutputPricePer1K: gpt4oMiniOutputPrice,
	},
	"gemini-2.5-flash": {
		InputPricePer1K:  gemini25FlashInputPrice,
		OutputPricePer1K: gemini25FlashOutputPrice,
	},
	"gemini-2.5-pro": {
		InputPricePer1K:  gemini25ProInputPrice,
		OutputPricePer1K: gemini25ProOutputPrice,
	},
}

// TokenUsage is provider-neutral token accounting for one hosted call.
type TokenUsage struct {
	Input     int64
	Output    int64
	Reasoning int64
	Total     int64
}

// OpenAIUsage converts Responses API usage.
func OpenAIUsage(usage responses.ResponseUsage) TokenUsage {
	return TokenUsage{
		Input:     usage.InputTokens,
		Output:    usage.OutputTokens,
		Reasoning: usage.OutputTokensDetails.ReasoningTokens,
		Total:     usage.TotalTokens,
	}
}

// GeminiUsage converts Gemini usage metadata. A nil value is zero usage.
func GeminiUsage(usage *genai.GenerateContentResponseUsageMetadata) TokenUsage {
	if usage == nil {
		return TokenUsage{}
	}
	return TokenUsage{
		Input:     int64(usage.PromptTokenCount),
		Output:    int64(usage.CandidatesTokenCount),
		Reasoning: int64(usage.ThoughtsTokenCount),
		Total:     int64(usage.TotalTokenCount),
	}
}

// CalculateCost calculates the cost in USD for a hosted model call
func CalculateCost(model string, usage TokenUsage) float64 {
	pricing, exists := PricingTable[model]
	if !exists {
		pricing = PricingTable[defaultPricedModel]
	}

	inputCost := (float64(usage.Input) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.Output) / tokensPerKilo) * pricing.OutputPricePer1K

	// Reasoning tokens are billed at the input rate
	reasoningCost := 0.0
	if usage.Reasoning > 0 {
		reasoningCost = (float64(usage.Reasoning) / tokensPerKilo) * pricing.InputPricePer1K
	}

	return inputCost + outputCost + reasoningCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}
