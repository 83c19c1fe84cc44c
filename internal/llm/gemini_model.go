package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/Conceptual-Machines/merlai/internal/observability"
	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	mimeTypeJSON       = "application/json"
	geminiUserRole     = "user"
)

// GeminiModel generates parts through Gemini's GenerateContent API with a response schema.
type GeminiModel struct {
	hostedModel
	client *genai.Client
}

// NewGeminiModel builds the variant. cfg.APIKey takes precedence over apiKey.
// Client construction failures leave the model registered but unavailable.
func NewGeminiModel(ctx context.Context, cfg ModelConfig, apiKey string) *GeminiModel {
	m := &GeminiModel{hostedModel: newHostedModel(cfg, ModelTypeGemini, defaultGeminiModel)}

	if cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		logger.Warn("Gemini model has no API key", logger.Fields{"model": cfg.Name})
		return m
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Warn("Failed to create Gemini client", logger.Fields{"model": cfg.Name, "error": err.Error()})
		return m
	}

	m.client = client
	m.complete = m.completeContent
	return m
}

func (m *GeminiModel) completeContent(ctx context.Context, call hostedCall) (*completion, error) {
	result, err := m.client.Models.GenerateContent(ctx, m.providerModel, buildGeminiContents(call), m.buildConfig(call))
	if err != nil {
		return nil, err
	}

	text, err := geminiText(result)
	if err != nil {
		return nil, err
	}
	return &completion{Text: cleanJSONOutput(text), Usage: observability.GeminiUsage(result.UsageMetadata)}, nil
}

func buildGeminiContents(call hostedCall) []*genai.Content {
	return []*genai.Content{{
		Role:  geminiUserRole,
		Parts: []*genai.Part{{Text: call.User}},
	}}
}

func (m *GeminiModel) buildConfig(call hostedCall) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: call.System}},
		},
		ResponseMIMEType: mimeTypeJSON,
		ResponseSchema:   geminiSchemaFor(call.Kind),
	}

	cfg := m.config.WithParameters(call.Parameters)
	if t := cfg.FloatParam("temperature", -1); t >= 0 {
		config.Temperature = genai.Ptr(float32(t))
	}
	if p := cfg.FloatParam("top_p", -1); p >= 0 {
		config.TopP = genai.Ptr(float32(p))
	}
	if k := cfg.FloatParam("top_k", 0); k > 0 {
		config.TopK = genai.Ptr(float32(k))
	}
	if n := cfg.FloatParam("max_length", 0); n > 0 {
		config.MaxOutputTokens = int32(n)
	}
	return config
}

func geminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", errors.New("no candidates in Gemini response")
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no parts in Gemini response")
	}
	text := candidate.Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("gemini response did not include any output text")
	}
	return text, nil
}
