package llm

import (
	"context"
	"fmt"
)

// Factory builds the model variant selected by ModelConfig.Type. Provider
// API keys from the environment are used when an entry carries none.
type Factory struct {
	ctx          context.Context
	openaiAPIKey string
	geminiAPIKey string
}

// NewFactory creates a new model factory
func NewFactory(ctx context.Context, openaiAPIKey, geminiAPIKey string) *Factory {
	return &Factory{
		ctx:          ctx,
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
	}
}

// Build returns the backend for cfg
func (f *Factory) Build(cfg ModelConfig) (Model, error) {
	switch cfg.Type {
	case ModelTypeHuggingFace:
		return NewLocalModel(cfg), nil
	case ModelTypeExternalAPI:
		return NewRemoteModel(cfg), nil
	case ModelTypeOpenAI:
		return NewOpenAIModel(cfg, f.openaiAPIKey), nil
	case ModelTypeGemini:
		return NewGeminiModel(f.context(), cfg, f.geminiAPIKey), nil
	case ModelTypeLocal, ModelTypeCustom:
		return nil, fmt.Errorf("unsupported model type: %s", cfg.Type)
	default:
		return nil, fmt.Errorf("unknown model type: %s", cfg.Type)
	}
}

func (f *Factory) context() context.Context {
	if f == nil || f.ctx == nil {
		return context.Background()
	}
	return f.ctx
}
