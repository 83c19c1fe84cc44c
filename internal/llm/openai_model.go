package llm

import (
	"context"
	"errors"

	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/Conceptual-Machines/merlai/internal/observability"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const defaultOpenAIModel = "gpt-4.1-mini"

// OpenAIModel generates parts through OpenAI's Responses API with JSON schema output.
type OpenAIModel struct {
	hostedModel
	client *openai.Client
}

// NewOpenAIModel builds the variant. cfg.APIKey takes precedence over apiKey;
// without either the model registers but reports unavailable.
func NewOpenAIModel(cfg ModelConfig, apiKey string) *OpenAIModel {
	m := &OpenAIModel{hostedModel: newHostedModel(cfg, ModelTypeOpenAI, defaultOpenAIModel)}

	if cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		logger.Warn("OpenAI model has no API key", logger.Fields{"model": cfg.Name})
		return m
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	m.client = &client
	m.complete = m.completeResponses
	return m
}

func (m *OpenAIModel) completeResponses(ctx context.Context, call hostedCall) (*completion, error) {
	resp, err := m.client.Responses.New(ctx, m.buildRequestParams(call))
	if err != nil {
		return nil, err
	}

	text := cleanJSONOutput(resp.OutputText())
	if text == "" {
		return nil, errors.New("openai response did not include any output text")
	}

	logger.Debug("OpenAI usage", logger.Fields{
		"model":         m.providerModel,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
		"total_tokens":  resp.Usage.TotalTokens,
	})
	return &completion{Text: text, Usage: observability.OpenAIUsage(resp.Usage)}, nil
}

// buildRequestParams maps a hosted call onto a Responses API request. Sampling
// settings come from the model config, overridden by the call's parameters.
func (m *OpenAIModel) buildRequestParams(call hostedCall) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{
		responses.ResponseInputItemParamOfMessage(call.User, responses.EasyInputMessageRoleUser),
	}

	params := responses.ResponseNewParams{
		Model: m.providerModel,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions: openai.String(call.System),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(call.Schema.Name, call.Schema.Schema),
		},
	}

	cfg := m.config.WithParameters(call.Parameters)
	if t := cfg.FloatParam("temperature", -1); t >= 0 {
		params.Temperature = openai.Float(t)
	}
	if p := cfg.FloatParam("top_p", -1); p >= 0 {
		params.TopP = openai.Float(p)
	}
	if n := cfg.FloatParam("max_length", 0); n > 0 {
		params.MaxOutputTokens = openai.Int(int64(n))
	}
	return params
}
