package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/merlai/internal/midi"
	"github.com/Conceptual-Machines/merlai/internal/observability"
	"github.com/Conceptual-Machines/merlai/internal/prompt"
	"github.com/getsentry/sentry-go"
	json "github.com/json-iterator/go"
)

// hostedCall is one structured-output request to a hosted LLM.
type hostedCall struct {
	Kind   GenerationKind
	System string
	User   string
	Schema OutputSchema

	// Parameters are per-request sampling settings layered over the model config.
	Parameters map[string]any
}

// completion is the raw text a hosted LLM returned plus its token usage.
type completion struct {
	Text  string
	Usage observability.TokenUsage
}

type completeFunc func(ctx context.Context, call hostedCall) (*completion, error)

// hostedModel holds what the OpenAI and Gemini variants share: prompt
// building, tracing, timeouts and output decoding. Only complete differs.
type hostedModel struct {
	config        ModelConfig
	modelType     ModelType
	providerModel string
	timeout       time.Duration
	prompts       *prompt.Builder
	complete      completeFunc
}

func newHostedModel(cfg ModelConfig, modelType ModelType, providerModel string) hostedModel {
	timeout := defaultGenerationTimeout
	if secs := cfg.FloatParam("timeout", 0); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}
	return hostedModel{
		config:        cfg,
		modelType:     modelType,
		providerModel: cfg.StringParam("model", providerModel),
		timeout:       timeout,
		prompts:       prompt.NewPromptBuilder(),
	}
}

func (h *hostedModel) IsAvailable(_ context.Context) bool {
	return h.complete != nil
}

func (h *hostedModel) Info() ModelInfo {
	return ModelInfo{
		Name:      h.config.Name,
		Type:      h.modelType,
		Available: h.complete != nil,
		Details: map[string]any{
			"provider_model": h.providerModel,
			"timeout":        h.timeout.Seconds(),
		},
	}
}

func (h *hostedModel) GenerateHarmony(ctx context.Context, request *GenerationRequest) *GenerationResponse {
	return h.generate(ctx, KindHarmony, request)
}

func (h *hostedModel) GenerateBass(ctx context.Context, request *GenerationRequest) *GenerationResponse {
	return h.generate(ctx, KindBass, request)
}

func (h *hostedModel) GenerateDrums(ctx context.Context, request *GenerationRequest) *GenerationResponse {
	return h.generate(ctx, KindDrums, request)
}

func (h *hostedModel) AnalyzeMusic(ctx context.Context, midiData []byte) *GenerationResponse {
	return safeCall(h.config.Name, succeed(func(resp *GenerationResponse) error {
		song, err := midi.ParseMIDIFile(midiData)
		if err != nil {
			return err
		}
		user, err := json.Marshal(map[string]any{
			"tempo":          song.Tempo,
			"time_signature": song.TimeSignature,
			"duration":       song.Duration,
			"tracks":         song.Tracks,
		})
		if err != nil {
			return fmt.Errorf("failed to encode song: %w", err)
		}
		return h.run(ctx, KindAnalysis, &GenerationRequest{}, string(user), resp)
	}))
}

func (h *hostedModel) generate(ctx context.Context, kind GenerationKind, request *GenerationRequest) *GenerationResponse {
	return safeCall(h.config.Name, succeed(func(resp *GenerationResponse) error {
		melody := request.melodyFor()
		input := map[string]any{
			"melody": melody.Notes,
			"style":  request.style(),
			"key":    melody.Key,
			"tempo":  request.tempo(),
		}
		if kind == KindBass && request.Harmony != nil {
			input["chords"] = request.Harmony.Chords
		}
		user, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		return h.run(ctx, kind, request, string(user), resp)
	}))
}

func (h *hostedModel) run(ctx context.Context, kind GenerationKind, request *GenerationRequest, user string, resp *GenerationResponse) error {
	if h.complete == nil {
		return errors.New("Model not available")
	}

	transaction := sentry.StartTransaction(ctx, string(h.modelType)+".generate")
	defer transaction.Finish()
	transaction.SetTag("model", h.providerModel)
	transaction.SetTag("kind", string(kind))

	system, err := h.prompts.BuildPrompt(string(kind), request.style(), request.melodyFor().Key)
	if err != nil {
		transaction.SetTag("success", "false")
		return err
	}

	trace := observability.GetClient().StartTrace(ctx, "merlai."+string(kind), map[string]any{
		"model_name": h.config.Name,
		"provider":   string(h.modelType),
	})
	defer trace.Finish()
	gen := trace.Generation(string(kind), nil)
	defer gen.Finish()

	ctx, cancel := context.WithTimeout(transaction.Context(), h.timeout)
	defer cancel()

	span := transaction.StartChild(string(h.modelType) + ".api_call")
	out, err := h.complete(ctx, hostedCall{
		Kind:       kind,
		System:     system,
		User:       user,
		Schema:     outputSchemaFor(kind),
		Parameters: request.Parameters,
	})
	span.Finish()
	if err != nil {
		transaction.SetTag("success", "false")
		return fmt.Errorf("%s request failed: %w", h.modelType, err)
	}

	gen.LogCompletion(h.providerModel, user, out.Text, out.Usage)

	if err := decodePart(kind, []byte(out.Text), request, resp); err != nil {
		transaction.SetTag("success", "false")
		return err
	}
	transaction.SetTag("success", "true")

	resp.Metadata["method"] = string(h.modelType)
	resp.Metadata["provider_model"] = h.providerModel
	resp.Metadata["total_tokens"] = out.Usage.Total
	resp.Metadata["cost_usd"] = observability.CalculateCost(h.providerModel, out.Usage)
	return nil
}
