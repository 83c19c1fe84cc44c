package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/merlai/internal/models"
)

// Model is one generation backend. Implementations never return errors or
// panic out of the generation methods: every failure is reported as a
// GenerationResponse with Success=false.
type Model interface {
	// IsAvailable reports whether the backend can serve requests right now.
	// Remote backends probe their endpoint; local ones report load status.
	IsAvailable(ctx context.Context) bool

	// Info describes the model for listings.
	Info() ModelInfo

	GenerateHarmony(ctx context.Context, request *GenerationRequest) *GenerationResponse
	GenerateBass(ctx context.Context, request *GenerationRequest) *GenerationResponse
	GenerateDrums(ctx context.Context, request *GenerationRequest) *GenerationResponse

	// AnalyzeMusic inspects a MIDI file and returns key, tempo, style and complexity.
	AnalyzeMusic(ctx context.Context, midiData []byte) *GenerationResponse
}

// ModelType selects the backend built for a ModelConfig.
type ModelType string

const (
	ModelTypeHuggingFace ModelType = "huggingface"  // local inference from a model definition on disk
	ModelTypeExternalAPI ModelType = "external_api" // remote HTTP inference service
	ModelTypeOpenAI      ModelType = "openai"
	ModelTypeGemini      ModelType = "gemini"
	ModelTypeLocal       ModelType = "local"  // recognized, no backend
	ModelTypeCustom      ModelType = "custom" // recognized, no backend
)

var knownModelTypes = map[ModelType]bool{
	ModelTypeHuggingFace: true,
	ModelTypeExternalAPI: true,
	ModelTypeOpenAI:      true,
	ModelTypeGemini:      true,
	ModelTypeLocal:       true,
	ModelTypeCustom:      true,
}

// ParseModelType normalizes a type string and rejects unknown values.
func ParseModelType(s string) (ModelType, error) {
	t := ModelType(strings.ToLower(strings.TrimSpace(s)))
	if !knownModelTypes[t] {
		return "", fmt.Errorf("unknown model type: %s", s)
	}
	return t, nil
}

// ModelConfig describes one registry entry.
type ModelConfig struct {
	Name       string         `json:"name" binding:"required"`
	Type       ModelType      `json:"type" binding:"required"`
	ModelPath  string         `json:"model_path,omitempty"`
	LocalPath  string         `json:"local_path,omitempty"`
	APIKey     string         `json:"api_key,omitempty"`
	Endpoint   string         `json:"endpoint,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Validate checks the parameters the config's backend cannot work without.
func (c ModelConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("model name is required")
	}
	switch c.Type {
	case ModelTypeHuggingFace:
		if c.ModelPath == "" && c.LocalPath == "" {
			return fmt.Errorf("model %s: model_path or local_path is required", c.Name)
		}
	case ModelTypeExternalAPI:
		if c.Endpoint == "" {
			return fmt.Errorf("model %s: endpoint is required", c.Name)
		}
	}
	return nil
}

// StringParam returns a string parameter or def.
func (c ModelConfig) StringParam(key, def string) string {
	if v, ok := c.Parameters[key].(string); ok && v != "" {
		return v
	}
	return def
}

// WithParameters returns a copy of c whose parameters are the configured ones
// overlaid by overrides. Overrides win on conflicting keys; c is not modified.
func (c ModelConfig) WithParameters(overrides map[string]any) ModelConfig {
	if len(overrides) == 0 {
		return c
	}
	merged := make(map[string]any, len(c.Parameters)+len(overrides))
	for k, v := range c.Parameters {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	c.Parameters = merged
	return c
}

// FloatParam returns a numeric parameter or def. YAML and JSON decoders
// produce different numeric types, so all of them are accepted.
func (c ModelConfig) FloatParam(key string, def float64) float64 {
	switch v := c.Parameters[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// ModelInfo is the listing view of a registered model.
type ModelInfo struct {
	Name      string         `json:"name"`
	Type      ModelType      `json:"type"`
	Available bool           `json:"available"`
	Details   map[string]any `json:"details,omitempty"`
}

// GenerationKind names the part being generated.
type GenerationKind string

const (
	KindHarmony  GenerationKind = "harmony"
	KindBass     GenerationKind = "bass"
	KindDrums    GenerationKind = "drums"
	KindAnalysis GenerationKind = "analysis"
)

// GenerationRequest carries everything a backend needs to generate one part.
type GenerationRequest struct {
	Melody models.Melody  `json:"melody"`
	Style  string         `json:"style"`
	Key    string         `json:"key"`
	Tempo  int            `json:"tempo"`
	Kind   GenerationKind `json:"kind,omitempty"`

	// Harmony, when present, is the chord context for bass generation.
	Harmony *models.Harmony `json:"harmony,omitempty"`

	// Parameters holds sampling settings (temperature, top_p, ...).
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Analysis is the result of AnalyzeMusic.
type Analysis struct {
	Key        string `json:"key"`
	Tempo      int    `json:"tempo"`
	Style      string `json:"style"`
	Complexity string `json:"complexity"`
}

// GenerationResponse is the outcome of any generation call. Exactly one of
// the result fields is set on success.
type GenerationResponse struct {
	Success        bool            `json:"success"`
	Harmony        *models.Harmony `json:"harmony,omitempty"`
	Bass           *models.Bass    `json:"bass,omitempty"`
	Drums          *models.Drums   `json:"drums,omitempty"`
	Analysis       *Analysis       `json:"analysis,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	ModelName      string          `json:"model_name,omitempty"`
	GenerationTime float64         `json:"generation_time"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// Result returns whichever result field is set, or nil.
func (r *GenerationResponse) Result() any {
	switch {
	case r == nil:
		return nil
	case r.Harmony != nil:
		return r.Harmony
	case r.Bass != nil:
		return r.Bass
	case r.Drums != nil:
		return r.Drums
	case r.Analysis != nil:
		return r.Analysis
	default:
		return nil
	}
}

// failed builds an unsuccessful response.
func failed(modelName, message string) *GenerationResponse {
	return &GenerationResponse{
		Success:      false,
		ErrorMessage: message,
		ModelName:    modelName,
	}
}

// melodyFor returns the request melody with the request-level tempo and key applied.
func (r *GenerationRequest) melodyFor() models.Melody {
	m := r.Melody
	if r.Tempo > 0 {
		m.Tempo = r.Tempo
	}
	if r.Key != "" {
		m.Key = r.Key
	}
	if m.Tempo <= 0 {
		m.Tempo = models.DefaultTempo
	}
	if m.Key == "" {
		m.Key = models.DefaultKey
	}
	return m
}

func (r *GenerationRequest) style() string {
	if r.Style == "" {
		return models.DefaultStyle
	}
	return r.Style
}

func (r *GenerationRequest) tempo() int {
	if r.Tempo != 0 {
		return r.Tempo
	}
	if r.Melody.Tempo != 0 {
		return r.Melody.Tempo
	}
	return models.DefaultTempo
}
