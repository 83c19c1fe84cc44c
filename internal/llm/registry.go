package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Conceptual-Machines/merlai/internal/config"
	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/Conceptual-Machines/merlai/internal/metrics"
)

// Registry maps names to models and dispatches generation calls. It is the
// error boundary of the package: dispatch always yields a response.
type Registry struct {
	mu           sync.RWMutex
	models       map[string]Model
	defaultModel string
	factory      *Factory
}

// NewRegistry creates an empty registry. A nil factory builds models without
// provider keys from the environment.
func NewRegistry(factory *Factory) *Registry {
	if factory == nil {
		factory = NewFactory(context.Background(), "", "")
	}
	return &Registry{
		models:  make(map[string]Model),
		factory: factory,
	}
}

// Register builds and adds a model. It returns false for duplicates, invalid
// configs and types without a backend.
func (r *Registry) Register(cfg ModelConfig) bool {
	if err := cfg.Validate(); err != nil {
		logger.Warn("Invalid model config", logger.Fields{"model": cfg.Name, "error": err.Error()})
		return false
	}

	r.mu.RLock()
	_, exists := r.models[cfg.Name]
	r.mu.RUnlock()
	if exists {
		logger.Warn("Model already registered", logger.Fields{"model": cfg.Name})
		return false
	}

	model, err := r.factory.Build(cfg)
	if err != nil {
		logger.Warn("Failed to register model", logger.Fields{"model": cfg.Name, "type": string(cfg.Type), "error": err.Error()})
		return false
	}

	if !r.add(cfg.Name, model) {
		return false
	}
	logger.Info("Registered model", logger.Fields{"model": cfg.Name, "type": string(cfg.Type)})
	return true
}

// RegisterModel adds an already built model. Nil models and duplicates are rejected.
func (r *Registry) RegisterModel(name string, model Model) bool {
	if model == nil || name == "" {
		return false
	}
	return r.add(name, model)
}

func (r *Registry) add(name string, model Model) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[name]; exists {
		return false
	}
	r.models[name] = model
	metrics.Get().RegisteredModels.Set(float64(len(r.models)))
	return true
}

// Remove unregisters a model. Removing the default clears it.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[name]; !exists {
		return false
	}
	delete(r.models, name)
	if r.defaultModel == name {
		r.defaultModel = ""
	}
	metrics.Get().RegisteredModels.Set(float64(len(r.models)))
	return true
}

// SetDefault selects the model used when a call names none.
func (r *Registry) SetDefault(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[name]; !exists {
		return false
	}
	r.defaultModel = name
	return true
}

func (r *Registry) Get(name string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// List returns registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultModel
}

// Info returns the listing view of every model.
func (r *Registry) Info() map[string]ModelInfo {
	r.mu.RLock()
	snapshot := make(map[string]Model, len(r.models))
	for name, m := range r.models {
		snapshot[name] = m
	}
	r.mu.RUnlock()

	out := make(map[string]ModelInfo, len(snapshot))
	for name, m := range snapshot {
		info := m.Info()
		info.Name = name
		out[name] = info
	}
	return out
}

// LoadFromConfig registers every valid entry and then applies the default if
// it names a registered model. It reports whether anything was loaded.
func (r *Registry) LoadFromConfig(cfg config.AIModels) bool {
	loaded := false
	for _, entry := range cfg.Available {
		modelType, err := ParseModelType(entry.Type)
		if err != nil {
			logger.Warn("Skipping model entry", logger.Fields{"model": entry.Name, "error": err.Error()})
			continue
		}
		mc := ModelConfig{
			Name:       entry.Name,
			Type:       modelType,
			ModelPath:  entry.ModelPath,
			LocalPath:  entry.LocalPath,
			APIKey:     entry.APIKey,
			Endpoint:   entry.Endpoint,
			Parameters: entry.Parameters,
		}
		if r.Register(mc) {
			loaded = true
		}
	}

	if cfg.Default != "" {
		if !r.SetDefault(cfg.Default) {
			logger.Warn("Default model not registered", logger.Fields{"model": cfg.Default})
		}
	}
	return loaded
}

func (r *Registry) GenerateHarmony(ctx context.Context, request *GenerationRequest, modelName string) *GenerationResponse {
	if request == nil {
		return failed(modelName, "No generation request provided")
	}
	return r.dispatch(ctx, KindHarmony, modelName, func(m Model) *GenerationResponse {
		return m.GenerateHarmony(ctx, request)
	})
}

func (r *Registry) GenerateBass(ctx context.Context, request *GenerationRequest, modelName string) *GenerationResponse {
	if request == nil {
		return failed(modelName, "No generation request provided")
	}
	return r.dispatch(ctx, KindBass, modelName, func(m Model) *GenerationResponse {
		return m.GenerateBass(ctx, request)
	})
}

func (r *Registry) GenerateDrums(ctx context.Context, request *GenerationRequest, modelName string) *GenerationResponse {
	if request == nil {
		return failed(modelName, "No generation request provided")
	}
	return r.dispatch(ctx, KindDrums, modelName, func(m Model) *GenerationResponse {
		return m.GenerateDrums(ctx, request)
	})
}

func (r *Registry) AnalyzeMusic(ctx context.Context, midiData []byte, modelName string) *GenerationResponse {
	if len(midiData) == 0 {
		return failed(modelName, "No MIDI data provided")
	}
	return r.dispatch(ctx, KindAnalysis, modelName, func(m Model) *GenerationResponse {
		return m.AnalyzeMusic(ctx, midiData)
	})
}

// resolve picks the named model or the default.
func (r *Registry) resolve(modelName string) (string, Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := modelName
	if name == "" {
		name = r.defaultModel
	}
	if name == "" {
		return "", nil, errors.New("No model specified and no default model set")
	}
	m, ok := r.models[name]
	if !ok {
		return name, nil, errors.New("Model not found: " + name)
	}
	return name, m, nil
}

func (r *Registry) dispatch(ctx context.Context, kind GenerationKind, modelName string, call func(Model) *GenerationResponse) *GenerationResponse {
	name, model, err := r.resolve(modelName)
	if err != nil {
		return failed(name, err.Error())
	}

	start := time.Now()
	resp := safeCall(name, func() (*GenerationResponse, error) {
		return call(model), nil
	})
	duration := time.Since(start)

	metrics.Get().ObserveGeneration(string(kind), name, resp.Success, duration)
	fields := logger.Fields{}
	if !resp.Success {
		fields["error"] = resp.ErrorMessage
	}
	logger.LogGenerationRequest(ctx, name, string(kind), duration, resp.Success, fields)
	return resp
}
