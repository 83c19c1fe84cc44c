package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/Conceptual-Machines/merlai/internal/config"
	"github.com/Conceptual-Machines/merlai/internal/generator"
	"github.com/Conceptual-Machines/merlai/internal/llm"
	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/Conceptual-Machines/merlai/internal/models"
	"github.com/gin-gonic/gin"
)

// ModelsHandler manages the model registry and calls models directly,
// without the rule-based fallback.
type ModelsHandler struct {
	registry  *llm.Registry
	generator *generator.MusicGenerator
	settings  *config.Settings
}

func NewModelsHandler(registry *llm.Registry, gen *generator.MusicGenerator, settings *config.Settings) *ModelsHandler {
	return &ModelsHandler{registry: registry, generator: gen, settings: settings}
}

// AIGenerateRequest is the body of POST /ai/generate/{kind}. model_name may
// also be given as a query parameter.
type AIGenerateRequest struct {
	Melody     []models.Note   `json:"melody"`
	Style      string          `json:"style"`
	Key        string          `json:"key"`
	Tempo      int             `json:"tempo"`
	Harmony    *models.Harmony `json:"harmony,omitempty"`
	Parameters map[string]any  `json:"parameters,omitempty"`
	ModelName  string          `json:"model_name"`
}

type AnalyzeRequest struct {
	MIDIData  string `json:"midi_data" binding:"required"` // base64
	ModelName string `json:"model_name"`
}

func (h *ModelsHandler) Register(c *gin.Context) {
	var cfg llm.ModelConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{errorKey: err.Error()})
		return
	}

	modelType, err := llm.ParseModelType(string(cfg.Type))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{detailKey: fmt.Sprintf("Failed to register AI model %s", cfg.Name)})
		return
	}
	cfg.Type = modelType

	if !h.registry.Register(cfg) {
		c.JSON(http.StatusBadRequest, gin.H{detailKey: fmt.Sprintf("Failed to register AI model %s", cfg.Name)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    fmt.Sprintf("AI model %s registered successfully", cfg.Name),
		"model_name": cfg.Name,
		"model_type": cfg.Type,
	})
}

func (h *ModelsHandler) SetDefault(c *gin.Context) {
	name := c.Param("name")
	if !h.registry.SetDefault(name) {
		c.JSON(http.StatusNotFound, gin.H{detailKey: fmt.Sprintf("AI model %s not found", name)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Default AI model set to %s", name),
		"default_model": name,
	})
}

func (h *ModelsHandler) Remove(c *gin.Context) {
	name := c.Param("name")
	if !h.registry.Remove(name) {
		c.JSON(http.StatusNotFound, gin.H{detailKey: fmt.Sprintf("AI model %s not found", name)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("AI model %s removed", name)})
}

func (h *ModelsHandler) List(c *gin.Context) {
	names := h.registry.List()
	aiEnabled := false
	if h.generator != nil {
		aiEnabled = h.generator.UseAI()
	}
	c.JSON(http.StatusOK, gin.H{
		"models":            names,
		"count":             len(names),
		"default":           h.registry.Default(),
		"info":              h.registry.Info(),
		"ai_models_enabled": aiEnabled,
	})
}

func (h *ModelsHandler) GenerateHarmony(c *gin.Context) {
	h.generate(c, llm.KindHarmony, "AI harmony generation failed", h.registry.GenerateHarmony)
}

func (h *ModelsHandler) GenerateBass(c *gin.Context) {
	h.generate(c, llm.KindBass, "AI bass generation failed", h.registry.GenerateBass)
}

func (h *ModelsHandler) GenerateDrums(c *gin.Context) {
	h.generate(c, llm.KindDrums, "AI drum generation failed", h.registry.GenerateDrums)
}

type dispatchFunc func(ctx context.Context, request *llm.GenerationRequest, modelName string) *llm.GenerationResponse

func (h *ModelsHandler) generate(c *gin.Context, kind llm.GenerationKind, failure string, dispatch dispatchFunc) {
	var req AIGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{errorKey: err.Error()})
		return
	}
	if err := models.ValidateNotes(req.Melody); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{detailKey: err.Error()})
		return
	}

	modelName := req.ModelName
	if q := c.Query("model_name"); q != "" {
		modelName = q
	}

	melody := models.NewMelody(req.Melody)
	if req.Key != "" {
		melody.Key = req.Key
	}
	if req.Tempo > 0 {
		melody.Tempo = req.Tempo
	}

	params := req.Parameters
	if params == nil && h.settings != nil {
		params = h.settings.Snapshot()
	}

	resp := dispatch(c.Request.Context(), &llm.GenerationRequest{
		Melody:     melody,
		Style:      req.Style,
		Key:        req.Key,
		Tempo:      req.Tempo,
		Kind:       kind,
		Harmony:    req.Harmony,
		Parameters: params,
	}, modelName)

	if !resp.Success {
		fields := logger.WithContext(c)
		fields["model"] = resp.ModelName
		fields["kind"] = string(kind)
		logger.Warn("Direct model generation failed", fields)
		c.JSON(http.StatusInternalServerError, gin.H{detailKey: fmt.Sprintf("%s: %s", failure, resp.ErrorMessage)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Analyze runs music analysis on a base64 MIDI file.
func (h *ModelsHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{errorKey: err.Error()})
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.MIDIData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{errorKey: "midi_data must be base64 encoded"})
		return
	}

	modelName := req.ModelName
	if q := c.Query("model_name"); q != "" {
		modelName = q
	}

	resp := h.registry.AnalyzeMusic(c.Request.Context(), data, modelName)
	if !resp.Success {
		c.JSON(http.StatusInternalServerError, gin.H{detailKey: "AI analysis failed: " + resp.ErrorMessage})
		return
	}
	c.JSON(http.StatusOK, resp)
}
