package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/merlai/internal/config"
	"github.com/Conceptual-Machines/merlai/internal/generator"
	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/Conceptual-Machines/merlai/internal/models"
	"github.com/gin-gonic/gin"
)

type GenerationHandler struct {
	generator *generator.MusicGenerator
	settings  *config.Settings
}

func NewGenerationHandler(gen *generator.MusicGenerator, settings *config.Settings) *GenerationHandler {
	return &GenerationHandler{generator: gen, settings: settings}
}

// GenerateRequest is the body of POST /generate. The generate_* flags
// default to true when omitted.
type GenerateRequest struct {
	Melody          []models.Note `json:"melody"`
	Style           string        `json:"style"`
	Tempo           int           `json:"tempo"`
	Key             string        `json:"key"`
	GenerateHarmony *bool         `json:"generate_harmony"`
	GenerateBass    *bool         `json:"generate_bass"`
	GenerateDrums   *bool         `json:"generate_drums"`
	ModelName       string        `json:"model_name"`
}

type GenerateResponse struct {
	Harmony      []models.Chord    `json:"harmony,omitempty"`
	BassLine     []models.Note     `json:"bass_line,omitempty"`
	Drums        []models.Note     `json:"drums,omitempty"`
	MIDIData     string            `json:"midi_data,omitempty"` // base64
	Duration     float64           `json:"duration"`
	Success      bool              `json:"success"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Sources      map[string]string `json:"sources,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
}

func flag(v *bool) bool {
	return v == nil || *v
}

// Generate composes harmony, bass and drums for a melody and returns the
// parts with the rendered MIDI file.
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{errorKey: err.Error()})
		return
	}
	if len(req.Melody) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{detailKey: generator.ErrEmptyMelody.Error()})
		return
	}
	if err := models.ValidateNotes(req.Melody); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{detailKey: err.Error()})
		return
	}

	melody := models.NewMelody(req.Melody)
	melody.Tempo = req.Tempo
	if req.Key != "" {
		melody.Key = req.Key
	}

	opts := generator.Options{
		Style:     req.Style,
		Key:       req.Key,
		Tempo:     req.Tempo,
		Harmony:   flag(req.GenerateHarmony),
		Bass:      flag(req.GenerateBass),
		Drums:     flag(req.GenerateDrums),
		ModelName: req.ModelName,
	}
	if h.settings != nil {
		opts.Parameters = h.settings.Snapshot()
	}

	start := time.Now()
	comp, err := h.generator.Compose(c.Request.Context(), melody, opts)
	if err != nil {
		fields := logger.WithContext(c)
		fields["duration_ms"] = time.Since(start).Milliseconds()
		logger.Error("Music generation failed", err, fields)

		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{detailKey: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{detailKey: err.Error()})
		return
	}

	resp := GenerateResponse{
		MIDIData:  base64.StdEncoding.EncodeToString(comp.MIDI),
		Duration:  comp.Song.Duration,
		Success:   true,
		Sources:   comp.Sources,
		RequestID: c.GetString("request_id"),
	}
	if comp.Harmony != nil {
		resp.Harmony = comp.Harmony.Chords
	}
	if comp.Bass != nil {
		resp.BassLine = comp.Bass.Notes
	}
	if comp.Drums != nil {
		resp.Drums = comp.Drums.Notes
	}
	c.JSON(http.StatusOK, resp)
}
