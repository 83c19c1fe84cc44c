package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/Conceptual-Machines/merlai/internal/midi"
	"github.com/Conceptual-Machines/merlai/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	definitionFileName   = "model.yaml"
	defaultBassVelocity  = 80
	defaultBeatsPerBar   = 4
	lowComplexityRate    = 2.0 // notes per second
	mediumComplexityRate = 5.0
)

// LocalDefinition is a generative model stored on disk as YAML (or JSON).
// Harmony qualities are keyed by scale degree: semitones above the key root.
type LocalDefinition struct {
	Name  string `yaml:"name"`
	Style string `yaml:"style"`

	Harmony struct {
		ChordType string         `yaml:"chord_type"`
		Qualities map[int]string `yaml:"qualities"`
	} `yaml:"harmony"`

	Bass struct {
		Octave   int `yaml:"octave"`
		Velocity int `yaml:"velocity"`
	} `yaml:"bass"`

	Drums struct {
		BeatsPerBar int       `yaml:"beats_per_bar"`
		Hits        []DrumHit `yaml:"hits"`
	} `yaml:"drums"`
}

// DrumHit is one voice of a drum pattern, played on the listed zero-based beats of every bar.
type DrumHit struct {
	Pitch    int     `yaml:"pitch"`
	Velocity int     `yaml:"velocity"`
	Duration float64 `yaml:"duration"`
	Beats    []int   `yaml:"beats"`
}

// LoadDefinition reads a model definition. A directory is searched for model.yaml.
func LoadDefinition(path string) (*LocalDefinition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, definitionFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from %s: %w", path, err)
	}

	var def LocalDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse model definition %s: %w", path, err)
	}
	if err := def.normalize(); err != nil {
		return nil, fmt.Errorf("invalid model definition %s: %w", path, err)
	}
	return &def, nil
}

func (d *LocalDefinition) normalize() error {
	if d.Style == "" {
		d.Style = models.DefaultStyle
	}
	if d.Harmony.ChordType == "" {
		d.Harmony.ChordType = models.ChordTypeMajor
	}
	if !models.IsKnownChordType(d.Harmony.ChordType) {
		return fmt.Errorf("unknown chord type %q", d.Harmony.ChordType)
	}
	for degree, quality := range d.Harmony.Qualities {
		if degree < 0 || degree > 11 {
			return fmt.Errorf("harmony degree %d out of range 0-11", degree)
		}
		if !models.IsKnownChordType(quality) {
			return fmt.Errorf("harmony degree %d: unknown chord type %q", degree, quality)
		}
	}
	if d.Bass.Octave == 0 {
		d.Bass.Octave = -1
	}
	if d.Bass.Velocity == 0 {
		d.Bass.Velocity = defaultBassVelocity
	}
	if d.Drums.BeatsPerBar == 0 {
		d.Drums.BeatsPerBar = defaultBeatsPerBar
	}
	if d.Drums.BeatsPerBar < 0 {
		return fmt.Errorf("beats_per_bar must be positive, got %d", d.Drums.BeatsPerBar)
	}
	for i, h := range d.Drums.Hits {
		if _, err := models.NewNote(h.Pitch, h.Velocity, h.Duration, 0, models.DrumChannel); err != nil {
			return fmt.Errorf("drum hit %d: %w", i, err)
		}
	}
	return nil
}

// LocalModel runs inference from a definition loaded at construction. A
// failed load leaves the model registered but permanently unavailable.
type LocalModel struct {
	config  ModelConfig
	def     *LocalDefinition
	loadErr error
}

// NewLocalModel loads the definition from LocalPath, falling back to ModelPath.
func NewLocalModel(cfg ModelConfig) *LocalModel {
	m := &LocalModel{config: cfg}

	path := cfg.LocalPath
	if path == "" {
		path = cfg.ModelPath
	}
	if path == "" {
		m.loadErr = errors.New("no model path configured")
		return m
	}

	def, err := LoadDefinition(path)
	if err != nil {
		logger.Warn("Local model failed to load", logger.Fields{"model": cfg.Name, "error": err.Error()})
		m.loadErr = err
		return m
	}
	m.def = def
	logger.Info("Local model loaded", logger.Fields{"model": cfg.Name, "path": path, "style": def.Style})
	return m
}

func (m *LocalModel) IsAvailable(_ context.Context) bool {
	return m.def != nil
}

func (m *LocalModel) Info() ModelInfo {
	details := map[string]any{
		"model_path": m.config.ModelPath,
		"local_path": m.config.LocalPath,
		"loaded":     m.def != nil,
	}
	if m.loadErr != nil {
		details["load_error"] = m.loadErr.Error()
	}
	if m.def != nil {
		details["style"] = m.def.Style
	}
	return ModelInfo{Name: m.config.Name, Type: ModelTypeHuggingFace, Available: m.def != nil, Details: details}
}

func (m *LocalModel) ready() error {
	if m.def == nil {
		return errors.New("Model not available")
	}
	return nil
}

func (m *LocalModel) GenerateHarmony(_ context.Context, request *GenerationRequest) *GenerationResponse {
	return safeCall(m.config.Name, succeed(func(resp *GenerationResponse) error {
		if err := m.ready(); err != nil {
			return err
		}
		melody := request.melodyFor()
		root, ok := models.KeyRoot(melody.Key)
		if !ok {
			root = 0
		}

		chords := make([]models.Chord, 0, len(melody.Notes))
		for _, n := range melody.Notes {
			degree := ((n.Pitch-root)%12 + 12) % 12
			chordType := m.def.Harmony.ChordType
			if q, ok := m.def.Harmony.Qualities[degree]; ok {
				chordType = q
			}
			chords = append(chords, models.Chord{
				Root:      n.Pitch,
				ChordType: chordType,
				Duration:  n.Duration,
				StartTime: n.StartTime,
			})
		}

		resp.Harmony = &models.Harmony{Chords: chords, Style: request.style(), Key: melody.Key}
		resp.Metadata["method"] = "local_inference"
		return nil
	}))
}

func (m *LocalModel) GenerateBass(_ context.Context, request *GenerationRequest) *GenerationResponse {
	return safeCall(m.config.Name, succeed(func(resp *GenerationResponse) error {
		if err := m.ready(); err != nil {
			return err
		}

		type anchor struct {
			pitch           int
			duration, start float64
		}
		var anchors []anchor
		if request.Harmony != nil && len(request.Harmony.Chords) > 0 {
			for _, c := range request.Harmony.Chords {
				anchors = append(anchors, anchor{c.Root, c.Duration, c.StartTime})
			}
		} else {
			for _, n := range request.Melody.Notes {
				anchors = append(anchors, anchor{n.Pitch, n.Duration, n.StartTime})
			}
		}

		shift := 12 * m.def.Bass.Octave
		notes := make([]models.Note, 0, len(anchors))
		for _, a := range anchors {
			n, err := models.NewNote(clamp(a.pitch+shift, models.MinPitch, models.MaxPitch), m.def.Bass.Velocity, a.duration, a.start, 0)
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}

		resp.Bass = &models.Bass{Notes: notes, Style: request.style()}
		resp.Metadata["method"] = "local_inference"
		return nil
	}))
}

func (m *LocalModel) GenerateDrums(_ context.Context, request *GenerationRequest) *GenerationResponse {
	return safeCall(m.config.Name, succeed(func(resp *GenerationResponse) error {
		if err := m.ready(); err != nil {
			return err
		}
		tempo := request.tempo()
		if tempo <= 0 {
			return fmt.Errorf("tempo must be positive, got %d", tempo)
		}

		beat := 60.0 / float64(tempo)
		perBar := m.def.Drums.BeatsPerBar
		bars := len(request.Melody.Notes) / perBar

		var notes []models.Note
		for bar := 0; bar < bars; bar++ {
			barStart := float64(bar*perBar) * beat
			for _, hit := range m.def.Drums.Hits {
				for _, b := range hit.Beats {
					if b < 0 || b >= perBar {
						continue
					}
					notes = append(notes, models.Note{
						Pitch:     hit.Pitch,
						Velocity:  hit.Velocity,
						Duration:  hit.Duration,
						StartTime: barStart + float64(b)*beat,
						Channel:   models.DrumChannel,
					})
				}
			}
		}
		sort.SliceStable(notes, func(i, j int) bool { return notes[i].StartTime < notes[j].StartTime })

		resp.Drums = &models.Drums{Notes: notes, Style: request.style(), Tempo: tempo}
		resp.Metadata["method"] = "local_inference"
		resp.Metadata["bars"] = bars
		return nil
	}))
}

func (m *LocalModel) AnalyzeMusic(_ context.Context, midiData []byte) *GenerationResponse {
	return safeCall(m.config.Name, succeed(func(resp *GenerationResponse) error {
		if err := m.ready(); err != nil {
			return err
		}
		song, err := midi.ParseMIDIFile(midiData)
		if err != nil {
			return err
		}
		resp.Analysis = analyzeSong(song, m.def.Style)
		resp.Metadata["method"] = "local_inference"
		return nil
	}))
}

// analyzeSong estimates key from the most used pitch class and complexity from note density.
func analyzeSong(song *models.Song, style string) *Analysis {
	var counts [12]int
	total := 0
	for _, t := range song.Tracks {
		if t.Channel == models.DrumChannel {
			continue
		}
		for _, n := range t.Notes {
			counts[n.Pitch%12]++
			total++
		}
	}

	key := models.DefaultKey
	if total > 0 {
		best := 0
		for pc := 1; pc < 12; pc++ {
			if counts[pc] > counts[best] {
				best = pc
			}
		}
		key = models.PitchClassName(best)
	}

	complexity := "low"
	if song.Duration > 0 {
		rate := float64(total) / song.Duration
		switch {
		case rate >= mediumComplexityRate:
			complexity = "high"
		case rate >= lowComplexityRate:
			complexity = "medium"
		}
	}

	return &Analysis{Key: key, Tempo: song.Tempo, Style: style, Complexity: complexity}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
