package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/merlai/internal/llm"
	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/Conceptual-Machines/merlai/internal/metrics"
	"github.com/Conceptual-Machines/merlai/internal/midi"
	"github.com/Conceptual-Machines/merlai/internal/models"
)

// SourceRules marks a part produced by the rule-based generator.
const SourceRules = "rules"

// Track layout of a composed song.
const (
	MelodyChannel     = 0
	HarmonyChannel    = 1
	BassChannel       = 2
	MelodyProgram     = 0
	HarmonyProgram    = 48 // String Ensemble 1
	BassProgram       = 32 // Acoustic Bass
	DrumsProgram      = 0
	ChordNoteVelocity = 80
)

// ErrEmptyMelody is returned by Compose for a melody without notes.
var ErrEmptyMelody = errors.New("Melody cannot be empty. Please provide at least one note.")

// Options selects what Compose generates and how.
type Options struct {
	Style string
	Key   string
	// Tempo 0 means "use the melody tempo".
	Tempo int

	Harmony bool
	Bass    bool // only generated alongside harmony
	Drums   bool

	// ModelName picks a registered model; empty uses the registry default.
	ModelName  string
	Parameters map[string]any
}

// DefaultOptions generates every part in the default style.
func DefaultOptions() Options {
	return Options{Style: models.DefaultStyle, Harmony: true, Bass: true, Drums: true}
}

// Composition is the result of Compose.
type Composition struct {
	Harmony *models.Harmony
	Bass    *models.Bass
	Drums   *models.Drums
	Song    models.Song
	MIDI    []byte

	// Sources maps each generated part to the model that produced it or "rules".
	Sources map[string]string
}

// MusicGenerator produces accompaniment for a melody. With AI mode on it
// asks the registry first and falls back to the rules on any failure.
type MusicGenerator struct {
	registry *llm.Registry
	recorder *metrics.Recorder
	useAI    bool
}

func NewMusicGenerator(registry *llm.Registry, recorder *metrics.Recorder, useAI bool) *MusicGenerator {
	return &MusicGenerator{registry: registry, recorder: recorder, useAI: useAI && registry != nil}
}

// UseAI reports whether the registry is consulted before the rules.
func (g *MusicGenerator) UseAI() bool {
	return g.useAI
}

func (g *MusicGenerator) request(melody models.Melody, opts Options) *llm.GenerationRequest {
	return &llm.GenerationRequest{
		Melody:     melody,
		Style:      opts.Style,
		Key:        opts.Key,
		Tempo:      opts.Tempo,
		Parameters: opts.Parameters,
	}
}

// GenerateHarmony returns the harmony and the source that produced it.
func (g *MusicGenerator) GenerateHarmony(ctx context.Context, melody models.Melody, opts Options) (models.Harmony, string) {
	start := time.Now()
	req := g.request(melody, opts)
	if resp := g.withFallback(ctx, llm.KindHarmony, opts.ModelName, func() *llm.GenerationResponse {
		return g.registry.GenerateHarmony(ctx, req, opts.ModelName)
	}); resp != nil {
		return *resp.Harmony, resp.ModelName
	}

	h := RuleHarmony(melody, styleOrDefault(opts.Style))
	g.recorder.Generation(ctx, string(llm.KindHarmony), SourceRules, time.Since(start), true)
	return h, SourceRules
}

// GenerateBass returns a bass line for harmony and the source that produced it.
func (g *MusicGenerator) GenerateBass(ctx context.Context, melody models.Melody, harmony models.Harmony, opts Options) (models.Bass, string) {
	start := time.Now()
	req := g.request(melody, opts)
	req.Harmony = &harmony
	if resp := g.withFallback(ctx, llm.KindBass, opts.ModelName, func() *llm.GenerationResponse {
		return g.registry.GenerateBass(ctx, req, opts.ModelName)
	}); resp != nil {
		return *resp.Bass, resp.ModelName
	}

	b := RuleBass(harmony)
	g.recorder.Generation(ctx, string(llm.KindBass), SourceRules, time.Since(start), true)
	return b, SourceRules
}

// GenerateDrums returns a drum part and its source. A non-positive tempo
// is an error once the rules are reached.
func (g *MusicGenerator) GenerateDrums(ctx context.Context, melody models.Melody, tempo int, opts Options) (models.Drums, string, error) {
	start := time.Now()
	req := g.request(melody, opts)
	req.Tempo = tempo
	if resp := g.withFallback(ctx, llm.KindDrums, opts.ModelName, func() *llm.GenerationResponse {
		return g.registry.GenerateDrums(ctx, req, opts.ModelName)
	}); resp != nil {
		return *resp.Drums, resp.ModelName, nil
	}

	d, err := RuleDrums(melody, tempo, styleOrDefault(opts.Style))
	g.recorder.Generation(ctx, string(llm.KindDrums), SourceRules, time.Since(start), err == nil)
	if err != nil {
		return models.Drums{}, SourceRules, err
	}
	return d, SourceRules, nil
}

// withFallback is the single place that decides between an AI result and
// the rules. It returns the model response only when AI mode is on and the
// call succeeded with a result; nil means the caller must use the rules.
func (g *MusicGenerator) withFallback(ctx context.Context, kind llm.GenerationKind, modelName string, dispatch func() *llm.GenerationResponse) (resp *llm.GenerationResponse) {
	if !g.useAI {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			g.fallback(ctx, kind, modelName, fmt.Sprintf("panic: %v", r))
			resp = nil
		}
	}()

	start := time.Now()
	out := dispatch()
	switch {
	case out == nil:
		g.fallback(ctx, kind, modelName, "no response")
		return nil
	case !out.Success:
		g.fallback(ctx, kind, out.ModelName, out.ErrorMessage)
		return nil
	case !hasResult(kind, out):
		g.fallback(ctx, kind, out.ModelName, "response carried no "+string(kind))
		return nil
	}

	g.recorder.Generation(ctx, string(kind), out.ModelName, time.Since(start), true)
	return out
}

func (g *MusicGenerator) fallback(ctx context.Context, kind llm.GenerationKind, modelName, reason string) {
	logger.Warn("AI generation failed, using rule-based generator", logger.Fields{
		"kind":   string(kind),
		"model":  modelName,
		"reason": reason,
	})
	g.recorder.Fallback(ctx, string(kind), modelName, reason)
}

func hasResult(kind llm.GenerationKind, resp *llm.GenerationResponse) bool {
	switch kind {
	case llm.KindHarmony:
		return resp.Harmony != nil
	case llm.KindBass:
		return resp.Bass != nil
	case llm.KindDrums:
		return resp.Drums != nil
	default:
		return resp.Result() != nil
	}
}

// Compose generates the requested parts and renders melody and parts into
// one MIDI file: Melody on channel 0, Harmony on 1, Bass on 2, Drums on 9.
func (g *MusicGenerator) Compose(ctx context.Context, melody models.Melody, opts Options) (*Composition, error) {
	if len(melody.Notes) == 0 {
		return nil, ErrEmptyMelody
	}
	if err := models.ValidateNotes(melody.Notes); err != nil {
		return nil, err
	}

	tempo := opts.Tempo
	if tempo == 0 {
		tempo = melody.Tempo
	}
	if tempo == 0 {
		tempo = models.DefaultTempo
	}
	if tempo < 0 {
		return nil, fmt.Errorf("%w, got %d", midi.ErrNonPositiveTempo, tempo)
	}
	key := opts.Key
	if key == "" {
		key = melody.Key
	}
	if key == "" {
		key = models.DefaultKey
	}
	opts.Style = styleOrDefault(opts.Style)
	opts.Key = key
	opts.Tempo = tempo
	melody.Tempo = tempo
	melody.Key = key

	comp := &Composition{Sources: map[string]string{}}
	tracks := []models.Track{{
		Name:       "Melody",
		Notes:      melody.Notes,
		Channel:    MelodyChannel,
		Instrument: MelodyProgram,
	}}

	if opts.Harmony {
		harmony, source := g.GenerateHarmony(ctx, melody, opts)
		comp.Harmony = &harmony
		comp.Sources[string(llm.KindHarmony)] = source
		tracks = append(tracks, models.Track{
			Name:       "Harmony",
			Notes:      midi.ChordsToNotes(harmony.Chords, ChordNoteVelocity, HarmonyChannel),
			Channel:    HarmonyChannel,
			Instrument: HarmonyProgram,
		})

		if opts.Bass {
			bass, source := g.GenerateBass(ctx, melody, harmony, opts)
			comp.Bass = &bass
			comp.Sources[string(llm.KindBass)] = source
			tracks = append(tracks, models.Track{
				Name:       "Bass",
				Notes:      bass.Notes,
				Channel:    BassChannel,
				Instrument: BassProgram,
			})
		}
	}

	if opts.Drums {
		drums, source, err := g.GenerateDrums(ctx, melody, tempo, opts)
		if err != nil {
			return nil, err
		}
		comp.Drums = &drums
		comp.Sources[string(llm.KindDrums)] = source
		tracks = append(tracks, models.Track{
			Name:       "Drums",
			Notes:      drums.Notes,
			Channel:    models.DrumChannel,
			Instrument: DrumsProgram,
		})
	}

	song := models.NewSong(tracks, tempo, key)
	song.TimeSignature = melody.TimeSignature.OrDefault()

	data, err := midi.CreateMIDIFile(song)
	if err != nil {
		return nil, fmt.Errorf("failed to render MIDI: %w", err)
	}
	g.recorder.MIDI(len(data))

	comp.Song = song
	comp.MIDI = data
	return comp, nil
}

func styleOrDefault(style string) string {
	if style == "" {
		return models.DefaultStyle
	}
	return style
}
