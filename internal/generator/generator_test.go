package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/Conceptual-Machines/merlai/internal/llm"
	"github.com/Conceptual-Machines/merlai/internal/midi"
	"github.com/Conceptual-Machines/merlai/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel is an llm.Model whose harmony call is set per test. Bass fails
// and drums succeed without a payload, so the rules answer both.
type stubModel struct {
	harmonyFunc func(ctx context.Context, request *llm.GenerationRequest) *llm.GenerationResponse
}

func (m *stubModel) IsAvailable(context.Context) bool { return true }

func (m *stubModel) Info() llm.ModelInfo {
	return llm.ModelInfo{Name: "stub", Type: llm.ModelTypeCustom, Available: true}
}

func (m *stubModel) GenerateHarmony(ctx context.Context, request *llm.GenerationRequest) *llm.GenerationResponse {
	return m.harmonyFunc(ctx, request)
}

func (m *stubModel) GenerateBass(context.Context, *llm.GenerationRequest) *llm.GenerationResponse {
	return &llm.GenerationResponse{Success: false, ErrorMessage: "bass unsupported"}
}

func (m *stubModel) GenerateDrums(context.Context, *llm.GenerationRequest) *llm.GenerationResponse {
	return &llm.GenerationResponse{Success: true}
}

func (m *stubModel) AnalyzeMusic(context.Context, []byte) *llm.GenerationResponse {
	return &llm.GenerationResponse{Success: false, ErrorMessage: "no analysis"}
}

func scaleMelody() models.Melody {
	return models.NewMelody([]models.Note{
		models.MustNote(60, 80, 0.5, 0.0),
		models.MustNote(62, 80, 0.5, 0.5),
		models.MustNote(64, 80, 0.5, 1.0),
		models.MustNote(65, 80, 0.5, 1.5),
	})
}

func pitches(notes []models.Note) []int {
	out := make([]int, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Pitch)
	}
	return out
}

func TestRuleHarmony(t *testing.T) {
	h := RuleHarmony(scaleMelody(), "jazz")

	require.Len(t, h.Chords, 4)
	assert.Equal(t, "jazz", h.Style)
	for i, c := range h.Chords {
		assert.Equal(t, scaleMelody().Notes[i].Pitch, c.Root)
		assert.Equal(t, models.ChordTypeMajor, c.ChordType)
		assert.Equal(t, 0.5, c.Duration)
		assert.Equal(t, float64(i)*0.5, c.StartTime)
	}
}

func TestRuleBass(t *testing.T) {
	tests := []struct {
		name string
		root int
		want int
	}{
		{name: "middle C", root: 60, want: 48},
		{name: "lowest octave saturates", root: 5, want: 0},
		{name: "exactly twelve", root: 12, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := RuleBass(models.Harmony{Chords: []models.Chord{{Root: tt.root, ChordType: "major", Duration: 1, StartTime: 2}}})
			require.Len(t, b.Notes, 1)
			assert.Equal(t, tt.want, b.Notes[0].Pitch)
			assert.Equal(t, bassVelocity, b.Notes[0].Velocity)
			assert.Equal(t, 1.0, b.Notes[0].Duration)
			assert.Equal(t, 2.0, b.Notes[0].StartTime)
		})
	}
}

func TestRuleDrums(t *testing.T) {
	t.Run("one bar", func(t *testing.T) {
		d, err := RuleDrums(scaleMelody(), 120, "pop")
		require.NoError(t, err)

		assert.Equal(t, []int{
			ClosedHiHat, KickDrum,
			ClosedHiHat, SnareDrum,
			ClosedHiHat, KickDrum,
			ClosedHiHat, SnareDrum,
		}, pitches(d.Notes))
		assert.Equal(t, 1.5, d.Notes[7].StartTime)
		assert.Equal(t, 120, d.Tempo)
		for _, n := range d.Notes {
			assert.Equal(t, models.DrumChannel, n.Channel)
		}
	})

	t.Run("partial bar is dropped", func(t *testing.T) {
		m := scaleMelody()
		m.Notes = m.Notes[:3]
		d, err := RuleDrums(m, 120, "pop")
		require.NoError(t, err)
		assert.Empty(t, d.Notes)
	})

	t.Run("non-positive tempo", func(t *testing.T) {
		_, err := RuleDrums(scaleMelody(), 0, "pop")
		assert.ErrorIs(t, err, midi.ErrNonPositiveTempo)
	})
}

func TestCompose_Rules(t *testing.T) {
	g := NewMusicGenerator(nil, nil, true)
	require.False(t, g.UseAI())

	comp, err := g.Compose(context.Background(), scaleMelody(), DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, comp.Harmony.Chords, 4)
	assert.Equal(t, []int{48, 50, 52, 53}, pitches(comp.Bass.Notes))
	assert.Len(t, comp.Drums.Notes, 8)
	assert.Equal(t, map[string]string{"harmony": SourceRules, "bass": SourceRules, "drums": SourceRules}, comp.Sources)

	require.Len(t, comp.Song.Tracks, 4)
	assert.Equal(t, 2.0, comp.Song.Duration)

	parsed, err := midi.ParseMIDIFile(comp.MIDI)
	require.NoError(t, err)
	require.Len(t, parsed.Tracks, 4)
	assert.Equal(t, 120, parsed.Tempo)

	names := []string{}
	channels := []int{}
	for _, tr := range parsed.Tracks {
		names = append(names, tr.Name)
		channels = append(channels, tr.Channel)
	}
	assert.Equal(t, []string{"Melody", "Harmony", "Bass", "Drums"}, names)
	assert.Equal(t, []int{MelodyChannel, HarmonyChannel, BassChannel, models.DrumChannel}, channels)
	// four triads
	assert.Len(t, parsed.Tracks[1].Notes, 12)
}

func TestCompose_Options(t *testing.T) {
	g := NewMusicGenerator(nil, nil, false)

	tests := []struct {
		name       string
		opts       Options
		wantTracks []string
	}{
		{name: "melody only", opts: Options{}, wantTracks: []string{"Melody"}},
		{name: "bass needs harmony", opts: Options{Bass: true, Drums: true}, wantTracks: []string{"Melody", "Drums"}},
		{name: "harmony and bass", opts: Options{Harmony: true, Bass: true}, wantTracks: []string{"Melody", "Harmony", "Bass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := g.Compose(context.Background(), scaleMelody(), tt.opts)
			require.NoError(t, err)
			names := []string{}
			for _, tr := range comp.Song.Tracks {
				names = append(names, tr.Name)
			}
			assert.Equal(t, tt.wantTracks, names)
		})
	}
}

func TestCompose_InvalidInput(t *testing.T) {
	g := NewMusicGenerator(nil, nil, false)

	t.Run("empty melody", func(t *testing.T) {
		_, err := g.Compose(context.Background(), models.Melody{}, DefaultOptions())
		assert.ErrorIs(t, err, ErrEmptyMelody)
	})

	t.Run("negative tempo", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Tempo = -1
		_, err := g.Compose(context.Background(), scaleMelody(), opts)
		assert.ErrorIs(t, err, midi.ErrNonPositiveTempo)
	})

	t.Run("invalid note", func(t *testing.T) {
		m := scaleMelody()
		m.Notes[1].Pitch = 200
		_, err := g.Compose(context.Background(), m, DefaultOptions())
		assert.Error(t, err)
	})
}

func TestCompose_AIWithFallback(t *testing.T) {
	aiHarmony := &models.Harmony{Chords: []models.Chord{{Root: 57, ChordType: "minor", Duration: 2, StartTime: 0}}}

	tests := []struct {
		name        string
		harmony     func(ctx context.Context, request *llm.GenerationRequest) *llm.GenerationResponse
		wantSource  string
		wantChords  int
		wantBassPit []int
	}{
		{
			name: "model result used",
			harmony: func(_ context.Context, request *llm.GenerationRequest) *llm.GenerationResponse {
				assert.Equal(t, "C", request.Key)
				return &llm.GenerationResponse{Success: true, Harmony: aiHarmony}
			},
			wantSource:  "stub",
			wantChords:  1,
			wantBassPit: []int{45},
		},
		{
			name: "model failure",
			harmony: func(context.Context, *llm.GenerationRequest) *llm.GenerationResponse {
				return &llm.GenerationResponse{Success: false, ErrorMessage: "boom"}
			},
			wantSource:  SourceRules,
			wantChords:  4,
			wantBassPit: []int{48, 50, 52, 53},
		},
		{
			name: "model panic",
			harmony: func(context.Context, *llm.GenerationRequest) *llm.GenerationResponse {
				panic(errors.New("model crashed"))
			},
			wantSource:  SourceRules,
			wantChords:  4,
			wantBassPit: []int{48, 50, 52, 53},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := llm.NewRegistry(nil)
			require.True(t, registry.RegisterModel("stub", &stubModel{harmonyFunc: tt.harmony}))
			require.True(t, registry.SetDefault("stub"))

			g := NewMusicGenerator(registry, nil, true)
			comp, err := g.Compose(context.Background(), scaleMelody(), DefaultOptions())
			require.NoError(t, err)

			assert.Equal(t, tt.wantSource, comp.Sources["harmony"])
			assert.Len(t, comp.Harmony.Chords, tt.wantChords)
			assert.Equal(t, tt.wantBassPit, pitches(comp.Bass.Notes))
			assert.Equal(t, SourceRules, comp.Sources["bass"])
			// success without a drums payload still falls back
			assert.Equal(t, SourceRules, comp.Sources["drums"])
			assert.Len(t, comp.Drums.Notes, 8)
		})
	}
}
