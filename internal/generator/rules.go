package generator

import (
	"fmt"
	"slices"

	"github.com/Conceptual-Machines/merlai/internal/midi"
	"github.com/Conceptual-Machines/merlai/internal/models"
)

// General MIDI percussion keys and the fixed rule-based groove.
const (
	KickDrum     = 36
	SnareDrum    = 38
	ClosedHiHat  = 42
	beatsPerBar  = 4
	bassVelocity = 64
)

type drumVoice struct {
	pitch    int
	velocity int
	duration float64
	beats    []int // zero-based beats within the bar
}

var rulePattern = []drumVoice{
	{pitch: ClosedHiHat, velocity: 50, duration: 0.125, beats: []int{0, 1, 2, 3}},
	{pitch: KickDrum, velocity: 80, duration: 0.25, beats: []int{0, 2}},
	{pitch: SnareDrum, velocity: 70, duration: 0.25, beats: []int{1, 3}},
}

// RuleHarmony puts a major chord under every melody note.
func RuleHarmony(melody models.Melody, style string) models.Harmony {
	chords := make([]models.Chord, 0, len(melody.Notes))
	for _, n := range melody.Notes {
		chords = append(chords, models.Chord{
			Root:      n.Pitch,
			ChordType: models.ChordTypeMajor,
			Duration:  n.Duration,
			StartTime: n.StartTime,
		})
	}
	return models.Harmony{Chords: chords, Style: style, Key: melody.Key}
}

// RuleBass plays each chord root an octave down. Roots below 12 saturate at 0.
func RuleBass(harmony models.Harmony) models.Bass {
	notes := make([]models.Note, 0, len(harmony.Chords))
	for _, c := range harmony.Chords {
		notes = append(notes, models.Note{
			Pitch:     max(c.Root-12, models.MinPitch),
			Velocity:  bassVelocity,
			Duration:  c.Duration,
			StartTime: c.StartTime,
		})
	}
	return models.Bass{Notes: notes, Style: harmony.Style}
}

// RuleDrums loops a four-beat groove for every complete group of four melody
// notes: hi-hat on each beat, kick on 1 and 3, snare on 2 and 4.
func RuleDrums(melody models.Melody, tempo int, style string) (models.Drums, error) {
	if tempo <= 0 {
		return models.Drums{}, fmt.Errorf("%w, got %d", midi.ErrNonPositiveTempo, tempo)
	}

	beat := 60.0 / float64(tempo)
	bars := len(melody.Notes) / beatsPerBar

	notes := make([]models.Note, 0, bars*8)
	for bar := 0; bar < bars; bar++ {
		for b := 0; b < beatsPerBar; b++ {
			start := float64(bar*beatsPerBar+b) * beat
			for _, v := range rulePattern {
				if !slices.Contains(v.beats, b) {
					continue
				}
				notes = append(notes, models.Note{
					Pitch:     v.pitch,
					Velocity:  v.velocity,
					Duration:  v.duration,
					StartTime: start,
					Channel:   models.DrumChannel,
				})
			}
		}
	}
	return models.Drums{Notes: notes, Style: style, Tempo: tempo}, nil
}
