package midi

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/merlai/internal/models"
)

// QuantizeNotes snaps start times and durations to the nearest multiple of
// grid. A duration that would round to zero is kept at one grid step.
func QuantizeNotes(notes []models.Note, grid float64) ([]models.Note, error) {
	if grid <= 0 {
		return nil, fmt.Errorf("%w, got %g", ErrNonPositiveGrid, grid)
	}

	out := make([]models.Note, len(notes))
	for i, n := range notes {
		n.StartTime = math.Round(n.StartTime/grid) * grid
		n.Duration = math.Round(n.Duration/grid) * grid
		if n.Duration <= 0 {
			n.Duration = grid
		}
		out[i] = n
	}
	return out, nil
}

// TransposeNotes shifts every pitch by semitones, saturating at 0 and 127.
func TransposeNotes(notes []models.Note, semitones int) []models.Note {
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		n.Pitch = clampPitch(n.Pitch + semitones)
		out[i] = n
	}
	return out
}

// ChordsToNotes expands each chord into one note per voiced pitch.
func ChordsToNotes(chords []models.Chord, velocity, channel int) []models.Note {
	notes := make([]models.Note, 0, len(chords)*3)
	for _, c := range chords {
		for _, p := range c.Pitches() {
			if p < models.MinPitch || p > models.MaxPitch {
				continue
			}
			notes = append(notes, models.Note{
				Pitch:     p,
				Velocity:  velocity,
				Duration:  c.Duration,
				StartTime: c.StartTime,
				Channel:   channel,
			})
		}
	}
	return notes
}

func clampPitch(p int) int {
	if p < models.MinPitch {
		return models.MinPitch
	}
	if p > models.MaxPitch {
		return models.MaxPitch
	}
	return p
}
