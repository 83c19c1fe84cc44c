package llm

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/merlai/internal/models"
	json "github.com/json-iterator/go"
)

// partPayload is the JSON shape exchanged with remote and hosted backends.
// Which fields are populated depends on the GenerationKind.
type partPayload struct {
	Chords     []chordPayload `json:"chords,omitempty"`
	Notes      []notePayload  `json:"notes,omitempty"`
	Key        string         `json:"key,omitempty"`
	Tempo      int            `json:"tempo,omitempty"`
	Style      string         `json:"style,omitempty"`
	Complexity string         `json:"complexity,omitempty"`
}

type chordPayload struct {
	Root      int     `json:"root"`
	ChordType string  `json:"chord_type"`
	Duration  float64 `json:"duration"`
	StartTime float64 `json:"start_time"`
}

type notePayload struct {
	Pitch     int     `json:"pitch"`
	Velocity  int     `json:"velocity"`
	Duration  float64 `json:"duration"`
	StartTime float64 `json:"start_time"`
}

// cleanJSONOutput strips markdown code fences some models wrap JSON in.
func cleanJSONOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// decodePart parses a backend payload into the result field for kind.
func decodePart(kind GenerationKind, data []byte, request *GenerationRequest, resp *GenerationResponse) error {
	var payload partPayload
	if err := json.Unmarshal([]byte(cleanJSONOutput(string(data))), &payload); err != nil {
		return fmt.Errorf("failed to parse model output: %w", err)
	}

	switch kind {
	case KindHarmony:
		chords := make([]models.Chord, 0, len(payload.Chords))
		for i, c := range payload.Chords {
			if c.Root < models.MinPitch || c.Root > models.MaxPitch {
				return fmt.Errorf("chord %d: root must be between 0 and 127, got %d", i, c.Root)
			}
			if c.Duration <= 0 || c.StartTime < 0 {
				return fmt.Errorf("chord %d: invalid timing (duration %g, start %g)", i, c.Duration, c.StartTime)
			}
			chords = append(chords, models.Chord{
				Root:      c.Root,
				ChordType: c.ChordType,
				Duration:  c.Duration,
				StartTime: c.StartTime,
			})
		}
		resp.Harmony = &models.Harmony{Chords: chords, Style: request.style(), Key: request.melodyFor().Key}

	case KindBass, KindDrums:
		channel := 0
		if kind == KindDrums {
			channel = models.DrumChannel
		}
		notes := make([]models.Note, 0, len(payload.Notes))
		for i, n := range payload.Notes {
			note, err := models.NewNote(n.Pitch, n.Velocity, n.Duration, n.StartTime, channel)
			if err != nil {
				return fmt.Errorf("note %d: %w", i, err)
			}
			notes = append(notes, note)
		}
		if kind == KindBass {
			resp.Bass = &models.Bass{Notes: notes, Style: request.style()}
		} else {
			resp.Drums = &models.Drums{Notes: notes, Style: request.style(), Tempo: request.tempo()}
		}

	case KindAnalysis:
		a := &Analysis{
			Key:        payload.Key,
			Tempo:      payload.Tempo,
			Style:      payload.Style,
			Complexity: payload.Complexity,
		}
		if a.Key == "" {
			a.Key = models.DefaultKey
		}
		if a.Tempo <= 0 {
			a.Tempo = models.DefaultTempo
		}
		if a.Style == "" {
			a.Style = models.DefaultStyle
		}
		if a.Complexity == "" {
			a.Complexity = "medium"
		}
		resp.Analysis = a

	default:
		return fmt.Errorf("unsupported generation kind: %s", kind)
	}
	return nil
}
