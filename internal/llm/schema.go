package llm

import (
	"sort"

	"github.com/Conceptual-Machines/merlai/internal/models"
	"google.golang.org/genai"
)

const (
	// MIDI note number constraints
	midiNoteNumberMin = 0
	midiNoteNumberMax = 127

	// Velocity constraints
	velocityMin = 1
	velocityMax = 127
)

// OutputSchema names a JSON schema for structured model output.
type OutputSchema struct {
	Name   string
	Schema map[string]any
}

// outputSchemaFor returns the structured output schema for a generation kind.
// OpenAI strict mode requires every property to be listed in "required".
func outputSchemaFor(kind GenerationKind) OutputSchema {
	switch kind {
	case KindHarmony:
		return OutputSchema{Name: "merlai_harmony", Schema: objectSchema(map[string]any{
			"chords": map[string]any{
				"type": "array",
				"items": objectSchema(map[string]any{
					"root":       map[string]any{"type": "integer", "minimum": midiNoteNumberMin, "maximum": midiNoteNumberMax},
					"chord_type": map[string]any{"type": "string", "enum": models.ChordTypes()},
					"start_time": map[string]any{"type": "number", "minimum": 0},
					"duration":   map[string]any{"type": "number", "exclusiveMinimum": 0},
				}),
			},
		})}
	case KindBass, KindDrums:
		return OutputSchema{Name: "merlai_" + string(kind), Schema: objectSchema(map[string]any{
			"notes": map[string]any{
				"type":  "array",
				"items": noteSchema(),
			},
		})}
	default:
		return OutputSchema{Name: "merlai_analysis", Schema: objectSchema(map[string]any{
			"key":        map[string]any{"type": "string"},
			"tempo":      map[string]any{"type": "integer", "minimum": 1},
			"style":      map[string]any{"type": "string"},
			"complexity": map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
		})}
	}
}

func noteSchema() map[string]any {
	return objectSchema(map[string]any{
		"pitch":      map[string]any{"type": "integer", "minimum": midiNoteNumberMin, "maximum": midiNoteNumberMax},
		"velocity":   map[string]any{"type": "integer", "minimum": velocityMin, "maximum": velocityMax},
		"start_time": map[string]any{"type": "number", "minimum": 0},
		"duration":   map[string]any{"type": "number", "exclusiveMinimum": 0},
	})
}

func objectSchema(properties map[string]any) map[string]any {
	required := make([]string, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// geminiSchemaFor converts the output schema for a generation kind to Gemini's schema type.
func geminiSchemaFor(kind GenerationKind) *genai.Schema {
	return toGeminiSchema(outputSchemaFor(kind).Schema)
}

// toGeminiSchema maps the subset of JSON schema used here onto genai.Schema.
func toGeminiSchema(s map[string]any) *genai.Schema {
	out := &genai.Schema{}
	switch s["type"] {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "string":
		out.Type = genai.TypeString
	case "boolean":
		out.Type = genai.TypeBoolean
	}

	if enum, ok := s["enum"].([]string); ok {
		out.Enum = enum
	}
	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if ps, ok := p.(map[string]any); ok {
				out.Properties[name] = toGeminiSchema(ps)
			}
		}
	}
	if required, ok := s["required"].([]string); ok {
		out.Required = required
	}
	if items, ok := s["items"].(map[string]any); ok {
		out.Items = toGeminiSchema(items)
	}
	return out
}
