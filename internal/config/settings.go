package config

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// UpdateError is returned by Settings.Update. Unknown reports whether the
// failure was an unknown key rather than a value of the wrong type.
type UpdateError struct {
	Unknown bool
	Message string
}

func (e *UpdateError) Error() string { return e.Message }

type settingKind int

const (
	kindNumber settingKind = iota
	kindInteger
)

var settingKinds = map[string]settingKind{
	"temperature":        kindNumber,
	"top_p":              kindNumber,
	"repetition_penalty": kindNumber,
	"max_length":         kindInteger,
	"batch_size":         kindInteger,
	"top_k":              kindInteger,
}

// Settings holds the generation parameters that can be changed at runtime.
type Settings struct {
	mu     sync.RWMutex
	params GenerationParams
}

func NewSettings(params GenerationParams) *Settings {
	return &Settings{params: params}
}

// Params returns a copy of the current parameters.
func (s *Settings) Params() GenerationParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Snapshot returns the tunable parameters keyed by name.
func (s *Settings) Snapshot() map[string]any {
	return s.Params().Sampling()
}

// Update applies a partial update decoded from JSON. Every key is checked
// before anything is applied.
func (s *Settings) Update(update map[string]any) (map[string]any, error) {
	var unknown []string
	for key := range update {
		if _, ok := settingKinds[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UpdateError{
			Unknown: true,
			Message: fmt.Sprintf("Invalid configuration keys: [%s]", strings.Join(unknown, ", ")),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.params
	for key, value := range update {
		f, ok := value.(float64)
		if !ok {
			expected := "number"
			if settingKinds[key] == kindInteger {
				expected = "integer"
			}
			return nil, &UpdateError{Message: fmt.Sprintf("Invalid type for %s: expected %s, got %T", key, expected, value)}
		}
		if settingKinds[key] == kindInteger && f != math.Trunc(f) {
			return nil, &UpdateError{Message: fmt.Sprintf("Invalid type for %s: expected integer, got %v", key, f)}
		}

		switch key {
		case "temperature":
			next.Temperature = f
		case "top_p":
			next.TopP = f
		case "repetition_penalty":
			next.RepetitionPenalty = f
		case "max_length":
			next.MaxLength = int(f)
		case "batch_size":
			next.BatchSize = int(f)
		case "top_k":
			next.TopK = int(f)
		}
	}

	if err := next.Validate(); err != nil {
		return nil, &UpdateError{Message: err.Error()}
	}
	s.params = next
	return next.Sampling(), nil
}
