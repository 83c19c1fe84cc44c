package config

import "fmt"

// GenerationParams are the sampling settings passed to model backends.
type GenerationParams struct {
	Temperature       float64 `mapstructure:"temperature" json:"temperature"`
	MaxLength         int     `mapstructure:"max_length" json:"max_length"`
	BatchSize         int     `mapstructure:"batch_size" json:"batch_size"`
	TopP              float64 `mapstructure:"top_p" json:"top_p"`
	TopK              int     `mapstructure:"top_k" json:"top_k"`
	RepetitionPenalty float64 `mapstructure:"repetition_penalty" json:"repetition_penalty"`

	Style string `mapstructure:"style" json:"style"`
	Key   string `mapstructure:"key" json:"key"`
	Tempo int    `mapstructure:"tempo" json:"tempo"`
}

func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:       0.8,
		MaxLength:         1024,
		BatchSize:         4,
		TopP:              0.9,
		TopK:              50,
		RepetitionPenalty: 1.1,
		Style:             "pop",
		Key:               "C",
		Tempo:             120,
	}
}

func (p GenerationParams) Validate() error {
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", p.Temperature)
	}
	if p.MaxLength <= 0 {
		return fmt.Errorf("max_length must be positive, got %d", p.MaxLength)
	}
	if p.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", p.BatchSize)
	}
	if p.TopP <= 0 || p.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1], got %g", p.TopP)
	}
	if p.TopK < 0 {
		return fmt.Errorf("top_k must be non-negative, got %d", p.TopK)
	}
	if p.RepetitionPenalty <= 0 {
		return fmt.Errorf("repetition_penalty must be positive, got %g", p.RepetitionPenalty)
	}
	if p.Tempo <= 0 {
		return fmt.Errorf("tempo must be positive, got %d", p.Tempo)
	}
	return nil
}

// Sampling returns the backend-facing subset as a parameter map.
func (p GenerationParams) Sampling() map[string]any {
	return map[string]any{
		"temperature":        p.Temperature,
		"max_length":         p.MaxLength,
		"batch_size":         p.BatchSize,
		"top_p":              p.TopP,
		"top_k":              p.TopK,
		"repetition_penalty": p.RepetitionPenalty,
	}
}
