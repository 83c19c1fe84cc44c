package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxMeterNumerator and MaxMeterDenominator are the largest values a Standard
// MIDI File meter event can carry.
const (
	MaxMeterNumerator   = 255
	MaxMeterDenominator = 128
)

// ErrInvalidTimeSignature is returned for meters a MIDI file cannot encode.
var ErrInvalidTimeSignature = errors.New("invalid time signature")

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Numerator, ts.Denominator)
}

// IsZero reports whether the signature was never set.
func (ts TimeSignature) IsZero() bool {
	return ts.Numerator == 0 && ts.Denominator == 0
}

// OrDefault returns 4/4 for an unset signature.
func (ts TimeSignature) OrDefault() TimeSignature {
	if ts.IsZero() {
		return DefaultTimeSignature
	}
	return ts
}

// Validate requires a numerator in 1..255 and a power-of-two denominator in 1..128.
func (ts TimeSignature) Validate() error {
	if ts.Numerator < 1 || ts.Numerator > MaxMeterNumerator {
		return fmt.Errorf("%w %s: numerator must be between 1 and %d", ErrInvalidTimeSignature, ts, MaxMeterNumerator)
	}
	d := ts.Denominator
	if d < 1 || d > MaxMeterDenominator || d&(d-1) != 0 {
		return fmt.Errorf("%w %s: denominator must be a power of two up to %d", ErrInvalidTimeSignature, ts, MaxMeterDenominator)
	}
	return nil
}

func (ts TimeSignature) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{ts.Numerator, ts.Denominator})
}

func (ts *TimeSignature) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("time signature must be [numerator, denominator]: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("time signature must have 2 elements, got %d", len(pair))
	}
	parsed := TimeSignature{Numerator: pair[0], Denominator: pair[1]}
	if err := parsed.Validate(); err != nil {
		return err
	}
	*ts = parsed
	return nil
}
