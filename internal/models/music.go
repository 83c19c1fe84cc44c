package models

import "fmt"

const (
	MinPitch    = 0
	MaxPitch    = 127
	MinVelocity = 0
	MaxVelocity = 127
	MinChannel  = 0
	MaxChannel  = 15

	DefaultTempo = 120
	DefaultKey   = "C"
	DefaultStyle = "pop"

	// DrumChannel is the General MIDI percussion channel (10, zero-based).
	DrumChannel = 9

	ChordTypeMajor = "major"
	ChordTypeMinor = "minor"
)

// DefaultTimeSignature is 4/4.
var DefaultTimeSignature = TimeSignature{Numerator: 4, Denominator: 4}

// ValidationError reports a note or chord field outside its allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TimeSignature is encoded as [numerator, denominator] on the wire.
type TimeSignature struct {
	Numerator   int
	Denominator int
}

// Note represents a single musical note with timing in seconds
type Note struct {
	Pitch     int     `json:"pitch"`
	Velocity  int     `json:"velocity"`
	Duration  float64 `json:"duration"`
	StartTime float64 `json:"start_time"`
	Channel   int     `json:"channel"`
}

// NewNote builds a note and fails on the first field outside its range.
func NewNote(pitch, velocity int, duration, startTime float64, channel int) (Note, error) {
	n := Note{
		Pitch:     pitch,
		Velocity:  velocity,
		Duration:  duration,
		StartTime: startTime,
		Channel:   channel,
	}
	if err := n.Validate(); err != nil {
		return Note{}, err
	}
	return n, nil
}

// MustNote is NewNote for literals known to be valid. It panics otherwise.
func MustNote(pitch, velocity int, duration, startTime float64) Note {
	n, err := NewNote(pitch, velocity, duration, startTime, 0)
	if err != nil {
		panic(err)
	}
	return n
}

// Validate checks every field of the note.
func (n Note) Validate() error {
	if n.Pitch < MinPitch || n.Pitch > MaxPitch {
		return newValidationError("pitch", "Pitch must be between 0 and 127, got %d", n.Pitch)
	}
	if n.Velocity < MinVelocity || n.Velocity > MaxVelocity {
		return newValidationError("velocity", "Velocity must be between 0 and 127, got %d", n.Velocity)
	}
	if n.Duration <= 0 {
		return newValidationError("duration", "Duration must be positive, got %g", n.Duration)
	}
	if n.StartTime < 0 {
		return newValidationError("start_time", "Start time must be non-negative, got %g", n.StartTime)
	}
	if n.Channel < MinChannel || n.Channel > MaxChannel {
		return newValidationError("channel", "Channel must be between 0 and 15, got %d", n.Channel)
	}
	return nil
}

// End returns the time at which the note stops sounding.
func (n Note) End() float64 {
	return n.StartTime + n.Duration
}

// ValidateNotes returns the first invalid note's error, annotated with its index.
func ValidateNotes(notes []Note) error {
	for i, n := range notes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
	}
	return nil
}

// Chord is a chord event. Voicing, when set, overrides the chord derived from Root and ChordType.
type Chord struct {
	Root      int     `json:"root"`
	ChordType string  `json:"chord_type"`
	Duration  float64 `json:"duration"`
	StartTime float64 `json:"start_time"`
	Voicing   []int   `json:"voicing,omitempty"`
}

// Pitches returns the explicit voicing, or the root-position chord built from
// ChordType (see ChordIntervals). Pitches above 127 are dropped.
func (c Chord) Pitches() []int {
	if len(c.Voicing) > 0 {
		out := make([]int, len(c.Voicing))
		copy(out, c.Voicing)
		return out
	}

	intervals := ChordIntervals(c.ChordType)
	out := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		if p := c.Root + iv; p <= MaxPitch {
			out = append(out, p)
		}
	}
	return out
}

// Melody is the input line the other parts are generated against.
type Melody struct {
	Notes         []Note        `json:"notes"`
	Tempo         int           `json:"tempo"`
	Key           string        `json:"key"`
	TimeSignature TimeSignature `json:"time_signature"`
}

// NewMelody returns a melody with the default tempo, key and meter.
func NewMelody(notes []Note) Melody {
	return Melody{
		Notes:         notes,
		Tempo:         DefaultTempo,
		Key:           DefaultKey,
		TimeSignature: DefaultTimeSignature,
	}
}

type Harmony struct {
	Chords []Chord `json:"chords"`
	Style  string  `json:"style"`
	Key    string  `json:"key"`
}

type Bass struct {
	Notes []Note `json:"notes"`
	Style string `json:"style"`
}

type Drums struct {
	Notes []Note `json:"notes"`
	Style string `json:"style"`
	Tempo int    `json:"tempo"`
}

// Track is a named note sequence bound to a MIDI channel and program.
type Track struct {
	Name       string `json:"name"`
	Notes      []Note `json:"notes"`
	Channel    int    `json:"channel"`
	Instrument int    `json:"instrument"`
}

type Song struct {
	Tracks        []Track       `json:"tracks"`
	Tempo         int           `json:"tempo"`
	Key           string        `json:"key"`
	TimeSignature TimeSignature `json:"time_signature"`
	Duration      float64       `json:"duration"`
}

// NewSong builds a song and computes its duration from the latest note end.
func NewSong(tracks []Track, tempo int, key string) Song {
	s := Song{
		Tracks:        tracks,
		Tempo:         tempo,
		Key:           key,
		TimeSignature: DefaultTimeSignature,
	}
	s.Duration = s.ComputeDuration()
	return s
}

// ComputeDuration returns the end time of the last sounding note.
func (s Song) ComputeDuration() float64 {
	var end float64
	for _, t := range s.Tracks {
		for _, n := range t.Notes {
			if e := n.End(); e > end {
				end = e
			}
		}
	}
	return end
}
