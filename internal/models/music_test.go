package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNote(t *testing.T) {
	tests := []struct {
		name      string
		pitch     int
		velocity  int
		duration  float64
		startTime float64
		channel   int
		wantField string
		wantMsg   string
	}{
		{name: "valid middle C", pitch: 60, velocity: 80, duration: 1.0},
		{name: "lower bounds", pitch: 0, velocity: 0, duration: 0.001, startTime: 0, channel: 0},
		{name: "upper bounds", pitch: 127, velocity: 127, duration: 10, startTime: 3.5, channel: 15},
		{name: "pitch too high", pitch: 128, velocity: 80, duration: 1, wantField: "pitch", wantMsg: "Pitch must be between 0 and 127, got 128"},
		{name: "pitch negative", pitch: -1, velocity: 80, duration: 1, wantField: "pitch"},
		{name: "velocity too high", pitch: 60, velocity: 128, duration: 1, wantField: "velocity"},
		{name: "velocity negative", pitch: 60, velocity: -1, duration: 1, wantField: "velocity", wantMsg: "Velocity must be between 0 and 127, got -1"},
		{name: "zero duration", pitch: 60, velocity: 80, duration: 0, wantField: "duration", wantMsg: "Duration must be positive, got 0"},
		{name: "negative duration", pitch: 60, velocity: 80, duration: -1, wantField: "duration"},
		{name: "negative start", pitch: 60, velocity: 80, duration: 1, startTime: -0.5, wantField: "start_time"},
		{name: "channel too high", pitch: 60, velocity: 80, duration: 1, channel: 16, wantField: "channel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNote(tt.pitch, tt.velocity, tt.duration, tt.startTime, tt.channel)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.pitch, n.Pitch)
				assert.Equal(t, tt.velocity, n.Velocity)
				return
			}

			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestValidateNotes(t *testing.T) {
	notes := []Note{
		MustNote(60, 80, 1, 0),
		{Pitch: 200, Velocity: 80, Duration: 1},
	}
	err := ValidateNotes(notes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "note 1")
	assert.NoError(t, ValidateNotes(notes[:1]))
}

func TestChordPitches(t *testing.T) {
	tests := []struct {
		name  string
		chord Chord
		want  []int
	}{
		{name: "major triad", chord: Chord{Root: 60, ChordType: ChordTypeMajor}, want: []int{60, 64, 67}},
		{name: "empty type is major", chord: Chord{Root: 62}, want: []int{62, 66, 69}},
		{name: "minor triad", chord: Chord{Root: 57, ChordType: ChordTypeMinor}, want: []int{57, 60, 64}},
		{name: "minor symbol", chord: Chord{Root: 57, ChordType: "m"}, want: []int{57, 60, 64}},
		{name: "diminished triad", chord: Chord{Root: 60, ChordType: ChordTypeDiminished}, want: []int{60, 63, 66}},
		{name: "dim symbol", chord: Chord{Root: 60, ChordType: "dim"}, want: []int{60, 63, 66}},
		{name: "augmented triad", chord: Chord{Root: 60, ChordType: ChordTypeAugmented}, want: []int{60, 64, 68}},
		{name: "sus2", chord: Chord{Root: 60, ChordType: ChordTypeSus2}, want: []int{60, 62, 67}},
		{name: "sus4", chord: Chord{Root: 60, ChordType: ChordTypeSus4}, want: []int{60, 65, 67}},
		{name: "dominant seventh", chord: Chord{Root: 60, ChordType: ChordTypeDominant7}, want: []int{60, 64, 67, 70}},
		{name: "major seventh", chord: Chord{Root: 60, ChordType: ChordTypeMajor7}, want: []int{60, 64, 67, 71}},
		{name: "major seventh capital M", chord: Chord{Root: 60, ChordType: "M7"}, want: []int{60, 64, 67, 71}},
		{name: "minor seventh", chord: Chord{Root: 57, ChordType: ChordTypeMinor7}, want: []int{57, 60, 64, 67}},
		{name: "min7 spelling", chord: Chord{Root: 57, ChordType: "min7"}, want: []int{57, 60, 64, 67}},
		{name: "diminished seventh", chord: Chord{Root: 59, ChordType: ChordTypeDiminished7}, want: []int{59, 62, 65, 68}},
		{name: "dominant ninth", chord: Chord{Root: 48, ChordType: "9"}, want: []int{48, 52, 55, 58, 62}},
		{name: "add9 has no seventh", chord: Chord{Root: 48, ChordType: "add9"}, want: []int{48, 52, 55, 62}},
		{name: "unknown type falls back to major", chord: Chord{Root: 60, ChordType: "lydian"}, want: []int{60, 64, 67}},
		{name: "explicit voicing wins", chord: Chord{Root: 60, ChordType: ChordTypeMajor, Voicing: []int{48, 64, 67, 72}}, want: []int{48, 64, 67, 72}},
		{name: "out of range dropped", chord: Chord{Root: 125, ChordType: ChordTypeMajor}, want: []int{125}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.chord.Pitches())
		})
	}
}

func TestSongDuration(t *testing.T) {
	song := NewSong([]Track{
		{Name: "a", Notes: []Note{MustNote(60, 80, 0.5, 0), MustNote(62, 80, 0.5, 1.5)}},
		{Name: "b", Notes: []Note{MustNote(40, 80, 3, 0)}},
	}, 120, "C")

	assert.InDelta(t, 3.0, song.Duration, 1e-9)
	assert.Equal(t, DefaultTimeSignature, song.TimeSignature)
}

func TestTimeSignatureJSON(t *testing.T) {
	var m Melody
	err := json.Unmarshal([]byte(`{"notes":[],"tempo":90,"key":"G","time_signature":[3,4]}`), &m)
	require.NoError(t, err)
	assert.Equal(t, TimeSignature{Numerator: 3, Denominator: 4}, m.TimeSignature)
	assert.Equal(t, "3/4", m.TimeSignature.String())

	out, err := json.Marshal(m.TimeSignature)
	require.NoError(t, err)
	assert.JSONEq(t, `[3,4]`, string(out))

	err = json.Unmarshal([]byte(`{"time_signature":[3]}`), &m)
	assert.Error(t, err)
}

func TestParseChordType(t *testing.T) {
	tests := []struct {
		input       string
		wantQuality string
		wantOK      bool
	}{
		{input: "", wantQuality: ChordTypeMajor, wantOK: true},
		{input: "major", wantQuality: ChordTypeMajor, wantOK: true},
		{input: "Minor", wantQuality: ChordTypeMinor, wantOK: true},
		{input: "m7", wantQuality: ChordTypeMinor, wantOK: true},
		{input: "maj7", wantQuality: ChordTypeMajor, wantOK: true},
		{input: "dim7", wantQuality: ChordTypeDiminished, wantOK: true},
		{input: "aug", wantQuality: ChordTypeAugmented, wantOK: true},
		{input: "sus", wantQuality: ChordTypeSus4, wantOK: true},
		{input: "13", wantQuality: ChordTypeMajor, wantOK: true},
		{input: "lydian", wantQuality: ChordTypeMajor, wantOK: false},
		{input: "m7b5", wantQuality: ChordTypeMajor, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			quality, _, ok := ParseChordType(tt.input)
			assert.Equal(t, tt.wantQuality, quality)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOK, IsKnownChordType(tt.input))
		})
	}

	for _, ct := range ChordTypes() {
		assert.True(t, IsKnownChordType(ct), ct)
	}
}

func TestTimeSignatureValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "common time", input: `[4,4]`},
		{name: "compound", input: `[12,8]`},
		{name: "max numerator", input: `[255,1]`},
		{name: "numerator overflow", input: `[300,4]`, wantErr: true},
		{name: "denominator not power of two", input: `[4,3]`, wantErr: true},
		{name: "denominator overflow", input: `[4,256]`, wantErr: true},
		{name: "zero", input: `[0,4]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts TimeSignature
			err := json.Unmarshal([]byte(tt.input), &ts)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTimeSignature)
				assert.True(t, ts.IsZero(), "a rejected value leaves the target untouched")
				return
			}
			require.NoError(t, err)
			assert.NoError(t, ts.Validate())
		})
	}
}
