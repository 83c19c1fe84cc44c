// Package midi converts songs and note lists to Standard MIDI Files and back.
package midi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Conceptual-Machines/merlai/internal/models"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// TicksPerQuarter is the file resolution used for every file we write.
	TicksPerQuarter = smf.MetricTicks(480)

	// MergeTempo is the tempo used by MergeTracks regardless of the tracks' origin.
	MergeTempo = 120

	secondsPerMinute = 60.0
	minNoteVelocity  = 1
)

// ErrNonPositiveTempo is returned when a file is requested with tempo <= 0.
var ErrNonPositiveTempo = errors.New("tempo must be positive")

// ErrNonPositiveGrid is returned by QuantizeNotes for grid sizes <= 0.
var ErrNonPositiveGrid = errors.New("grid size must be positive")

// CreateMIDIFile writes one track chunk per song track. Tempo and meter are
// written once, at tick 0 of the first chunk. Notes are written on their
// track's channel.
func CreateMIDIFile(song models.Song) ([]byte, error) {
	return writeSong(song, false)
}

// writeSong encodes song. With perNoteChannels each note keeps its own
// channel instead of taking the track's.
func writeSong(song models.Song, perNoteChannels bool) ([]byte, error) {
	if song.Tempo <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrNonPositiveTempo, song.Tempo)
	}
	for _, t := range song.Tracks {
		if err := models.ValidateNotes(t.Notes); err != nil {
			return nil, fmt.Errorf("track %q: %w", t.Name, err)
		}
	}

	s := smf.New()
	s.TimeFormat = TicksPerQuarter

	bpm := float64(song.Tempo)
	ts := song.TimeSignature.OrDefault()
	if err := ts.Validate(); err != nil {
		return nil, err
	}

	if len(song.Tracks) == 0 {
		var conductor smf.Track
		addConductorEvents(&conductor, bpm, ts)
		conductor.Close(0)
		if err := s.Add(conductor); err != nil {
			return nil, fmt.Errorf("failed to add conductor track: %w", err)
		}
	}

	for i, t := range song.Tracks {
		track := buildTrack(t, bpm, ts, i == 0, perNoteChannels)
		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add track %q: %w", t.Name, err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI file: %w", err)
	}
	return buf.Bytes(), nil
}

// CreateMIDIFromNotes writes the notes as a single track. Every note is
// written on its own channel; the program change goes to the first note's.
func CreateMIDIFromNotes(notes []models.Note, tempo int) ([]byte, error) {
	channel := 0
	if len(notes) > 0 {
		channel = notes[0].Channel
	}
	song := models.Song{
		Tracks:        []models.Track{{Name: "Track 1", Notes: notes, Channel: channel}},
		Tempo:         tempo,
		Key:           models.DefaultKey,
		TimeSignature: models.DefaultTimeSignature,
	}
	return writeSong(song, true)
}

// MergeTracks writes pre-built tracks into one file at a fixed 120 BPM.
// Identical input always yields identical bytes.
func MergeTracks(tracks []models.Track) ([]byte, error) {
	return CreateMIDIFile(models.Song{
		Tracks:        tracks,
		Tempo:         MergeTempo,
		Key:           models.DefaultKey,
		TimeSignature: models.DefaultTimeSignature,
	})
}

type timedEvent struct {
	tick uint32
	// note-offs sort before note-ons on the same tick
	rank int
	msg  []byte
}

func addConductorEvents(track *smf.Track, bpm float64, ts models.TimeSignature) {
	track.Add(0, smf.MetaTempo(bpm))
	track.Add(0, smf.MetaMeter(uint8(ts.Numerator), uint8(ts.Denominator)))
}

func buildTrack(t models.Track, bpm float64, ts models.TimeSignature, conductor, perNoteChannels bool) smf.Track {
	var track smf.Track

	if t.Name != "" {
		track.Add(0, smf.MetaTrackSequenceName(t.Name))
	}
	if conductor {
		addConductorEvents(&track, bpm, ts)
	}

	channel := clampChannel(t.Channel)
	track.Add(0, gomidi.ProgramChange(channel, clampProgram(t.Instrument)))

	events := make([]timedEvent, 0, len(t.Notes)*2)
	for _, n := range t.Notes {
		ch := channel
		if perNoteChannels {
			ch = clampChannel(n.Channel)
		}
		start := secondsToTicks(n.StartTime, bpm)
		length := secondsToTicks(n.Duration, bpm)
		if length == 0 {
			length = 1
		}

		// A note-on with velocity 0 reads back as a note-off.
		vel := uint8(n.Velocity)
		if vel < minNoteVelocity {
			vel = minNoteVelocity
		}

		events = append(events,
			timedEvent{tick: start, rank: 1, msg: gomidi.NoteOn(ch, uint8(n.Pitch), vel)},
			timedEvent{tick: start + length, rank: 0, msg: gomidi.NoteOff(ch, uint8(n.Pitch))},
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].rank < events[j].rank
	})

	var lastTick uint32
	for _, ev := range events {
		track.Add(ev.tick-lastTick, ev.msg)
		lastTick = ev.tick
	}
	track.Close(0)

	return track
}

// secondsToTicks converts seconds to ticks at the given tempo, rounding to the nearest tick.
func secondsToTicks(seconds, bpm float64) uint32 {
	ticksPerSecond := (bpm / secondsPerMinute) * float64(TicksPerQuarter)
	return uint32(math.Round(seconds * ticksPerSecond))
}

// ticksToSeconds converts ticks to seconds at the given tempo and resolution.
func ticksToSeconds(ticks uint32, bpm float64, resolution uint32) float64 {
	ticksPerSecond := (bpm / secondsPerMinute) * float64(resolution)
	return float64(ticks) / ticksPerSecond
}

func clampChannel(ch int) uint8 {
	if ch < models.MinChannel || ch > models.MaxChannel {
		return 0
	}
	return uint8(ch)
}

func clampProgram(p int) uint8 {
	switch {
	case p < 0:
		return 0
	case p > models.MaxPitch:
		return models.MaxPitch
	default:
		return uint8(p)
	}
}
