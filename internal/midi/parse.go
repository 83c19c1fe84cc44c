package midi

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Conceptual-Machines/merlai/internal/models"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type noteKey struct {
	channel uint8
	pitch   uint8
}

type pendingNote struct {
	tick     uint32
	velocity uint8
}

// ParseMIDIFile reads a Standard MIDI File back into a Song. The first tempo
// event found sets the song tempo (120 when absent). Chunks that carry
// neither notes nor a name are treated as conductor tracks and skipped.
func ParseMIDIFile(data []byte) (*models.Song, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to parse MIDI file: empty input")
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI file: %w", err)
	}

	resolution := uint32(TicksPerQuarter)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		resolution = uint32(mt)
	}

	song := &models.Song{
		Tempo:         models.DefaultTempo,
		Key:           models.DefaultKey,
		TimeSignature: models.DefaultTimeSignature,
	}

	// Tempo has to be known before any tick can be converted.
	bpm, meter := readConductor(s.Tracks)
	if bpm > 0 {
		song.Tempo = int(bpm + 0.5)
	} else {
		bpm = float64(models.DefaultTempo)
	}
	if !meter.IsZero() {
		song.TimeSignature = meter
	}

	for _, raw := range s.Tracks {
		track, ok := readTrack(raw, bpm, resolution)
		if !ok {
			continue
		}
		song.Tracks = append(song.Tracks, track)
	}

	song.Duration = song.ComputeDuration()
	return song, nil
}

func readConductor(tracks []smf.Track) (float64, models.TimeSignature) {
	var (
		bpm      float64
		meter    models.TimeSignature
		foundBPM bool
		foundTS  bool
	)
	for _, track := range tracks {
		for _, ev := range track {
			var tempo float64
			if !foundBPM && ev.Message.GetMetaTempo(&tempo) {
				bpm, foundBPM = tempo, true
			}
			var num, denom uint8
			if !foundTS && ev.Message.GetMetaMeter(&num, &denom) {
				meter = models.TimeSignature{Numerator: int(num), Denominator: int(denom)}
				foundTS = true
			}
			if foundBPM && foundTS {
				return bpm, meter
			}
		}
	}
	return bpm, meter
}

func readTrack(raw smf.Track, bpm float64, resolution uint32) (models.Track, bool) {
	track := models.Track{}
	pending := make(map[noteKey][]pendingNote)
	channelSet := false

	var absTick uint32
	for _, ev := range raw {
		absTick += ev.Delta

		var name string
		if track.Name == "" && ev.Message.GetMetaTrackName(&name) {
			track.Name = name
			continue
		}

		msg := gomidi.Message(ev.Message)

		var ch, program uint8
		if msg.GetProgramChange(&ch, &program) {
			track.Instrument = int(program)
			if !channelSet {
				track.Channel, channelSet = int(ch), true
			}
			continue
		}

		var key, vel uint8
		switch {
		case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
			k := noteKey{channel: ch, pitch: key}
			pending[k] = append(pending[k], pendingNote{tick: absTick, velocity: vel})
			if !channelSet {
				track.Channel, channelSet = int(ch), true
			}
		case msg.GetNoteOff(&ch, &key, &vel), msg.GetNoteOn(&ch, &key, &vel):
			k := noteKey{channel: ch, pitch: key}
			queue := pending[k]
			if len(queue) == 0 {
				continue
			}
			start := queue[0]
			pending[k] = queue[1:]
			track.Notes = append(track.Notes, toNote(k, start, absTick, bpm, resolution))
		}
	}

	// Notes left open run to the end of the chunk.
	for k, queue := range pending {
		for _, start := range queue {
			track.Notes = append(track.Notes, toNote(k, start, absTick, bpm, resolution))
		}
	}

	sort.SliceStable(track.Notes, func(i, j int) bool {
		if track.Notes[i].StartTime != track.Notes[j].StartTime {
			return track.Notes[i].StartTime < track.Notes[j].StartTime
		}
		return track.Notes[i].Pitch < track.Notes[j].Pitch
	})

	if len(track.Notes) == 0 && track.Name == "" {
		return models.Track{}, false
	}
	return track, true
}

func toNote(k noteKey, start pendingNote, endTick uint32, bpm float64, resolution uint32) models.Note {
	length := endTick - start.tick
	if length == 0 {
		length = 1
	}
	return models.Note{
		Pitch:     int(k.pitch),
		Velocity:  int(start.velocity),
		Duration:  ticksToSeconds(length, bpm, resolution),
		StartTime: ticksToSeconds(start.tick, bpm, resolution),
		Channel:   int(k.channel),
	}
}
