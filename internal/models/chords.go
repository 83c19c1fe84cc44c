package models

import (
	"strings"
)

// Chord qualities understood by Chord.Pitches. Symbol spellings such as "m",
// "m7", "maj7", "dim" or "sus4" are accepted as well.
const (
	ChordTypeDiminished  = "diminished"
	ChordTypeAugmented   = "augmented"
	ChordTypeSus2        = "sus2"
	ChordTypeSus4        = "sus4"
	ChordTypeDominant7   = "7"
	ChordTypeMajor7      = "maj7"
	ChordTypeMinor7      = "m7"
	ChordTypeDiminished7 = "dim7"
)

// ChordTypes lists the canonical chord type names.
func ChordTypes() []string {
	return []string{
		ChordTypeMajor, ChordTypeMinor, ChordTypeDiminished, ChordTypeAugmented,
		ChordTypeSus2, ChordTypeSus4, ChordTypeDominant7, ChordTypeMajor7,
		ChordTypeMinor7, ChordTypeDiminished7,
	}
}

var triads = map[string][]int{
	ChordTypeMajor:      {0, 4, 7},
	ChordTypeMinor:      {0, 3, 7},
	ChordTypeDiminished: {0, 3, 6},
	ChordTypeAugmented:  {0, 4, 8},
	ChordTypeSus2:       {0, 2, 7},
	ChordTypeSus4:       {0, 5, 7},
}

// qualityPrefixes are matched in order against the lower-cased chord type.
// Longer spellings come first so "minor" is not read as "min" plus "or".
// keep leaves the prefix in place for the extension parser ("maj7").
var qualityPrefixes = []struct {
	prefix  string
	quality string
	keep    bool
}{
	{"major", ChordTypeMajor, true},
	{"minor", ChordTypeMinor, false},
	{"diminished", ChordTypeDiminished, false},
	{"augmented", ChordTypeAugmented, false},
	{"dominant", ChordTypeMajor, false},
	{"maj", ChordTypeMajor, true},
	{"min", ChordTypeMinor, false},
	{"dim", ChordTypeDiminished, false},
	{"aug", ChordTypeAugmented, false},
	{"dom", ChordTypeMajor, false},
	{"sus2", ChordTypeSus2, false},
	{"sus4", ChordTypeSus4, false},
	{"sus", ChordTypeSus4, false},
	{"+", ChordTypeAugmented, false},
}

// ParseChordType splits a chord type into its base triad quality and the
// extension text that follows it. ok is false when the type is not understood.
func ParseChordType(chordType string) (quality, extension string, ok bool) {
	s := strings.TrimSpace(chordType)
	if s == "" {
		return ChordTypeMajor, "", true
	}

	quality = ChordTypeMajor
	rest := strings.ToLower(s)

	// Case matters for the one-letter forms: "M7" is major seventh, "m7" minor.
	switch {
	case s[0] == 'M' && (len(s) == 1 || !isLetter(s[1])):
		rest = "maj" + s[1:]
	case s[0] == 'm' && (len(s) == 1 || !isLetter(s[1])):
		quality, rest = ChordTypeMinor, strings.ToLower(s[1:])
	default:
		for _, q := range qualityPrefixes {
			if strings.HasPrefix(rest, q.prefix) {
				quality = q.quality
				if !q.keep {
					rest = rest[len(q.prefix):]
				}
				break
			}
		}
	}

	extension = normalizeExtension(rest)
	if extension != "" && extensionIntervals(quality, extension) == nil {
		return ChordTypeMajor, "", false
	}
	return quality, extension, true
}

// IsKnownChordType reports whether Chord.Pitches can voice the chord type.
func IsKnownChordType(chordType string) bool {
	_, _, ok := ParseChordType(chordType)
	return ok
}

// ChordIntervals returns the semitone offsets above the root for a chord type.
// Unknown types fall back to a major triad.
func ChordIntervals(chordType string) []int {
	quality, extension, _ := ParseChordType(chordType)
	base := triads[quality]
	out := make([]int, len(base), len(base)+3)
	copy(out, base)
	return append(out, extensionIntervals(quality, extension)...)
}

func normalizeExtension(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "-"))
}

// extensionIntervals maps the extension text to added intervals. Plain 9, 11
// and 13 imply the seventh; the "add" forms do not. nil means not understood.
func extensionIntervals(quality, ext string) []int {
	if ext == "" {
		return []int{}
	}

	seventh := 10
	if quality == ChordTypeDiminished {
		seventh = 9
	}
	switch {
	case strings.HasPrefix(ext, "major"):
		seventh, ext = 11, ext[len("major"):]
	case strings.HasPrefix(ext, "maj"):
		seventh, ext = 11, ext[len("maj"):]
	}
	if ext == "" {
		return []int{}
	}
	add := strings.HasPrefix(ext, "add")
	ext = strings.TrimPrefix(ext, "add")

	switch ext {
	case "6":
		return []int{9}
	case "7":
		if add {
			return nil
		}
		return []int{seventh}
	case "9":
		if add {
			return []int{14}
		}
		return []int{seventh, 14}
	case "11":
		if add {
			return []int{17}
		}
		return []int{seventh, 14, 17}
	case "13":
		if add {
			return []int{21}
		}
		return []int{seventh, 14, 21}
	}
	return nil
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
