package models

import "strings"

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var noteLetters = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// KeyRoot returns the pitch class (0-11) of a key name such as "C", "F#", "Bb" or "Am".
func KeyRoot(key string) (int, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, false
	}
	pc, ok := noteLetters[strings.ToUpper(key[:1])[0]]
	if !ok {
		return 0, false
	}
	if len(key) > 1 {
		switch key[1] {
		case '#':
			pc++
		case 'b':
			pc--
		}
	}
	return (pc + 12) % 12, true
}

// IsMinorKey reports whether a key name denotes a minor key ("Am", "C#m", "D minor").
func IsMinorKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	return strings.HasSuffix(k, "m") || strings.HasSuffix(k, "min") || strings.HasSuffix(k, "minor")
}

// PitchClassName returns the sharp spelling of a pitch's class.
func PitchClassName(pitch int) string {
	return pitchClassNames[((pitch%12)+12)%12]
}
