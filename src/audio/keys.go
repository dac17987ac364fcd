package audio

import "math"

// Key identifies a key of the input device. Printable keys use their rune.
type Key rune

// KeyNone marks voices started without a key, e.g. from MIDI input.
const KeyNone Key = 0

// Keys of the two-row piano layout, lowest note first.
var keyNotes = map[Key]int{
	'a':  24,
	'w':  25,
	's':  26,
	'e':  27,
	'd':  28,
	'f':  29,
	't':  30,
	'g':  31,
	'y':  32,
	'h':  33,
	'u':  34,
	'j':  35,
	'k':  36,
	'o':  37,
	'l':  38,
	'p':  39,
	';':  40,
	'\'': 41,
}

const (
	minOctave     = -2
	maxOctave     = 8
	DefaultOctave = 4
)

// KeyToMIDI maps key to a MIDI note, transposed by whole octaves.
// ok is false for keys outside the layout.
func KeyToMIDI(key Key, octave int) (note int, ok bool) {
	base, ok := keyNotes[key]
	if !ok {
		return -1, false
	}
	return base + 12*octave, true
}

// MIDIToFrequency converts a MIDI note to Hz with A4 (69) at 440 Hz.
func MIDIToFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
