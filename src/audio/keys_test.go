package audio

import (
	"testing"
)

func TestKeyToMIDI(t *testing.T) {
	note, ok := KeyToMIDI('a', 4)
	expectEqual(t, ok, true)
	expectEqual(t, note, 72)

	note, ok = KeyToMIDI('\'', 0)
	expectEqual(t, ok, true)
	expectEqual(t, note, 41)

	note, ok = KeyToMIDI('a', -2)
	expectEqual(t, ok, true)
	expectEqual(t, note, 0)

	for octave := minOctave; octave <= maxOctave; octave++ {
		for _, key := range []Key{'1', 'z', 'x', 'q', ' ', KeyNone, 'A'} {
			note, ok := KeyToMIDI(key, octave)
			expectEqual(t, ok, false)
			expectEqual(t, note, -1)
		}
	}
}

func TestKeyLayoutIsChromatic(t *testing.T) {
	layout := "awsedftgyhujkolp;'"
	for i, r := range layout {
		note, ok := KeyToMIDI(Key(r), 0)
		expectEqual(t, ok, true)
		expectEqual(t, note, 24+i)
	}
	expectEqual(t, len(keyNotes), len(layout))
}

func TestMIDIToFrequency(t *testing.T) {
	expectNearlyEqual(t, MIDIToFrequency(69), 440)
	expectNearlyEqual(t, MIDIToFrequency(81), 880)
	expectNearlyEqual(t, MIDIToFrequency(57), 220)
	expectNearlyEqual(t, MIDIToFrequency(60), 261.6256)
}
