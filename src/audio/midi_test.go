package audio

import (
	"errors"
	"testing"
)

func TestFirstMidiIn(t *testing.T) {
	_, err := firstMidiIn(nil)
	expectEqual(t, errors.Is(err, errNoMidiIn), true)
}

func TestAddMidiEvent(t *testing.T) {
	s := NewSynth(testRate)
	s.AddMidiEvent([]byte{0x90, 60, 100})
	s.AddMidiEvent([]byte{0x91, 64, 100})
	expectEqual(t, s.ActiveVoices(), 2)
	expectEqual(t, s.pool.voices[0].note, 60)
	expectEqual(t, s.pool.voices[0].key, KeyNone)

	s.AddMidiEvent([]byte{0x80, 60, 0})
	expectEqual(t, s.pool.voices[0].held, false)

	s.AddMidiEvent([]byte{0x90, 64, 0})
	expectEqual(t, s.pool.voices[1].held, false)

	// control change, short messages
	s.AddMidiEvent([]byte{0xB0, 7, 100})
	s.AddMidiEvent([]byte{0x90, 60})
	s.AddMidiEvent(nil)
	expectEqual(t, s.ActiveVoices(), 2)
}
