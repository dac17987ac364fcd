package audio

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
)

// DefaultSampleRate is the rate the default patch was voiced at.
const DefaultSampleRate = 480000

// voiceGain keeps 32 voices at full level from clipping.
const voiceGain = 0.1

var errUnknownCommand = errors.New("unknown command")

// ----- Synth ----- //

// Synth is a 32-voice FM synthesizer.
//
// NoteOn, NoteOff, ReleaseKey, Reclaim, Update and the setters belong to the
// control side and may be called from any number of goroutines. Render
// belongs to a single audio goroutine; it never takes a lock and never
// allocates.
type Synth struct {
	sampleRate float64
	params     params

	mu   sync.Mutex // guards pool.mask and the control fields of voices
	pool voicePool

	paramMu sync.Mutex // serializes read-modify-write of knobs

	// render side
	snapshot paramSnapshot
}

// NewSynth returns a synth loaded with the default patch.
func NewSynth(sampleRate int) *Synth {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	s := &Synth{sampleRate: float64(sampleRate)}
	s.ApplyPatch(DefaultPatch())
	return s
}

// SampleRate ...
func (s *Synth) SampleRate() int {
	return int(s.sampleRate)
}

// ----- Note Dispatch ----- //

// NoteOn starts a voice for key at the current octave. Keys outside the
// layout and notes arriving while all voices are busy are dropped. velocity
// is accepted for API symmetry; it does not change the sound.
func (s *Synth) NoteOn(key Key, velocity float64) (note int, ok bool) {
	note, ok = KeyToMIDI(key, s.Octave())
	if !ok {
		return -1, false
	}
	if !s.noteOn(key, note) {
		return -1, false
	}
	return note, true
}

// NoteOnNote starts a voice for a MIDI note directly.
func (s *Synth) NoteOnNote(note int, velocity float64) bool {
	if note < 0 {
		return false
	}
	return s.noteOn(KeyNone, note)
}

func (s *Synth) noteOn(key Key, note int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.pool.allocate()
	if !ok {
		return false
	}
	s.pool.voices[index].start(key, note, s.params.cutoff.Load(), s.params.resonance.Load())
	return true
}

// NoteOff releases every held voice playing note. The envelopes switch to
// release on the voice's next rendered sample.
func (s *Synth) NoteOff(note int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pool.voices {
		v := &s.pool.voices[i]
		if s.pool.inUse(i) && v.held && v.note == note {
			v.held = false
			v.releaseReq.Store(true)
		}
	}
}

// ReleaseKey releases the held voices that key started.
func (s *Synth) ReleaseKey(key Key) {
	s.mu.Lock()
	notes := make([]int, 0, 1)
	for i := range s.pool.voices {
		v := &s.pool.voices[i]
		if s.pool.inUse(i) && v.held && v.key == key && key != KeyNone {
			notes = append(notes, v.note)
		}
	}
	s.mu.Unlock()
	for _, note := range notes {
		s.NoteOff(note)
	}
}

// Reclaim returns voices whose volume envelope went idle to the pool and
// reports how many were freed. Call it regularly from the control side;
// nothing else frees voices that finished on their own.
func (s *Synth) Reclaim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.pool.voices {
		if s.pool.inUse(i) && s.pool.voices[i].slot.Load() == slotDone {
			s.pool.free(i)
			n++
		}
	}
	return n
}

// FreeVoice returns slot index to the pool regardless of its envelope.
// A slot freed while it was playing can be allocated again only after the
// next Render, so with no output running it stays unavailable.
func (s *Synth) FreeVoice(index int) {
	s.mu.Lock()
	s.pool.free(index)
	s.mu.Unlock()
}

// ActiveVoices returns the number of occupied slots.
func (s *Synth) ActiveVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.count()
}

// VoiceLevels returns each slot's volume envelope value as of the last
// rendered block.
func (s *Synth) VoiceLevels() [maxPoly]float64 {
	var levels [maxPoly]float64
	for i := range s.pool.voices {
		levels[i] = s.pool.voices[i].level.Load()
	}
	return levels
}

// ----- Render ----- //

// Render fills dst with 16-bit mono samples.
func (s *Synth) Render(dst []int16) {
	p := &s.snapshot
	s.params.snapshot(p)
	for i := range dst {
		dst[i] = toPCM(s.renderSample(p))
	}
	for i := range s.pool.voices {
		v := &s.pool.voices[i]
		level := 0.0
		if v.slot.Load() == slotLive {
			level = v.envelopes[EnvelopeVolume].value
		}
		v.level.Store(level)
	}
}

func (s *Synth) renderSample(p *paramSnapshot) float64 {
	mix := 0.0
	for i := range s.pool.voices {
		v := &s.pool.voices[i]
		switch v.slot.Load() {
		case slotLive:
		case slotKill:
			v.slot.CompareAndSwap(slotKill, slotFree)
			continue
		default:
			continue
		}
		if v.releaseReq.Load() {
			v.releaseReq.Store(false)
			for k := range v.envelopes {
				v.envelopes[k].noteOff()
			}
		}
		vol := &v.envelopes[EnvelopeVolume]
		if vol.state == StateIdle {
			v.slot.CompareAndSwap(slotLive, slotDone)
			continue
		}
		for k := range v.envelopes {
			v.envelopes[k] = advanceEnvelope(v.envelopes[k], p.envelopes[k], s.sampleRate)
		}
		fmEnv := v.envelopes[EnvelopeFM].value
		filterEnv := v.envelopes[EnvelopeFilter].value

		sample := v.osc.step(p.fmRatio, fmEnv*p.fmDepth, s.sampleRate)
		v.lpf.cutoff = clamp(p.cutoff+filterEnv*p.filterEnvelopeDepth, 0, 1)
		v.lpf.resonance = p.resonance
		sample = v.lpf.process(sample)
		mix += sample * vol.value * voiceGain
	}
	return mix
}

func toPCM(x float64) int16 {
	if math.IsNaN(x) {
		return 0
	}
	return int16(clamp(x, -1, 1) * math.MaxInt16)
}

// ----- Commands ----- //

// Update applies one control command:
//
//	set <param> <value>
//	set envelope <volume|fm|filter> <attack|decay|sustain|release> <value>
//	octave <delta>
//	note_on <key>
//	note_off <note>
//	release <key>
func (s *Synth) Update(command []string) error {
	if len(command) == 0 {
		return errUnknownCommand
	}
	switch command[0] {
	case "set":
		command = command[1:]
		if len(command) == 4 && command[0] == "envelope" {
			return s.setEnvelope(command[1], command[2], command[3])
		}
		if len(command) != 2 {
			return fmt.Errorf("invalid key-value pair %v", command)
		}
		return s.set(command[0], command[1])
	case "octave":
		if len(command) != 2 {
			return fmt.Errorf("invalid octave command %v", command)
		}
		delta, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		s.ShiftOctave(delta)
	case "note_on", "release":
		if len(command) != 2 {
			return fmt.Errorf("invalid %s command %v", command[0], command)
		}
		key, err := parseKey(command[1])
		if err != nil {
			return err
		}
		if command[0] == "note_on" {
			s.NoteOn(key, 1)
		} else {
			s.ReleaseKey(key)
		}
	case "note_off":
		if len(command) != 2 {
			return fmt.Errorf("invalid note_off command %v", command)
		}
		note, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		s.NoteOff(note)
	default:
		return fmt.Errorf("%w %q", errUnknownCommand, command[0])
	}
	return nil
}

func parseKey(s string) (Key, error) {
	r := []rune(s)
	if len(r) != 1 {
		return KeyNone, fmt.Errorf("invalid key %q", s)
	}
	return Key(r[0]), nil
}
