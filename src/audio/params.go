package audio

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// ----- Atomic Float ----- //

type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// ----- Params ----- //

type envelopeKnobs struct {
	attack  atomicFloat
	decay   atomicFloat
	sustain atomicFloat
	release atomicFloat
}

func (k *envelopeKnobs) load() EnvelopeParams {
	return EnvelopeParams{
		Attack:  k.attack.Load(),
		Decay:   k.decay.Load(),
		Sustain: k.sustain.Load(),
		Release: k.release.Load(),
	}
}

func (k *envelopeKnobs) store(p EnvelopeParams) {
	p = p.clamped()
	k.attack.Store(p.Attack)
	k.decay.Store(p.Decay)
	k.sustain.Store(p.Sustain)
	k.release.Store(p.Release)
}

// params are written by the control side and read by the render side.
// Every knob is published on its own, so a reader may see a mix of old and
// new values while a patch is being applied, but never a torn value.
type params struct {
	volume              atomicFloat
	panning             atomicFloat
	fmDepth             atomicFloat
	fmRatioCoarse       atomicFloat
	fmRatioFine         atomicFloat
	cutoff              atomicFloat
	resonance           atomicFloat
	filterEnvelopeDepth atomicFloat
	octave              atomic.Int32
	envelopes           [numEnvelopeKinds]envelopeKnobs
}

// paramSnapshot is the render side's view for one block.
type paramSnapshot struct {
	fmDepth             float64
	fmRatio             float64
	cutoff              float64
	resonance           float64
	filterEnvelopeDepth float64
	envelopes           [numEnvelopeKinds]EnvelopeParams
}

func (p *params) snapshot(dst *paramSnapshot) {
	dst.fmDepth = p.fmDepth.Load()
	dst.fmRatio = p.fmRatioCoarse.Load() + p.fmRatioFine.Load()
	dst.cutoff = p.cutoff.Load()
	dst.resonance = p.resonance.Load()
	dst.filterEnvelopeDepth = p.filterEnvelopeDepth.Load()
	for i := range p.envelopes {
		dst.envelopes[i] = p.envelopes[i].load()
	}
}

// ----- Knobs ----- //

// SetVolume stores the master volume, [0, 1]. The render does not apply it.
func (s *Synth) SetVolume(v float64) { s.params.volume.Store(clamp(v, 0, 1)) }

// SetPanning stores the pan position, [-1, 1]. The mono render ignores it.
func (s *Synth) SetPanning(v float64) { s.params.panning.Store(clamp(v, -1, 1)) }

// SetFMDepth sets the modulation index at full FM envelope, [0, 16].
func (s *Synth) SetFMDepth(v float64) { s.params.fmDepth.Store(clamp(v, 0, 16)) }

// SetFMRatioCoarse sets the modulator/carrier ratio, [0.125, 8], truncated to
// a multiple of 0.1.
func (s *Synth) SetFMRatioCoarse(v float64) {
	v = clamp(v, 0.125, 8)
	s.params.fmRatioCoarse.Store(math.Floor(v*10+1e-9) / 10)
}

// SetFMRatioFine sets the offset added to the coarse ratio, [-0.1, 0.1].
func (s *Synth) SetFMRatioFine(v float64) { s.params.fmRatioFine.Store(clamp(v, -0.1, 0.1)) }

// SetCutoff sets the base filter coefficient, [0, 0.12].
func (s *Synth) SetCutoff(v float64) { s.params.cutoff.Store(clamp(v, 0, 0.12)) }

// SetResonance sets the filter feedback, [0, 2].
func (s *Synth) SetResonance(v float64) { s.params.resonance.Store(clamp(v, 0, 2)) }

// SetFilterEnvelopeDepth sets how far the filter envelope opens the cutoff,
// [0, 0.1].
func (s *Synth) SetFilterEnvelopeDepth(v float64) {
	s.params.filterEnvelopeDepth.Store(clamp(v, 0, 0.1))
}

// SetEnvelope replaces the shared ADSR of one envelope kind.
func (s *Synth) SetEnvelope(kind EnvelopeKind, p EnvelopeParams) {
	if kind < 0 || kind >= numEnvelopeKinds {
		return
	}
	s.params.envelopes[kind].store(p)
}

// Envelope returns the shared ADSR of one envelope kind.
func (s *Synth) Envelope(kind EnvelopeKind) EnvelopeParams {
	if kind < 0 || kind >= numEnvelopeKinds {
		return EnvelopeParams{}
	}
	return s.params.envelopes[kind].load()
}

// SetOctave sets the octave used by NoteOn, clamped to [-2, 8].
func (s *Synth) SetOctave(octave int) int {
	octave = clampInt(octave, minOctave, maxOctave)
	s.params.octave.Store(int32(octave))
	return octave
}

// ShiftOctave moves the octave by delta and returns the clamped result.
func (s *Synth) ShiftOctave(delta int) int {
	for {
		old := s.params.octave.Load()
		next := int32(clampInt(int(old)+delta, minOctave, maxOctave))
		if s.params.octave.CompareAndSwap(old, next) {
			return int(next)
		}
	}
}

// Octave ...
func (s *Synth) Octave() int {
	return int(s.params.octave.Load())
}

func (s *Synth) set(key string, value string) error {
	if key == "octave" {
		octave, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.SetOctave(octave)
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "volume":
		s.SetVolume(v)
	case "panning":
		s.SetPanning(v)
	case "fm_depth":
		s.SetFMDepth(v)
	case "fm_ratio_coarse":
		s.SetFMRatioCoarse(v)
	case "fm_ratio_fine":
		s.SetFMRatioFine(v)
	case "cutoff":
		s.SetCutoff(v)
	case "resonance":
		s.SetResonance(v)
	case "filter_envelope_depth":
		s.SetFilterEnvelopeDepth(v)
	default:
		return fmt.Errorf("unknown parameter %q", key)
	}
	return nil
}

func (s *Synth) setEnvelope(kindName string, key string, value string) error {
	kind, err := envelopeKindFromString(kindName)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	s.paramMu.Lock()
	defer s.paramMu.Unlock()
	p := s.Envelope(kind)
	switch key {
	case "attack":
		p.Attack = v
	case "decay":
		p.Decay = v
	case "sustain":
		p.Sustain = v
	case "release":
		p.Release = v
	default:
		return fmt.Errorf("unknown envelope parameter %q", key)
	}
	s.SetEnvelope(kind, p)
	return nil
}
