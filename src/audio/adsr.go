package audio

import "fmt"

// ----- Envelope State ----- //

// EnvelopeState ...
type EnvelopeState int

const (
	StateIdle EnvelopeState = iota
	StateAttack
	StateDecay
	StateSustain
	StateRelease
)

const offThreshold = 0.001

func (s EnvelopeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttack:
		return "attack"
	case StateDecay:
		return "decay"
	case StateSustain:
		return "sustain"
	case StateRelease:
		return "release"
	}
	return fmt.Sprintf("EnvelopeState(%d)", int(s))
}

// ----- ADSR Params ----- //

// EnvelopeParams holds the shared ADSR settings of one envelope kind.
// Attack, Decay and Release are in seconds, Sustain is a level in [0, 1].
type EnvelopeParams struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

func (p EnvelopeParams) clamped() EnvelopeParams {
	return EnvelopeParams{
		Attack:  clamp(p.Attack, 0.001, 10),
		Decay:   clamp(p.Decay, 0.01, 10),
		Sustain: clamp(p.Sustain, 0, 1),
		Release: clamp(p.Release, 0.01, 1),
	}
}

// ----- ADSR ----- //

/*
  1 +   x
    |  / \
    | /   \
  s +/     x------x
    |              \
  0 +---+--+------+--x--
    |a  |d |      |r  |
*/
type envelope struct {
	value float64
	state EnvelopeState
}

func (e *envelope) noteOn() {
	e.value = 0
	e.state = StateAttack
}

func (e *envelope) noteOff() {
	e.state = StateRelease
}

// advanceEnvelope steps e by one sample.
func advanceEnvelope(e envelope, p EnvelopeParams, sampleRate float64) envelope {
	switch e.state {
	case StateAttack:
		e.value += 1 / (p.Attack * sampleRate)
		if e.value >= 1 {
			e.value = 1
			e.state = StateDecay
		}
	case StateDecay:
		e.value -= (1 - p.Sustain) / (p.Decay * sampleRate)
		if e.value <= p.Sustain {
			e.value = p.Sustain
			e.state = StateSustain
		}
	case StateRelease:
		e.value -= e.value / (p.Release * sampleRate)
		if e.value < offThreshold {
			e.value = 0
			e.state = StateIdle
		}
	}
	return e
}
