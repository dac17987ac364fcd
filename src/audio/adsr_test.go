package audio

import (
	"testing"
)

const testRate = 48000

func runEnvelope(e envelope, p EnvelopeParams, until EnvelopeState, limit int) (envelope, int) {
	for i := 0; i < limit; i++ {
		if e.state == until {
			return e, i
		}
		e = advanceEnvelope(e, p, testRate)
	}
	return e, limit
}

func TestEnvelopeStages(t *testing.T) {
	p := EnvelopeParams{Attack: 0.01, Decay: 0.02, Sustain: 0.4, Release: 0.05}
	var e envelope
	expectEqual(t, e.state, StateIdle)
	e.noteOn()
	expectEqual(t, e.state, StateAttack)
	expectEqual(t, e.value, 0.0)

	prev := e.value
	for e.state == StateAttack {
		e = advanceEnvelope(e, p, testRate)
		if e.value < prev {
			t.Fatalf("attack must not fall: %v -> %v", prev, e.value)
		}
		prev = e.value
	}
	expectEqual(t, e.state, StateDecay)
	expectEqual(t, e.value, 1.0)

	for e.state == StateDecay {
		e = advanceEnvelope(e, p, testRate)
		if e.value > prev || e.value < p.Sustain {
			t.Fatalf("decay must fall towards sustain: %v -> %v", prev, e.value)
		}
		prev = e.value
	}
	expectEqual(t, e.state, StateSustain)
	expectEqual(t, e.value, 0.4)

	for i := 0; i < 1000; i++ {
		e = advanceEnvelope(e, p, testRate)
	}
	expectEqual(t, e.state, StateSustain)
	expectEqual(t, e.value, 0.4)

	e.noteOff()
	expectEqual(t, e.state, StateRelease)
	e, n := runEnvelope(e, p, StateIdle, 100000)
	if n == 100000 {
		t.Fatalf("release did not finish")
	}
	expectEqual(t, e.value, 0.0)
}

func TestEnvelopeAttackLength(t *testing.T) {
	p := EnvelopeParams{Attack: 0.5, Decay: 1, Sustain: 0.5, Release: 0.2}
	var e envelope
	e.noteOn()
	_, n := runEnvelope(e, p, StateDecay, 1000000)
	if n < 23990 || n > 24010 {
		t.Errorf("expected attack of about 24000 samples, but got: %v", n)
	}
}

func TestEnvelopeReleaseDuringAttack(t *testing.T) {
	p := EnvelopeParams{Attack: 1, Decay: 1, Sustain: 0.5, Release: 0.1}
	var e envelope
	e.noteOn()
	for i := 0; i < 100; i++ {
		e = advanceEnvelope(e, p, testRate)
	}
	level := e.value
	e.noteOff()
	e = advanceEnvelope(e, p, testRate)
	expectEqual(t, e.state, StateRelease)
	if e.value > level {
		t.Errorf("release must start from the current level: %v -> %v", level, e.value)
	}
	prev := e.value
	for e.state == StateRelease {
		e = advanceEnvelope(e, p, testRate)
		if e.value > prev {
			t.Fatalf("release must not rise: %v -> %v", prev, e.value)
		}
		prev = e.value
	}
	expectEqual(t, e.state, StateIdle)
	expectEqual(t, e.value, 0.0)
}

func TestEnvelopeReleaseFromZero(t *testing.T) {
	p := EnvelopeParams{Attack: 1, Decay: 1, Sustain: 0.5, Release: 0.1}
	var e envelope
	e.noteOn()
	e.noteOff()
	e = advanceEnvelope(e, p, testRate)
	expectEqual(t, e.state, StateIdle)
}

func TestEnvelopeIdleStaysIdle(t *testing.T) {
	p := EnvelopeParams{Attack: 1, Decay: 1, Sustain: 0.5, Release: 0.1}
	var e envelope
	for i := 0; i < 10; i++ {
		e = advanceEnvelope(e, p, testRate)
	}
	expectEqual(t, e.state, StateIdle)
	expectEqual(t, e.value, 0.0)
}

func TestEnvelopeParamsClamped(t *testing.T) {
	p := EnvelopeParams{Attack: 0, Decay: 100, Sustain: -1, Release: 5}.clamped()
	expectEqual(t, p.Attack, 0.001)
	expectEqual(t, p.Decay, 10.0)
	expectEqual(t, p.Sustain, 0.0)
	expectEqual(t, p.Release, 1.0)
}

func TestEnvelopeStateString(t *testing.T) {
	expectEqual(t, StateRelease.String(), "release")
	expectEqual(t, EnvelopeState(9).String(), "EnvelopeState(9)")
}
