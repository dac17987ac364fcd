package audio

import "math"

const twoPi = 2 * math.Pi

// fastSin approximates math.Sin with a 5th order odd polynomial after folding
// x into [-π/2, π/2]. Worst error is about 0.0045, at the quarter-wave peaks.
func fastSin(x float64) float64 {
	x -= twoPi * math.Floor((x+math.Pi)/twoPi)
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}
	if x > math.Pi-x {
		x = math.Pi - x
	}
	x2 := x * x
	return sign * x * (1 - x2*(1.0/6) + x2*x2*(1.0/120))
}

// wrapPhase keeps a phase accumulator in [0, 2π) without losing the
// fractional part of the cycle.
func wrapPhase(phase float64) float64 {
	if phase >= 0 && phase < twoPi {
		return phase
	}
	phase = math.Mod(phase, twoPi)
	if phase < 0 {
		phase += twoPi
	}
	if phase >= twoPi || math.IsNaN(phase) {
		phase = 0
	}
	return phase
}

// ----- FM OSC ----- //

// fmOsc is a carrier/modulator pair sharing one base frequency.
type fmOsc struct {
	freq           float64
	carrierPhase   float64
	modulatorPhase float64
}

func (o *fmOsc) initWithNote(note int) {
	o.freq = MIDIToFrequency(note)
	o.carrierPhase = 0
	o.modulatorPhase = 0
}

// step returns the current sample and advances both phases. modIndex is the
// modulation depth already scaled by the FM envelope.
func (o *fmOsc) step(ratio, modIndex, sampleRate float64) float64 {
	modSignal := fastSin(o.modulatorPhase) * modIndex
	value := fastSin(o.carrierPhase + modSignal)
	carrierInc := twoPi * o.freq / sampleRate
	o.carrierPhase = wrapPhase(o.carrierPhase + carrierInc)
	o.modulatorPhase = wrapPhase(o.modulatorPhase + carrierInc*ratio)
	return value
}
