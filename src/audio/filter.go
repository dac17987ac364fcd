package audio

// ----- Lowpass ----- //

// lowpass is a 2-pole resonant filter. cutoff is a per-sample coefficient in
// [0, 1]. It may self-oscillate when resonance goes above 2.
type lowpass struct {
	cutoff    float64
	resonance float64
	buf0      float64
	buf1      float64
}

func (f *lowpass) reset(cutoff, resonance float64) {
	f.cutoff = cutoff
	f.resonance = resonance
	f.buf0 = 0
	f.buf1 = 0
}

func (f *lowpass) process(in float64) float64 {
	c := f.cutoff
	feedback := f.resonance * (1 - 0.15*c*c)
	f.buf0 += c * (in - f.buf0 + feedback*(f.buf0-f.buf1))
	f.buf1 += c * (f.buf0 - f.buf1)
	return f.buf1
}
