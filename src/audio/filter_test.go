package audio

import (
	"math"
	"testing"
)

func TestLowpassDCGain(t *testing.T) {
	for _, resonance := range []float64{0, 0.5, 1} {
		var f lowpass
		f.reset(0.1, resonance)
		out := 0.0
		for i := 0; i < 20000; i++ {
			out = f.process(1)
		}
		expectNearlyEqual(t, out, 1)
	}
}

func TestLowpassAttenuatesHighFrequencies(t *testing.T) {
	var f lowpass
	f.reset(0.01, 0)
	peak := 0.0
	for i := 0; i < 20000; i++ {
		out := f.process(math.Sin(twoPi * 10000 * float64(i) / testRate))
		if i > 10000 {
			peak = math.Max(peak, math.Abs(out))
		}
	}
	if peak > 0.01 {
		t.Errorf("expected strong attenuation, but got peak %v", peak)
	}
}

func TestLowpassReset(t *testing.T) {
	var f lowpass
	f.reset(0.1, 1)
	f.process(1)
	f.reset(0.05, 0.5)
	expectEqual(t, f.buf0, 0.0)
	expectEqual(t, f.buf1, 0.0)
	expectEqual(t, f.cutoff, 0.05)
	expectEqual(t, f.resonance, 0.5)
}
