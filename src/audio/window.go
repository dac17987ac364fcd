package audio

import (
	"math"
)

// makeHann returns the coefficients of a periodic Hann window of length n.
func makeHann(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		w[i] = 0.5 - 0.5*math.Cos(2.0*math.Pi*x)
	}
	return w
}
