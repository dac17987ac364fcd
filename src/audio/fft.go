package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/ktye/fft"
)

const fftSize = 2048

// ----- Analyzer ----- //

// analyzer keeps the last fftSize output samples for spectrum reports.
// The render side skips a block while a report holds the lock.
type analyzer struct {
	mu     sync.Mutex
	ring   []float64
	pos    int
	window []float64
	fft    fft.FFT
	buf    []complex128
	result []float64
}

func newAnalyzer() (*analyzer, error) {
	f, err := fft.New(fftSize)
	if err != nil {
		return nil, err
	}
	return &analyzer{
		ring:   make([]float64, fftSize),
		window: makeHann(fftSize),
		fft:    f,
		buf:    make([]complex128, fftSize),
		result: make([]float64, fftSize),
	}, nil
}

func (an *analyzer) write(samples []int16) {
	if !an.mu.TryLock() {
		return
	}
	for _, s := range samples {
		an.ring[an.pos] = float64(s) / math.MaxInt16
		an.pos++
		if an.pos == fftSize {
			an.pos = 0
		}
	}
	an.mu.Unlock()
}

// spectrum returns fftSize/2 magnitudes. The returned slice is reused by the
// next call.
func (an *analyzer) spectrum() []float64 {
	an.mu.Lock()
	defer an.mu.Unlock()
	// ring:   | 4 | 1 | 2 | 3 |
	// pos:        ^
	// buf:    | 1 | 2 | 3 | 4 |
	for i := 0; i < fftSize; i++ {
		j := (an.pos + i) % fftSize
		an.buf[i] = complex(an.ring[j]*an.window[i], 0)
	}
	an.buf = an.fft.Transform(an.buf)
	for i, c := range an.buf {
		an.result[i] = cmplx.Abs(c) * 2 / fftSize
	}
	return an.result[:fftSize/2]
}

func (an *analyzer) peakFrequency(sampleRate float64) float64 {
	spectrum := an.spectrum()
	peak := 0
	for i := 1; i < len(spectrum); i++ {
		if spectrum[i] > spectrum[peak] {
			peak = i
		}
	}
	if peak == 0 || spectrum[peak] < 1e-6 {
		return 0
	}
	return float64(peak) * sampleRate / fftSize
}
