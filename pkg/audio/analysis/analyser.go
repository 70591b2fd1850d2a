// ABOUTME: FFT analyser producing byte frequency bins from played PCM
// ABOUTME: Blackman window, temporal smoothing and dB to byte mapping
package analysis

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// DefaultFFTSize gives 128 frequency bins
	DefaultFFTSize = 256

	DefaultSmoothing = 0.8
	DefaultMinDB     = -100.0
	DefaultMaxDB     = -30.0
)

// Analyser keeps the most recent FFT-size mono samples and computes
// smoothed byte magnitudes on demand
type Analyser struct {
	mu sync.Mutex

	size      int
	smoothing float64
	minDB     float64
	maxDB     float64

	ring   []float64 // last size samples, oldest at pos
	pos    int
	input  []float64
	window []float64
	coeffs []complex128
	smooth []float64
	fft    *fourier.FFT
}

// NewAnalyser creates an analyser for a power-of-two FFT size
func NewAnalyser(size int) *Analyser {
	if size < 32 || size&(size-1) != 0 {
		panic("FFT size must be a power of 2 and at least 32")
	}

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Blackman(coeffs)

	return &Analyser{
		size:      size,
		smoothing: DefaultSmoothing,
		minDB:     DefaultMinDB,
		maxDB:     DefaultMaxDB,
		ring:      make([]float64, size),
		input:     make([]float64, size),
		window:    coeffs,
		coeffs:    make([]complex128, size/2+1),
		smooth:    make([]float64, size/2),
		fft:       fourier.NewFFT(size),
	}
}

// SetSmoothing sets the time constant in [0, 1)
func (a *Analyser) SetSmoothing(tc float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.smoothing = math.Max(0, math.Min(tc, 0.99))
}

// SetRange sets the dB window mapped onto 0..255
func (a *Analyser) SetRange(minDB, maxDB float64) {
	if maxDB <= minDB {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.minDB, a.maxDB = minDB, maxDB
}

// FrequencyBinCount is half the FFT size
func (a *Analyser) FrequencyBinCount() int {
	return a.size / 2
}

// Write receives a block of played s16le PCM and keeps its mono mix
func (a *Analyser) Write(pcm []byte, format audio.Format) {
	channels := format.Channels
	if channels <= 0 {
		return
	}
	samples := audio.DecodeS16LE(pcm)

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i+channels <= len(samples); i += channels {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(samples[i+c])
		}
		a.ring[a.pos] = sum / float64(channels) / 8388608.0
		a.pos = (a.pos + 1) % a.size
	}
}

// Reset clears the sample history and smoothing state
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.ring {
		a.ring[i] = 0
	}
	for i := range a.smooth {
		a.smooth[i] = 0
	}
	a.pos = 0
}

// ByteFrequencyData fills dst with the current spectrum, one byte per bin.
// Each call advances the smoothing state, so one caller per frame should
// read it and share the result.
func (a *Analyser) ByteFrequencyData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < a.size; i++ {
		a.input[i] = a.ring[(a.pos+i)%a.size] * a.window[i]
	}
	a.fft.Coefficients(a.coeffs, a.input)

	scale := 1 / float64(a.size)
	span := a.maxDB - a.minDB
	for i := range a.smooth {
		mag := cmplx.Abs(a.coeffs[i]) * scale
		a.smooth[i] = a.smoothing*a.smooth[i] + (1-a.smoothing)*mag

		if i >= len(dst) {
			continue
		}
		db := math.Inf(-1)
		if a.smooth[i] > 0 {
			db = 20 * math.Log10(a.smooth[i])
		}
		v := 255 / span * (db - a.minDB)
		switch {
		case v < 0 || math.IsNaN(v):
			dst[i] = 0
		case v > 255:
			dst[i] = 255
		default:
			dst[i] = uint8(v)
		}
	}
}
