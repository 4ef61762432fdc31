package spectrum

import (
	"math"
	"time"

	"github.com/emberarc/emberarc/internal/geom"
	"github.com/mjibson/go-dsp/fft"
)

// SampleProvider returns the most recent mono PCM samples. The audio capture
// layer implements this; tests inject slices directly.
type SampleProvider func() []float32

// FFTSource converts live PCM into magnitude-spectrum frames. It reuses the
// FFT workspace and Hann window across ticks to avoid per-frame allocation.
type FFTSource struct {
	samples    SampleProvider
	sampleRate float64
	bins       int
	gain       float64
	epoch      time.Time

	buffer []complex128
	window []float64
}

// FFTConfig controls FFTSource behavior.
type FFTConfig struct {
	Samples    SampleProvider
	SampleRate float64
	Bins       int
	Gain       float64
}

// NewFFTSource creates a source producing frames of cfg.Bins magnitudes.
func NewFFTSource(cfg FFTConfig) *FFTSource {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	if cfg.Bins <= 0 {
		cfg.Bins = DefaultBins
	}
	if cfg.Gain <= 0 {
		cfg.Gain = 4.0
	}
	return &FFTSource{
		samples:    cfg.Samples,
		sampleRate: cfg.SampleRate,
		bins:       cfg.Bins,
		gain:       cfg.Gain,
		epoch:      time.Now(),
	}
}

// Next runs an FFT over the latest samples and folds the positive half of the
// spectrum into s.bins 0-255 magnitudes.
func (s *FFTSource) Next() Frame {
	now := float64(time.Since(s.epoch).Milliseconds())
	out := make([]uint8, s.bins)

	var raw []float32
	if s.samples != nil {
		raw = s.samples()
	}
	if len(raw) == 0 {
		return Frame{Bins: out, Timestamp: now}
	}

	size := nextPow2(min(len(raw), 4096))
	if size < 256 {
		size = 256
	}
	s.ensureWorkspace(size)

	for i := 0; i < size; i++ {
		if i < len(raw) {
			s.buffer[i] = complex(float64(raw[i])*s.window[i], 0)
			continue
		}
		s.buffer[i] = 0
	}

	res := fft.FFT(s.buffer[:size])

	// Fold the positive spectrum half down to the requested bin count by
	// averaging each run of FFT bins.
	half := size / 2
	per := half / s.bins
	if per < 1 {
		per = 1
	}
	for b := 0; b < s.bins; b++ {
		lo := b * per
		hi := lo + per
		if hi > half {
			hi = half
		}
		if lo >= hi {
			break
		}
		sum := 0.0
		for _, c := range res[lo:hi] {
			sum += math.Hypot(real(c), imag(c))
		}
		// Normalize by the transform half so a full-scale tone maps near 1.0
		// before gain.
		mag := (sum / float64(hi-lo)) / float64(half) * s.gain
		out[b] = uint8(geom.ClampF(geom.SafeFloat(mag, 0)*255, 0, 255))
	}

	return Frame{Bins: out, Timestamp: now}
}

func (s *FFTSource) ensureWorkspace(size int) {
	if len(s.buffer) != size {
		s.buffer = make([]complex128, size)
	}
	if len(s.window) != size {
		s.window = make([]float64, size)
		sizeF := float64(size)
		for i := range s.window {
			s.window[i] = hann(float64(i), sizeF)
		}
	}
}

func hann(i, size float64) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*i/size))
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
