package spectrum

import (
	"math"
	"math/rand"
	"time"
)

// SynthSource emits a plausible music-like spectrum without any audio input,
// for demos and -no-audio runs. Low bins pulse like a kick drum, mids and
// highs drift on slower phases.
type SynthSource struct {
	rng       *rand.Rand
	bins      int
	epoch     time.Time
	phaseBass float64
	phaseMid  float64
	phaseHigh float64
}

func NewSynthSource(bins int, seed int64) *SynthSource {
	if bins <= 0 {
		bins = DefaultBins
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SynthSource{
		rng:   rand.New(rand.NewSource(seed)),
		bins:  bins,
		epoch: time.Now(),
	}
}

func (s *SynthSource) Next() Frame {
	now := float64(time.Since(s.epoch).Milliseconds())
	s.phaseBass = now / 1000 * 2.1
	s.phaseMid = now / 1000 * 1.2
	s.phaseHigh = now / 1000 * 3.4

	kick := math.Max(0, math.Sin(s.phaseBass))
	kick = kick * kick * kick // sharpen into beats

	out := make([]uint8, s.bins)
	for i := range out {
		pos := float64(i) / float64(s.bins)
		var level float64
		switch {
		case pos < 0.1:
			level = 0.25 + 0.7*kick
		case pos < 0.5:
			level = 0.2 + 0.3*(0.5+0.5*math.Sin(s.phaseMid+pos*9))
		default:
			level = 0.1 + 0.2*(0.5+0.5*math.Sin(s.phaseHigh+pos*17))
		}
		level += s.rng.Float64() * 0.08
		if level < 0 {
			level = 0
		}
		if level > 1 {
			level = 1
		}
		out[i] = uint8(level * 255)
	}
	return Frame{Bins: out, Timestamp: now}
}
