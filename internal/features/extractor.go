package features

import (
	"math"

	"github.com/emberarc/emberarc/internal/geom"
	"github.com/emberarc/emberarc/internal/spectrum"
)

// Extractor derives a Snapshot from each spectrum frame plus a short rolling
// history it maintains itself. All mutable analysis state lives here so
// multiple independent visualizer instances can coexist.
type Extractor struct {
	sensitivity float64

	history []float64

	lastOnsetMs  float64
	sawOnset     bool
	rhythmBuffer []float64

	silenceRun int
	silent     bool
}

// Config controls Extractor behavior.
type Config struct {
	// Sensitivity multiplies perceived energy before thresholding.
	Sensitivity float64
}

func New(cfg Config) *Extractor {
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = 1.0
	}
	return &Extractor{
		sensitivity:  cfg.Sensitivity,
		history:      make([]float64, 0, HistoryLen),
		rhythmBuffer: make([]float64, 0, RhythmBufferLen),
	}
}

// SetSensitivity updates the energy multiplier at runtime.
func (e *Extractor) SetSensitivity(s float64) {
	e.sensitivity = geom.ClampF(s, 0.1, 10)
}

// Extract computes the Snapshot for one frame and pushes the frame's overall
// intensity into the rolling window.
func (e *Extractor) Extract(frame spectrum.Frame) Snapshot {
	n := len(frame.Bins)
	if n == 0 {
		e.pushHistory(0)
		e.trackSilence(0)
		return Snapshot{Silent: e.silent}
	}

	bassEnd := n / 10
	midEnd := n / 2
	if bassEnd < 1 {
		bassEnd = 1
	}
	if midEnd <= bassEnd {
		midEnd = bassEnd + 1
	}
	if midEnd > n {
		midEnd = n
	}

	bass := bandMean(frame.Bins[:bassEnd])
	mid := bandMean(frame.Bins[bassEnd:midEnd])
	high := bandMean(frame.Bins[midEnd:])

	bass = geom.Clamp01(bass * e.sensitivity)
	mid = geom.Clamp01(mid * e.sensitivity)
	high = geom.Clamp01(high * e.sensitivity)

	overall := geom.Clamp01(0.4*bass + 0.4*mid + 0.2*high)

	onset := e.detectOnset(overall, frame.Timestamp)
	rhythmic := e.detectRhythm()
	e.pushHistory(overall)
	e.trackSilence(overall)

	return Snapshot{
		Bass:     bass,
		Mid:      mid,
		High:     high,
		Overall:  overall,
		Onset:    onset,
		Rhythmic: rhythmic,
		Silent:   e.silent,
	}
}

func (e *Extractor) detectOnset(overall, nowMs float64) bool {
	mean := average(e.history)

	if overall < OnsetFloor {
		return false
	}
	if overall <= mean*OnsetRatio {
		return false
	}
	if e.sawOnset && nowMs-e.lastOnsetMs <= MinOnsetGapMs {
		return false
	}

	if e.sawOnset {
		interval := nowMs - e.lastOnsetMs
		e.rhythmBuffer = append(e.rhythmBuffer, interval)
		if len(e.rhythmBuffer) > RhythmBufferLen {
			copy(e.rhythmBuffer, e.rhythmBuffer[1:])
			e.rhythmBuffer = e.rhythmBuffer[:len(e.rhythmBuffer)-1]
		}
	}
	e.sawOnset = true
	e.lastOnsetMs = nowMs
	return true
}

func (e *Extractor) detectRhythm() bool {
	if len(e.rhythmBuffer) < 3 {
		return false
	}
	mean := average(e.rhythmBuffer)
	if mean <= 0 {
		return false
	}
	sumSq := 0.0
	for _, v := range e.rhythmBuffer {
		d := v - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(e.rhythmBuffer)))
	return stddev < mean*RhythmStability
}

func (e *Extractor) pushHistory(v float64) {
	e.history = append(e.history, v)
	if len(e.history) > HistoryLen {
		copy(e.history, e.history[1:])
		e.history = e.history[:len(e.history)-1]
	}
}

func (e *Extractor) trackSilence(overall float64) {
	if overall < SilenceThreshold {
		e.silenceRun++
	} else {
		e.silenceRun = 0
		e.silent = false
		return
	}
	if e.silenceRun > SilenceFrames {
		e.silent = true
	}
}

func bandMean(bins []uint8) float64 {
	if len(bins) == 0 {
		return 0
	}
	sum := 0
	for _, b := range bins {
		sum += int(b)
	}
	return float64(sum) / float64(len(bins)) / 255.0
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
