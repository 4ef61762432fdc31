package features

// Snapshot describes the musical features derived from one spectrum frame:
// per-band energies, a weighted overall intensity, and the onset, rhythm and
// silence flags the generators key off.
type Snapshot struct {
	Bass    float64 `json:"bass"`
	Mid     float64 `json:"mid"`
	High    float64 `json:"high"`
	Overall float64 `json:"overall"`

	Onset    bool `json:"onset"`
	Rhythmic bool `json:"rhythmic"`
	Silent   bool `json:"silent"`
}

// Tuning constants. These are empirically tuned values, preserved as named
// overridable knobs rather than re-derived.
const (
	// HistoryLen is the rolling overall-intensity window length.
	HistoryLen = 10

	// OnsetRatio is how far above the rolling mean a frame must rise to
	// count as an onset.
	OnsetRatio = 1.5

	// OnsetFloor is the minimum absolute intensity for an onset; it stops
	// spurious triggers on the first frames when the history is empty.
	OnsetFloor = 0.15

	// MinOnsetGapMs debounces consecutive onsets.
	MinOnsetGapMs = 200.0

	// RhythmBufferLen is how many inter-onset intervals are kept.
	RhythmBufferLen = 6

	// RhythmStability: a beat is "rhythmic" when the interval stddev is
	// below this fraction of the interval mean.
	RhythmStability = 0.3

	// SilenceThreshold and SilenceFrames gate the silence flag: intensity
	// must stay below the threshold for that many consecutive frames
	// (~0.5s at 60Hz).
	SilenceThreshold = 0.08
	SilenceFrames    = 30
)
