package spectrum

// Frame is one magnitude-spectrum snapshot: an unsigned magnitude per
// frequency bin plus the capture timestamp in milliseconds. Frames are
// consumed, never mutated, by the animation core.
type Frame struct {
	Bins      []uint8
	Timestamp float64
}

// Source supplies one Frame per animation tick.
type Source interface {
	Next() Frame
}

// Sanitize pads a short frame with zero bins so the core always sees the
// expected bin count. A dropped or truncated frame must degrade, not freeze
// the animation.
func Sanitize(f Frame, bins int) Frame {
	if bins <= 0 {
		bins = DefaultBins
	}
	if len(f.Bins) == bins {
		return f
	}
	fixed := make([]uint8, bins)
	copy(fixed, f.Bins)
	return Frame{Bins: fixed, Timestamp: f.Timestamp}
}

// DefaultBins is the bin count produced by the built-in sources.
const DefaultBins = 128
