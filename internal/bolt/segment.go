package bolt

import (
	"math"
	"math/rand"

	"github.com/emberarc/emberarc/internal/geom"
)

// Tree construction constants. Tuned values, kept as named knobs.
const (
	// MaxDepth bounds the branch recursion.
	MaxDepth = 4

	// MaxBranchIntensity caps a child's intensity as a fraction of its
	// parent's.
	MaxBranchIntensity = 0.7

	// branchBaseChance and branchIntensityChance form the per-node branch
	// probability, which decays by branchDepthDecay^depth.
	branchBaseChance      = 0.2
	branchIntensityChance = 0.3
	branchDepthDecay      = 0.6
)

// Segment is one edge of a discharge tree. A segment is owned exclusively by
// its bolt and dies with it; children always sit one depth level below their
// parent.
type Segment struct {
	Start, End geom.Vec2
	Width      float64
	Intensity  float64
	Angle      float64
	Length     float64
	Depth      int
	Children   []*Segment
}

// buildSegment computes the segment's endpoint from its origin, angle and
// length, then grows children.
func buildSegment(start geom.Vec2, angle, length, width, intensity float64, depth int, rng *rand.Rand) *Segment {
	seg := &Segment{
		Start:     start,
		Angle:     angle,
		Length:    length,
		Width:     width,
		Intensity: geom.Clamp01(geom.SafeFloat(intensity, 0)),
		Depth:     depth,
	}
	seg.End = geom.Vec2{
		X: start.X + math.Cos(angle)*length,
		Y: start.Y + math.Sin(angle)*length,
	}
	seg.Children = buildBranches(seg, depth, rng)
	return seg
}

// buildBranches grows the children of parent. It is a pure function of the
// parent, the depth and the injected random source, so a seeded rng rebuilds
// the exact same tree.
func buildBranches(parent *Segment, depth int, rng *rand.Rand) []*Segment {
	if depth >= MaxDepth {
		return nil
	}

	var count int
	if depth == 0 {
		// The trunk always forks once or twice, biased to continue the
		// main stroke.
		count = 1 + rng.Intn(2)
	} else {
		chance := (branchBaseChance + branchIntensityChance*parent.Intensity) *
			math.Pow(branchDepthDecay, float64(depth))
		for i := 0; i < 2; i++ {
			if rng.Float64() < chance {
				count++
			}
		}
	}

	children := make([]*Segment, 0, count)
	for i := 0; i < count; i++ {
		var spread float64
		if depth == 0 {
			spread = (rng.Float64() - 0.5) * 0.5 // near-vertical continuation
		} else {
			spread = (rng.Float64() - 0.5) * (1.4 - 0.2*float64(depth))
		}
		angle := parent.Angle + spread
		length := parent.Length * (0.55 + rng.Float64()*0.25)
		width := parent.Width * (0.6 + rng.Float64()*0.2)
		intensity := parent.Intensity * (0.4 + rng.Float64()*(MaxBranchIntensity-0.4))

		children = append(children, buildSegment(parent.End, angle, length, width, intensity, depth+1, rng))
	}
	return children
}

// JaggedPoints subdivides the segment and displaces the interior sub-points
// perpendicular to the stroke direction. Displacement scales with segment
// width plus the high-band energy and is biased toward the midpoint so both
// endpoints stay anchored. The hash-based jitter means the same (seed, seq)
// pair always yields the same polyline.
func (s *Segment) JaggedPoints(seed uint64, seq uint64, high float64, subdivisions int) []geom.Vec2 {
	if subdivisions < 2 {
		subdivisions = 2
	}
	dir := s.End.Sub(s.Start).Norm()
	perp := dir.Perp()
	amp := s.Width + high*6.0

	pts := make([]geom.Vec2, 0, subdivisions+1)
	pts = append(pts, s.Start)
	for i := 1; i < subdivisions; i++ {
		t := float64(i) / float64(subdivisions)
		base := geom.Vec2{
			X: geom.Lerp(s.Start.X, s.End.X, t),
			Y: geom.Lerp(s.Start.Y, s.End.Y, t),
		}
		// Midpoint bias: zero at the ends, max at t=0.5.
		anchor := 4 * t * (1 - t)
		offset := (hash01(seed, uint64(i), seq) - 0.5) * 2 * amp * anchor
		pts = append(pts, base.Add(perp.Scale(offset)))
	}
	pts = append(pts, s.End)
	return pts
}

// splitmix64 is a fast, high-quality 64-bit mixer.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// hash01 maps (seed, a, b) to a deterministic float in [0,1).
func hash01(seed, a, b uint64) float64 {
	h := seed
	h ^= a * 0x9E3779B185EBCA87
	h ^= b * 0xC2B2AE3D27D4EB4F
	return float64(splitmix64(h)>>11) * (1.0 / (1 << 53))
}
