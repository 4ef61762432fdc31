package scene

import (
	"testing"

	"github.com/emberarc/emberarc/internal/bolt"
	"github.com/emberarc/emberarc/internal/config"
	"github.com/emberarc/emberarc/internal/features"
	"github.com/emberarc/emberarc/internal/fire"
	"github.com/emberarc/emberarc/internal/geom"
	"github.com/emberarc/emberarc/internal/surface"
)

func buildState(t *testing.T) ([]bolt.Bolt, []fire.Particle, features.Snapshot) {
	t.Helper()
	snap := features.Snapshot{Bass: 0.7, Mid: 0.6, High: 0.4, Overall: 0.65}

	g := bolt.NewGenerator(bolt.Config{Width: 120, Height: 90, MaxBolts: 2, Seed: 17})
	for i := 0; i < 8; i++ {
		g.Tick(snap, 1.0/60)
	}
	if g.Len() == 0 {
		t.Fatalf("no bolts generated for render test")
	}

	s := fire.NewSimulator(fire.Config{Width: 120, Height: 90, MaxParticles: 60, Seed: 17})
	for i := 0; i < 8; i++ {
		s.Tick(snap, 1.0/60)
	}

	return g.Bolts(), s.Particles(), snap
}

func renderOnce(r *Renderer, bolts []bolt.Bolt, parts []fire.Particle, snap features.Snapshot) *surface.Canvas {
	c := surface.NewCanvas(120, 90)
	c.Clear(geom.RGB{})
	r.Render(c, bolts, parts, snap, 17, 8)
	return c
}

func TestRenderProducesPixels(t *testing.T) {
	bolts, parts, snap := buildState(t)
	r := New(config.Defaults())
	c := renderOnce(r, bolts, parts, snap)

	lit := 0
	for _, v := range c.Pixels() {
		if v > 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Fatalf("render left the canvas black")
	}
}

// Rendering the same frozen state repeatedly must be pixel-identical: no
// hidden mutation happens during render-only calls.
func TestRenderIsIdempotentOnFrozenState(t *testing.T) {
	bolts, parts, snap := buildState(t)
	r := New(config.Defaults())

	a := renderOnce(r, bolts, parts, snap)
	b := renderOnce(r, bolts, parts, snap)

	pa, pb := a.Pixels(), b.Pixels()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("pixel %d differs between identical renders: %d vs %d", i, pa[i], pb[i])
		}
	}
}

func TestRenderDoesNotMutateEntities(t *testing.T) {
	bolts, parts, snap := buildState(t)

	boltBefore := bolts[0]
	var segBefore bolt.Segment
	boltCopy := bolts[0]
	boltCopy.Walk(func(s *bolt.Segment, idx int) {
		if idx == 0 {
			segBefore = *s
		}
	})
	partBefore := parts[0]

	r := New(config.Defaults())
	_ = renderOnce(r, bolts, parts, snap)

	if bolts[0].Pos != boltBefore.Pos || bolts[0].Intensity != boltBefore.Intensity {
		t.Fatalf("render mutated bolt state")
	}
	bolts[0].Walk(func(s *bolt.Segment, idx int) {
		if idx != 0 {
			return
		}
		if s.Start != segBefore.Start || s.End != segBefore.End ||
			s.Width != segBefore.Width || s.Intensity != segBefore.Intensity {
			t.Fatalf("render mutated segment geometry")
		}
	})
	if parts[0] != partBefore {
		t.Fatalf("render mutated particle state")
	}
}

func TestAdvanceChangesOutputOverTime(t *testing.T) {
	bolts, parts, snap := buildState(t)
	r := New(config.Defaults())

	a := renderOnce(r, bolts, parts, snap)
	r.Advance(0.5)
	b := renderOnce(r, bolts, parts, snap)

	pa, pb := a.Pixels(), b.Pixels()
	same := true
	for i := range pa {
		if pa[i] != pb[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("advancing the phases should alter the rendered frame")
	}
}

// With the rainbow sweep disabled the bolts must draw in the configured
// theme color rather than the hue cycle.
func TestThemeColorUsedWhenRainbowDisabled(t *testing.T) {
	bolts, parts, snap := buildState(t)

	style := config.Defaults()
	style.PrimaryColor = "#ff0000"
	style.RainbowSpeed = 0
	r := New(style)
	if r.Style().RainbowSpeed != 0 {
		t.Fatalf("rainbowSpeed=0 rewritten at construction: %f", r.Style().RainbowSpeed)
	}

	c := renderOnce(r, bolts, parts, snap)
	var sumR, sumG, sumB int
	pix := c.Pixels()
	for i := 0; i+2 < len(pix); i += 3 {
		sumR += int(pix[i])
		sumG += int(pix[i+1])
		sumB += int(pix[i+2])
	}
	if sumR <= sumG || sumR <= sumB {
		t.Fatalf("red theme not dominant: R=%d G=%d B=%d", sumR, sumG, sumB)
	}
}

func TestMirrorDoublesCoverage(t *testing.T) {
	bolts, parts, snap := buildState(t)

	plain := New(config.Defaults())
	mirrored := New(func() config.Style {
		s := config.Defaults()
		s.MirrorEnabled = true
		return s
	}())

	a := renderOnce(plain, bolts, parts, snap)
	b := renderOnce(mirrored, bolts, parts, snap)

	// Count clearly lit pixels; the faint trail wash tints everything.
	count := func(c *surface.Canvas) int {
		n := 0
		for _, v := range c.Pixels() {
			if v > 32 {
				n++
			}
		}
		return n
	}
	if count(b) <= count(a) {
		t.Fatalf("mirror should light more pixels: %d vs %d", count(b), count(a))
	}
}
