package bolt

import (
	"math"
	"testing"

	"github.com/emberarc/emberarc/internal/features"
	"github.com/emberarc/emberarc/internal/geom"
)

func loudSnap() features.Snapshot {
	return features.Snapshot{Bass: 0.8, Mid: 0.7, High: 0.5, Overall: 0.75}
}

func silentSnap() features.Snapshot {
	return features.Snapshot{Silent: true}
}

func tickedGenerator(t *testing.T, seed int64, ticks int) *Generator {
	t.Helper()
	g := NewGenerator(Config{Width: 640, Height: 480, MaxBolts: 4, Seed: seed})
	for i := 0; i < ticks; i++ {
		g.Tick(loudSnap(), 1.0/60)
	}
	if g.Len() == 0 {
		t.Fatalf("expected at least one bolt after %d loud ticks", ticks)
	}
	return g
}

func TestTreeDepthInvariant(t *testing.T) {
	g := tickedGenerator(t, 42, 10)
	for _, b := range g.Bolts() {
		var check func(s *Segment)
		check = func(s *Segment) {
			if s.Depth > MaxDepth {
				t.Fatalf("segment depth %d exceeds MaxDepth %d", s.Depth, MaxDepth)
			}
			for _, c := range s.Children {
				if c.Depth != s.Depth+1 {
					t.Fatalf("child depth %d, parent %d", c.Depth, s.Depth)
				}
				check(c)
			}
		}
		if b.Root.Depth != 0 {
			t.Fatalf("root depth=%d want=0", b.Root.Depth)
		}
		check(b.Root)
	}
}

func TestBranchIntensityCap(t *testing.T) {
	g := tickedGenerator(t, 7, 10)
	for _, b := range g.Bolts() {
		var check func(s *Segment)
		check = func(s *Segment) {
			for _, c := range s.Children {
				if c.Intensity > s.Intensity*MaxBranchIntensity+1e-9 {
					t.Fatalf("child intensity %f exceeds cap of parent %f", c.Intensity, s.Intensity)
				}
				check(c)
			}
		}
		check(b.Root)
	}
}

func TestSeededConstructionIsReproducible(t *testing.T) {
	a := tickedGenerator(t, 99, 5)
	b := tickedGenerator(t, 99, 5)

	flatten := func(g *Generator) []float64 {
		var out []float64
		for _, bl := range g.Bolts() {
			bl := bl
			bl.Walk(func(s *Segment, _ int) {
				out = append(out, s.Start.X, s.Start.Y, s.End.X, s.End.Y, s.Intensity, s.Width)
			})
		}
		return out
	}

	fa, fb := flatten(a), flatten(b)
	if len(fa) == 0 || len(fa) != len(fb) {
		t.Fatalf("tree sizes differ: %d vs %d", len(fa), len(fb))
	}
	for i := range fa {
		if fa[i] != fb[i] {
			t.Fatalf("trees diverge at %d: %f vs %f", i, fa[i], fb[i])
		}
	}
}

func TestSilenceFadesAndRemoves(t *testing.T) {
	g := tickedGenerator(t, 3, 10)
	before := g.Bolts()[0].Intensity

	g.Tick(silentSnap(), 1.0/60)
	if g.Len() == 0 {
		t.Fatalf("bolt removed on first silent tick")
	}
	b := g.Bolts()[0]
	if b.State != StateFading {
		t.Fatalf("state=%d want fading", b.State)
	}
	if b.Intensity >= before {
		t.Fatalf("intensity did not decay: %f -> %f", before, b.Intensity)
	}

	// Stay silent; every bolt must eventually fade below the floor and
	// leave the pool (ages also run out, either path empties the pool).
	for i := 0; i < 600 && g.Len() > 0; i++ {
		g.Tick(silentSnap(), 1.0/60)
	}
	if g.Len() != 0 {
		t.Fatalf("bolts never removed under sustained silence")
	}
}

func TestFadingResumesWithoutReset(t *testing.T) {
	g := tickedGenerator(t, 11, 10)
	for i := 0; i < 20; i++ {
		g.Tick(silentSnap(), 1.0/60)
	}
	if g.Len() == 0 {
		t.Skip("all bolts aged out before resume")
	}
	decayed := g.Bolts()[0].Intensity
	g.Tick(loudSnap(), 1.0/60)
	if g.Len() == 0 {
		t.Skip("bolt aged out on resume tick")
	}
	b := g.Bolts()[0]
	if b.State != StateActive {
		t.Fatalf("state=%d want active after silence ends", b.State)
	}
	if b.Intensity > decayed+1e-9 {
		t.Fatalf("resume must not reset intensity: %f -> %f", decayed, b.Intensity)
	}
}

func TestAgeRemoval(t *testing.T) {
	g := NewGenerator(Config{Width: 100, Height: 100, MaxBolts: 1, Seed: 5})
	for i := 0; i < 3; i++ {
		g.Tick(loudSnap(), 1.0/60)
	}
	if g.Len() != 1 {
		t.Fatalf("expected one bolt")
	}
	// One giant delta pushes the bolt past any possible MaxAge; the same
	// tick spawns a replacement, so check the identity changed instead of
	// the count.
	old := g.Bolts()[0].ID
	g.Tick(loudSnap(), boltMaxAge+1)
	for _, b := range g.Bolts() {
		if b.ID == old {
			t.Fatalf("aged-out bolt %d still in pool", old)
		}
	}
}

func TestPoolNeverExceedsMaxBolts(t *testing.T) {
	g := NewGenerator(Config{Width: 640, Height: 480, MaxBolts: 3, Seed: 1})
	for i := 0; i < 300; i++ {
		g.Tick(loudSnap(), 1.0/60)
		if g.Len() > 3 {
			t.Fatalf("pool grew past capacity: %d", g.Len())
		}
	}
}

func TestJaggedPointsAnchorsEndpoints(t *testing.T) {
	seg := &Segment{
		Start: geom.Vec2{X: 10, Y: 10},
		End:   geom.Vec2{X: 10, Y: 110},
		Width: 3,
	}
	pts := seg.JaggedPoints(123, 9, 0.5, 6)
	if len(pts) != 7 {
		t.Fatalf("len=%d want=7", len(pts))
	}
	if pts[0] != seg.Start || pts[len(pts)-1] != seg.End {
		t.Fatalf("endpoints moved: %v .. %v", pts[0], pts[len(pts)-1])
	}
	again := seg.JaggedPoints(123, 9, 0.5, 6)
	for i := range pts {
		if pts[i] != again[i] {
			t.Fatalf("same (seed,seq) must give identical jitter")
		}
	}
	moved := seg.JaggedPoints(123, 10, 0.5, 6)
	same := true
	for i := range pts {
		if pts[i] != moved[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("advancing seq should change the jitter")
	}
}

func TestRenderIntensityDepthFalloffAndPulse(t *testing.T) {
	b := &Bolt{ID: 1, Intensity: 1.0}
	shallow := &Segment{Depth: 0, Intensity: 1.0}
	deep := &Segment{Depth: 3, Intensity: 1.0}

	s := RenderIntensity(b, shallow, 0, 5, 1, false)
	d := RenderIntensity(b, deep, 0, 5, 1, false)
	if d >= s {
		t.Fatalf("deeper segment should render dimmer: %f vs %f", d, s)
	}
	plain := RenderIntensity(b, shallow, 0, 5, 1, false)
	pulsed := RenderIntensity(b, shallow, 0, 5, 1, true)
	if pulsed <= plain && pulsed < 1.0 {
		t.Fatalf("onset pulse should brighten: %f vs %f", pulsed, plain)
	}
	if math.IsNaN(pulsed) {
		t.Fatalf("render intensity must never be NaN")
	}
}
