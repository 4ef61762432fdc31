package engine

import (
	"testing"
	"time"

	"github.com/emberarc/emberarc/internal/config"
	"github.com/emberarc/emberarc/internal/geom"
	"github.com/emberarc/emberarc/internal/spectrum"
	"github.com/emberarc/emberarc/internal/surface"
)

// scriptedSource replays a fixed bin level and counts how often it is pulled,
// which makes tick ordering and no-op checks observable.
type scriptedSource struct {
	level uint8
	pulls int
}

func (s *scriptedSource) Next() spectrum.Frame {
	s.pulls++
	bins := make([]uint8, spectrum.DefaultBins)
	for i := range bins {
		bins[i] = s.level
	}
	return spectrum.Frame{Bins: bins}
}

func newEngine(src spectrum.Source) *Engine {
	return New(Config{
		Source: src,
		Style:  config.Defaults(),
		Width:  120,
		Height: 90,
		Seed:   42,
	})
}

func freshCanvas() *surface.Canvas {
	c := surface.NewCanvas(120, 90)
	c.Clear(geom.RGB{})
	return c
}

func TestTickPullsSourceAndRenders(t *testing.T) {
	src := &scriptedSource{level: 180}
	e := newEngine(src)
	e.Start()

	now := time.Now()
	c := freshCanvas()
	for i := 0; i < 10; i++ {
		if !e.Tick(now, c) {
			t.Fatalf("tick %d refused while running", i)
		}
		now = now.Add(16 * time.Millisecond)
	}

	if src.pulls != 10 {
		t.Fatalf("source pulled %d times for 10 ticks", src.pulls)
	}
	lit := 0
	for _, v := range c.Pixels() {
		if v > 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Fatalf("ten loud ticks left the canvas black")
	}
	if e.LastSnapshot().Overall <= 0 {
		t.Fatalf("loud input produced zero overall intensity")
	}
}

func TestTickIsNoOpBeforeStartAndAfterStop(t *testing.T) {
	src := &scriptedSource{level: 128}
	e := newEngine(src)

	if e.Tick(time.Now(), freshCanvas()) {
		t.Fatalf("tick ran before Start")
	}

	e.Start()
	e.Tick(time.Now(), freshCanvas())
	e.Stop()

	// A refresh callback landing after Stop must not advance anything.
	before := src.pulls
	if e.Tick(time.Now(), freshCanvas()) {
		t.Fatalf("tick ran after Stop")
	}
	if src.pulls != before {
		t.Fatalf("stale tick still pulled the source")
	}
	if e.State() != StateIdle {
		t.Fatalf("state after Stop = %d", e.State())
	}
}

func TestNilSurfaceSkipsTickAndRecovers(t *testing.T) {
	src := &scriptedSource{level: 128}
	e := newEngine(src)
	e.Start()

	now := time.Now()
	if e.Tick(now, nil) {
		t.Fatalf("tick ran without a surface")
	}
	if src.pulls != 0 {
		t.Fatalf("skipped tick consumed a frame")
	}
	if !e.Tick(now.Add(16*time.Millisecond), freshCanvas()) {
		t.Fatalf("tick after a skipped one did not run")
	}
}

// Pausing freezes the picture: RenderFrozen must repaint the last frame
// pixel-identically, as often as asked.
func TestFrozenRenderIsStable(t *testing.T) {
	src := &scriptedSource{level: 200}
	e := newEngine(src)
	e.Start()

	now := time.Now()
	for i := 0; i < 20; i++ {
		e.Tick(now, freshCanvas())
		now = now.Add(16 * time.Millisecond)
	}
	e.Stop()

	a := freshCanvas()
	b := freshCanvas()
	e.RenderFrozen(a)
	e.RenderFrozen(b)

	pa, pb := a.Pixels(), b.Pixels()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("frozen renders differ at pixel %d: %d vs %d", i, pa[i], pb[i])
		}
	}
	lit := 0
	for _, v := range pa {
		if v > 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Fatalf("frozen frame is black after loud playback")
	}
}

func TestFrozenRenderBeforeFirstTickIsSilent(t *testing.T) {
	e := newEngine(&scriptedSource{})
	c := freshCanvas()
	e.RenderFrozen(c)
	for _, v := range c.Pixels() {
		if v != 0 {
			t.Fatalf("frozen render without a captured frame drew pixels")
		}
	}
}

func TestSetStylePropagates(t *testing.T) {
	e := newEngine(&scriptedSource{level: 150})
	e.Start()

	s := config.Defaults()
	s.PrimaryColor = "#ff2200"
	s.Sensitivity = 3.0
	e.SetStyle(s)

	got := e.Style()
	if got.PrimaryColor != "#ff2200" || got.Sensitivity != 3.0 {
		t.Fatalf("style not applied: %+v", got)
	}

	// Bad values go through the same clamp as everywhere else.
	s.Sensitivity = -5
	s.PrimaryColor = "nope"
	e.SetStyle(s)
	got = e.Style()
	if got.PrimaryColor != config.Defaults().PrimaryColor {
		t.Fatalf("bad color survived SetStyle: %q", got.PrimaryColor)
	}
}

func TestRestartResumesTicking(t *testing.T) {
	src := &scriptedSource{level: 100}
	e := newEngine(src)

	e.Start()
	e.Tick(time.Now(), freshCanvas())
	e.Stop()
	e.Start()
	if !e.Tick(time.Now(), freshCanvas()) {
		t.Fatalf("tick refused after restart")
	}
	if e.State() != StateRunning {
		t.Fatalf("state after restart = %d", e.State())
	}
}
