package surface

import (
	"testing"

	"github.com/emberarc/emberarc/internal/geom"
)

func TestClearFillsBuffer(t *testing.T) {
	c := NewCanvas(4, 4)
	c.Clear(geom.RGB{R: 10, G: 20, B: 30})
	got := c.At(3, 3)
	if got != (geom.RGB{R: 10, G: 20, B: 30}) {
		t.Fatalf("At(3,3)=%v", got)
	}
}

func TestFillRectClipsToBounds(t *testing.T) {
	c := NewCanvas(8, 8)
	c.FillRect(-5, -5, 100, 100, geom.RGB{R: 255}, 1.0)
	if c.At(0, 0).R != 255 || c.At(7, 7).R != 255 {
		t.Fatalf("rect did not cover canvas")
	}
}

func TestFillRectAlphaBlends(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Clear(geom.RGB{R: 200})
	c.FillRect(0, 0, 2, 2, geom.RGB{}, 0.5)
	got := c.At(0, 0).R
	if got < 90 || got > 110 {
		t.Fatalf("half-alpha black over 200 gave %d, want ~100", got)
	}
}

func TestAdditiveSaturates(t *testing.T) {
	c := NewCanvas(4, 4)
	c.Clear(geom.RGB{R: 250, G: 250, B: 250})
	c.FillCircle(geom.Vec2{X: 2, Y: 2}, 2, geom.RGB{R: 200, G: 200, B: 200}, 1.0, true)
	got := c.At(2, 2)
	if got.R != 255 || got.G != 255 || got.B != 255 {
		t.Fatalf("additive blend must saturate at white, got %v", got)
	}
}

func TestStrokePathMarksLine(t *testing.T) {
	c := NewCanvas(16, 16)
	c.StrokePath([]geom.Vec2{{X: 2, Y: 8}, {X: 14, Y: 8}}, 2, geom.RGB{G: 255}, 1.0, false)
	hit := false
	for x := 3; x < 14; x++ {
		if c.At(x, 8).G > 0 {
			hit = true
			break
		}
	}
	if !hit {
		t.Fatalf("stroke left no pixels on its row")
	}
	if c.At(8, 1).G != 0 {
		t.Fatalf("stroke bled far off the line")
	}
}

func TestOutOfBoundsReadsAreBlack(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Clear(geom.RGB{R: 255})
	if c.At(-1, 0) != (geom.RGB{}) || c.At(5, 5) != (geom.RGB{}) {
		t.Fatalf("out-of-bounds reads must be black")
	}
}

func TestResizeDiscardsAndReallocates(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Clear(geom.RGB{R: 9})
	c.Resize(3, 5)
	w, h := c.Size()
	if w != 3 || h != 5 {
		t.Fatalf("size=%dx%d want=3x5", w, h)
	}
	if c.At(0, 0) != (geom.RGB{}) {
		t.Fatalf("resize should zero the buffer")
	}
}
