package surface

import (
	"math"

	"github.com/emberarc/emberarc/internal/geom"
)

// Canvas is a software RGB framebuffer implementing Surface. Presenters blit
// its pixel buffer; tests read it back directly.
type Canvas struct {
	width  int
	height int
	pix    []uint8 // RGB, 3 bytes per pixel
}

func NewCanvas(width, height int) *Canvas {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Canvas{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*3),
	}
}

func (c *Canvas) Size() (int, int) { return c.width, c.height }

// Pixels exposes the raw RGB buffer for presenters. Row-major, no padding.
func (c *Canvas) Pixels() []uint8 { return c.pix }

// At returns the color at (x, y); out-of-bounds reads are black.
func (c *Canvas) At(x, y int) geom.RGB {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return geom.RGB{}
	}
	o := (y*c.width + x) * 3
	return geom.RGB{R: c.pix[o], G: c.pix[o+1], B: c.pix[o+2]}
}

// Resize reallocates the buffer. Contents are discarded.
func (c *Canvas) Resize(width, height int) {
	if width <= 0 || height <= 0 || (width == c.width && height == c.height) {
		return
	}
	c.width = width
	c.height = height
	c.pix = make([]uint8, width*height*3)
}

func (c *Canvas) Clear(col geom.RGB) {
	for o := 0; o < len(c.pix); o += 3 {
		c.pix[o] = col.R
		c.pix[o+1] = col.G
		c.pix[o+2] = col.B
	}
}

func (c *Canvas) blend(x, y int, col geom.RGB, alpha float64, additive bool) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height || alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	o := (y*c.width + x) * 3
	if additive {
		c.pix[o] = satAdd(c.pix[o], float64(col.R)*alpha)
		c.pix[o+1] = satAdd(c.pix[o+1], float64(col.G)*alpha)
		c.pix[o+2] = satAdd(c.pix[o+2], float64(col.B)*alpha)
		return
	}
	c.pix[o] = mix(c.pix[o], col.R, alpha)
	c.pix[o+1] = mix(c.pix[o+1], col.G, alpha)
	c.pix[o+2] = mix(c.pix[o+2], col.B, alpha)
}

func (c *Canvas) FillRect(x, y, w, h float64, col geom.RGB, alpha float64) {
	x0 := geom.ClampInt(int(math.Floor(x)), 0, c.width)
	y0 := geom.ClampInt(int(math.Floor(y)), 0, c.height)
	x1 := geom.ClampInt(int(math.Ceil(x+w)), 0, c.width)
	y1 := geom.ClampInt(int(math.Ceil(y+h)), 0, c.height)
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c.blend(px, py, col, alpha, false)
		}
	}
}

// StrokePath draws a polyline by stamping feathered discs along each edge at
// sub-pixel steps. Crude but dependency-free, and plenty for glow strokes.
func (c *Canvas) StrokePath(pts []geom.Vec2, width float64, col geom.RGB, alpha float64, additive bool) {
	if len(pts) < 2 || width <= 0 {
		return
	}
	step := width * 0.4
	if step < 0.75 {
		step = 0.75
	}
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		d := b.Sub(a)
		length := d.Len()
		n := int(length/step) + 1
		for s := 0; s <= n; s++ {
			t := float64(s) / float64(n)
			p := a.Add(d.Scale(t))
			c.stamp(p, width/2, col, alpha, additive)
		}
	}
}

func (c *Canvas) FillCircle(center geom.Vec2, radius float64, col geom.RGB, alpha float64, additive bool) {
	c.stamp(center, radius, col, alpha, additive)
}

// stamp fills a disc with a soft feathered rim.
func (c *Canvas) stamp(center geom.Vec2, radius float64, col geom.RGB, alpha float64, additive bool) {
	if radius <= 0 || alpha <= 0 {
		return
	}
	x0 := int(math.Floor(center.X - radius))
	x1 := int(math.Ceil(center.X + radius))
	y0 := int(math.Floor(center.Y - radius))
	y1 := int(math.Ceil(center.Y + radius))
	feather := radius * 0.35
	if feather < 0.5 {
		feather = 0.5
	}
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			d := math.Hypot(float64(px)+0.5-center.X, float64(py)+0.5-center.Y)
			if d > radius {
				continue
			}
			a := alpha
			if d > radius-feather {
				a *= (radius - d) / feather
			}
			c.blend(px, py, col, a, additive)
		}
	}
}

func satAdd(base uint8, add float64) uint8 {
	v := float64(base) + add
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func mix(base, top uint8, alpha float64) uint8 {
	return uint8(float64(base)*(1-alpha) + float64(top)*alpha)
}
