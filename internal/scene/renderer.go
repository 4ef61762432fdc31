// Package scene draws the current bolt and particle state onto a drawing
// surface. Rendering is strictly read-only against the generators' model:
// the renderer owns no entities and mutates none.
package scene

import (
	"math"

	"github.com/emberarc/emberarc/internal/bolt"
	"github.com/emberarc/emberarc/internal/config"
	"github.com/emberarc/emberarc/internal/features"
	"github.com/emberarc/emberarc/internal/fire"
	"github.com/emberarc/emberarc/internal/geom"
	"github.com/emberarc/emberarc/internal/surface"
)

const (
	// trailAlpha is the translucent background wash that produces the
	// motion-blur trail.
	trailAlpha = 0.22

	// boltSubdivisions is how many sub-points each segment stroke gets.
	boltSubdivisions = 6
)

var background = geom.RGB{R: 4, G: 4, B: 10}

// Renderer converts generator state into drawing commands. The hue and
// rotation phases only move in Advance, never in Render, so a frozen frame
// renders identically call-over-call.
type Renderer struct {
	style    config.Style
	theme    geom.RGB
	huePhase float64
	rotPhase float64
}

func New(style config.Style) *Renderer {
	style = style.Clamp()
	return &Renderer{style: style, theme: style.Primary()}
}

// SetStyle applies a new style, clamped.
func (r *Renderer) SetStyle(style config.Style) {
	r.style = style.Clamp()
	r.theme = r.style.Primary()
}

// Style returns the active (clamped) style.
func (r *Renderer) Style() config.Style { return r.style }

// Advance moves the color and rotation phases by the frame delta.
func (r *Renderer) Advance(dt float64) {
	r.huePhase += dt * 0.04 * r.style.RainbowSpeed
	r.rotPhase += dt * 0.12 * r.style.RotationSpeed
}

// Render draws one frame: trail wash, then every bolt tree depth-first with
// layered glow, then the particles as glow discs.
func (r *Renderer) Render(dst surface.Surface, bolts []bolt.Bolt, parts []fire.Particle, snap features.Snapshot, seed, seq uint64) {
	w, h := dst.Size()
	fw, fh := float64(w), float64(h)

	dst.FillRect(0, 0, fw, fh, background, trailAlpha)

	for i := range bolts {
		r.renderBolt(dst, &bolts[i], snap, seed, seq, fw, fh, false)
		if r.style.MirrorEnabled {
			r.renderBolt(dst, &bolts[i], snap, seed, seq, fw, fh, true)
		}
	}

	for i := range parts {
		r.renderParticle(dst, &parts[i], fw, false)
		if r.style.MirrorEnabled {
			r.renderParticle(dst, &parts[i], fw, true)
		}
	}
}

func (r *Renderer) renderBolt(dst surface.Surface, b *bolt.Bolt, snap features.Snapshot, seed, seq uint64, fw, fh float64, mirror bool) {
	glow := r.style.GlowStrength
	b.Walk(func(seg *bolt.Segment, idx int) {
		intensity := bolt.RenderIntensity(b, seg, idx, seed, seq, snap.Onset)
		if intensity <= 0 {
			return
		}
		segSeed := seed ^ b.ID*0x9E3779B185EBCA87 ^ uint64(idx)*0xC2B2AE3D27D4EB4F
		pts := seg.JaggedPoints(segSeed, seq, snap.High, boltSubdivisions)
		for i := range pts {
			pts[i] = r.place(pts[i].Add(b.Pos), fw, fh, mirror)
		}

		col := r.boltColor(seg.Depth)
		width := seg.Width * (0.6 + intensity)

		// Outer and inner bloom passes, then the bright core stroke.
		if glow > 0 {
			dst.StrokePath(pts, width*3.2, col, 0.07*glow*intensity, true)
			dst.StrokePath(pts, width*1.7, col, 0.18*glow*intensity, true)
		}
		core := geom.LerpRGB(col, geom.RGB{R: 255, G: 255, B: 255}, 0.55+0.45*intensity)
		dst.StrokePath(pts, math.Max(1, width*0.6), core, intensity, false)
	})
}

func (r *Renderer) renderParticle(dst surface.Surface, p *fire.Particle, fw float64, mirror bool) {
	op := p.Opacity()
	if op <= 0 {
		return
	}
	pos := p.Pos
	if mirror {
		pos.X = fw - pos.X
	}
	glow := r.style.GlowStrength
	if glow > 0 {
		dst.FillCircle(pos, p.Radius*2.4, p.Col, 0.22*op*glow, true)
	}
	core := geom.LerpRGB(p.Col, geom.RGB{R: 255, G: 255, B: 255}, 0.3*op)
	dst.FillCircle(pos, p.Radius, core, op, false)
}

// place applies the global rotation around the surface center and the
// optional mirror flip.
func (r *Renderer) place(p geom.Vec2, fw, fh float64, mirror bool) geom.Vec2 {
	if r.rotPhase != 0 {
		cx, cy := fw/2, fh/2
		sin, cos := math.Sincos(r.rotPhase)
		dx, dy := p.X-cx, p.Y-cy
		p = geom.Vec2{X: cx + dx*cos - dy*sin, Y: cy + dx*sin + dy*cos}
	}
	if mirror {
		p.X = fw - p.X
	}
	return p
}

// boltColor picks the stroke color: a slow rainbow sweep when enabled,
// otherwise the configured theme, slightly shifted per depth so branches
// read as distinct.
func (r *Renderer) boltColor(depth int) geom.RGB {
	if r.style.RainbowSpeed > 0 {
		hue := r.huePhase + float64(depth)*0.04
		hue -= math.Floor(hue)
		return geom.HSV(geom.SafeFloat(hue, 0), 0.75, 1.0)
	}
	return geom.LerpRGB(r.theme, geom.RGB{R: 255, G: 255, B: 255}, float64(depth)*0.1)
}
