// Package engine drives the per-refresh pipeline: pull a spectrum frame,
// extract features, tick both generators, then render. It owns all
// cross-tick state so the surrounding shell can stay stateless.
package engine

import (
	"time"

	"github.com/emberarc/emberarc/internal/bolt"
	"github.com/emberarc/emberarc/internal/config"
	"github.com/emberarc/emberarc/internal/features"
	"github.com/emberarc/emberarc/internal/fire"
	"github.com/emberarc/emberarc/internal/scene"
	"github.com/emberarc/emberarc/internal/spectrum"
	"github.com/emberarc/emberarc/internal/surface"
)

// State is the scheduler's lifecycle phase.
type State uint8

const (
	StateIdle State = iota
	StateRunning
)

// Engine wires the feature extractor, the two generators and the renderer
// behind one Tick entry point.
type Engine struct {
	source    spectrum.Source
	extractor *features.Extractor
	bolts     *bolt.Generator
	flames    *fire.Simulator
	renderer  *scene.Renderer

	bins  int
	state State

	// alive gates ticks: a refresh callback that fires after Stop must be
	// a no-op, not a state advance.
	alive bool

	lastTick  time.Time
	lastFrame spectrum.Frame
	lastSnap  features.Snapshot
	hasFrame  bool
}

// Config controls Engine construction.
type Config struct {
	Source spectrum.Source
	Style  config.Style
	Width  int
	Height int
	Bins   int
	Seed   int64
}

func New(cfg Config) *Engine {
	style := cfg.Style.Clamp()
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.Bins <= 0 {
		cfg.Bins = spectrum.DefaultBins
	}
	return &Engine{
		source:    cfg.Source,
		extractor: features.New(features.Config{Sensitivity: style.Sensitivity}),
		bolts: bolt.NewGenerator(bolt.Config{
			Width:    float64(cfg.Width),
			Height:   float64(cfg.Height),
			MaxBolts: style.MaxBolts,
			Seed:     cfg.Seed,
		}),
		flames: fire.NewSimulator(fire.Config{
			Width:        float64(cfg.Width),
			Height:       float64(cfg.Height),
			MaxParticles: style.MaxParticles,
			Theme:        style.Primary(),
			Seed:         cfg.Seed,
		}),
		renderer: scene.New(style),
		bins:     cfg.Bins,
	}
}

// Start attaches the engine to the refresh loop.
func (e *Engine) Start() {
	e.state = StateRunning
	e.alive = true
	e.lastTick = time.Time{}
}

// Stop detaches it: pending callbacks become no-ops and the last frame
// stays available for frozen re-rendering.
func (e *Engine) Stop() {
	e.state = StateIdle
	e.alive = false
}

func (e *Engine) State() State { return e.state }

// Tick runs one full pipeline pass and renders onto dst. A nil surface
// skips the whole tick; the next one retries independently. Returns whether
// the tick actually ran.
func (e *Engine) Tick(now time.Time, dst surface.Surface) bool {
	if !e.alive || e.state != StateRunning {
		return false
	}
	if dst == nil || e.source == nil {
		return false
	}

	dt := 1.0 / 60.0
	if !e.lastTick.IsZero() {
		dt = now.Sub(e.lastTick).Seconds()
	}
	e.lastTick = now
	if dt <= 0 {
		dt = 1.0 / 60.0
	}
	if dt > 0.25 {
		// A hitch this long would teleport the physics; cap it.
		dt = 0.25
	}

	frame := spectrum.Sanitize(e.source.Next(), e.bins)
	snap := e.extractor.Extract(frame)

	// The extractor must complete before either generator runs; the two
	// generators are independent of each other.
	e.bolts.Tick(snap, dt)
	e.flames.Tick(snap, dt)
	e.renderer.Advance(dt)

	e.lastFrame = frame
	e.lastSnap = snap
	e.hasFrame = true

	e.render(dst, snap)
	return true
}

// RenderFrozen redraws the last captured frame without advancing any state,
// so a paused visualizer repaints without jumping.
func (e *Engine) RenderFrozen(dst surface.Surface) {
	if dst == nil || !e.hasFrame {
		return
	}
	e.render(dst, e.lastSnap)
}

func (e *Engine) render(dst surface.Surface, snap features.Snapshot) {
	e.renderer.Render(dst, e.bolts.Bolts(), e.flames.Particles(), snap, e.bolts.Seed(), e.bolts.FlickerSeq())
}

// SetStyle applies live style changes: colors, sensitivity and render
// options take effect immediately. Pool capacities stay fixed for the
// engine's lifetime.
func (e *Engine) SetStyle(style config.Style) {
	style = style.Clamp()
	e.renderer.SetStyle(style)
	e.extractor.SetSensitivity(style.Sensitivity)
	e.flames.SetTheme(style.Primary())
}

// Style returns the renderer's active style.
func (e *Engine) Style() config.Style { return e.renderer.Style() }

// Resize propagates new surface bounds to both generators.
func (e *Engine) Resize(width, height int) {
	e.bolts.Resize(float64(width), float64(height))
	e.flames.Resize(float64(width), float64(height))
}

// LastSnapshot returns the features of the most recent tick, for telemetry.
func (e *Engine) LastSnapshot() features.Snapshot { return e.lastSnap }

// Counts reports live entity totals for the status line.
func (e *Engine) Counts() (bolts, particles int) {
	return e.bolts.Len(), e.flames.Len()
}
