package bolt

import (
	"math"
	"math/rand"
	"time"

	"github.com/emberarc/emberarc/internal/features"
	"github.com/emberarc/emberarc/internal/geom"
	"github.com/emberarc/emberarc/internal/pool"
)

// Lifecycle constants.
const (
	// FadeDecay is the per-tick intensity multiplier while fading
	// (normalized to 60Hz ticks).
	FadeDecay = 0.95

	// FadeFloor removes a fading bolt once its intensity drops below it.
	FadeFloor = 0.01

	// SpawnEnergy is the sustained overall intensity required before a new
	// bolt may appear.
	SpawnEnergy = 0.25

	// OnsetSpeedBoost multiplies drift speed on the tick of an onset.
	OnsetSpeedBoost = 2.5

	boltMinAge = 1.6 // seconds
	boltMaxAge = 4.2
)

// State is a bolt's lifecycle phase. Transitions are handled exhaustively in
// advance; there are no ad-hoc fade booleans.
type State uint8

const (
	StateActive State = iota
	StateFading
	StateRemoved
)

// Bolt is one discharge tree with its own drift and lifecycle. Root geometry
// is in bolt-local coordinates; Pos anchors it on the surface.
type Bolt struct {
	ID        uint64
	Root      *Segment
	Age       float64
	MaxAge    float64
	Pos       geom.Vec2
	Vel       geom.Vec2
	Intensity float64
	State     State
}

// Walk visits the segment tree depth-first, handing each segment a stable
// ordinal used for per-segment flicker hashing.
func (b *Bolt) Walk(fn func(seg *Segment, idx int)) {
	idx := 0
	var visit func(*Segment)
	visit = func(s *Segment) {
		fn(s, idx)
		idx++
		for _, c := range s.Children {
			visit(c)
		}
	}
	if b.Root != nil {
		visit(b.Root)
	}
}

// Generator owns the bolt pool and evolves it from feature snapshots.
type Generator struct {
	rng    *rand.Rand
	bolts  *pool.Pool[Bolt]
	width  float64
	height float64

	nextID  uint64
	sustain float64
	seq     uint64
	seed    uint64
}

// Config controls Generator construction.
type Config struct {
	Width    float64
	Height   float64
	MaxBolts int
	Seed     int64
}

func NewGenerator(cfg Config) *Generator {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.MaxBolts <= 0 {
		cfg.MaxBolts = 8
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		bolts:  pool.New[Bolt](cfg.MaxBolts),
		width:  cfg.Width,
		height: cfg.Height,
		seed:   uint64(cfg.Seed),
	}
}

// Resize updates the surface bounds used for spawning and regeneration.
func (g *Generator) Resize(w, h float64) {
	if w > 0 {
		g.width = w
	}
	if h > 0 {
		g.height = h
	}
}

// Tick advances every bolt one frame and spawns a new one when the music
// sustains enough energy and a pool slot is free.
func (g *Generator) Tick(snap features.Snapshot, dt float64) {
	if dt <= 0 {
		return
	}
	g.seq++
	g.sustain = geom.Lerp(g.sustain, snap.Overall, 0.2)

	g.bolts.ForEach(func(b *Bolt) bool {
		return g.advance(b, snap, dt)
	})

	if !snap.Silent && g.sustain > SpawnEnergy && g.bolts.Len() < g.bolts.Cap() {
		g.bolts.Insert(g.spawn(snap))
	}
}

// advance returns false once the bolt should leave the pool.
func (g *Generator) advance(b *Bolt, snap features.Snapshot, dt float64) bool {
	// Silence drives the Active<->Fading transition in both directions; a
	// bolt resumes at its decayed intensity, it does not reset.
	switch b.State {
	case StateActive:
		if snap.Silent {
			b.State = StateFading
		}
	case StateFading:
		if !snap.Silent {
			b.State = StateActive
		}
	case StateRemoved:
		return false
	}

	b.Age += dt
	if b.Age > b.MaxAge {
		b.State = StateRemoved
		return false
	}
	if b.Intensity <= 0 {
		// Underflowed intensity counts as already faded.
		b.State = StateRemoved
		return false
	}

	switch b.State {
	case StateFading:
		b.Intensity *= math.Pow(FadeDecay, dt*60)
		if b.Intensity < FadeFloor {
			b.State = StateRemoved
			return false
		}
	case StateActive:
		mult := 1.0
		if snap.Onset {
			mult = OnsetSpeedBoost
		}
		b.Pos = b.Pos.Add(b.Vel.Scale(dt * mult))
		if g.outOfBounds(b) {
			// Reposition instead of destroying: the bolt keeps its
			// pool slot and identity, only its tree is rebuilt.
			g.regenerate(b, snap)
		}
	}
	return true
}

func (g *Generator) outOfBounds(b *Bolt) bool {
	margin := g.height * 0.25
	return b.Pos.X < -margin || b.Pos.X > g.width+margin ||
		b.Pos.Y < -margin || b.Pos.Y > g.height+margin
}

func (g *Generator) spawn(snap features.Snapshot) Bolt {
	g.nextID++
	b := Bolt{
		ID:    g.nextID,
		State: StateActive,
	}
	g.regenerate(&b, snap)
	return b
}

// regenerate rebuilds the bolt's geometry at a fresh origin and resets its
// age. Called both at spawn and when a drifting bolt exits the surface.
func (g *Generator) regenerate(b *Bolt, snap features.Snapshot) {
	b.Pos = geom.Vec2{
		X: g.width * (0.15 + g.rng.Float64()*0.7),
		Y: g.height * g.rng.Float64() * 0.15,
	}
	drift := 10 + g.rng.Float64()*30
	if g.rng.Intn(2) == 0 {
		drift = -drift
	}
	b.Vel = geom.Vec2{X: drift, Y: (g.rng.Float64() - 0.5) * 8}
	b.Age = 0
	b.MaxAge = boltMinAge + g.rng.Float64()*(boltMaxAge-boltMinAge)

	intensity := 0.5 + 0.5*snap.Overall
	if snap.Onset {
		intensity = math.Max(intensity, 0.85)
	}
	if b.Intensity == 0 {
		b.Intensity = intensity
	} else {
		// Regeneration keeps the stronger of old and new energy so a
		// repositioned bolt does not pop brighter out of nowhere.
		b.Intensity = math.Max(b.Intensity, intensity)
	}

	angle := math.Pi/2 + (g.rng.Float64()-0.5)*0.7 // downward stroke
	length := g.height * (0.3 + 0.35*snap.Overall)
	width := 1.5 + 3.5*snap.Overall
	if snap.Onset {
		width += 1.0
	}
	b.Root = buildSegment(geom.Vec2{}, angle, length, width, intensity, 0, g.rng)
}

// Bolts returns copies of the live bolts oldest-first for rendering and
// inspection. The segment trees are shared read-only.
func (g *Generator) Bolts() []Bolt { return g.bolts.Snapshot() }

func (g *Generator) Len() int { return g.bolts.Len() }

// FlickerSeq is the per-tick sequence feeding the render-side jitter hash.
// It only advances inside Tick, so a frozen scheduler renders identically.
func (g *Generator) FlickerSeq() uint64 { return g.seq }

// Seed exposes the hash seed shared with the renderer.
func (g *Generator) Seed() uint64 { return g.seed }

// RenderIntensity is the draw intensity of one segment: the bolt's current
// intensity shaped by depth falloff, a deterministic per-frame flicker and a
// pulse on onsets. Pure, so the renderer stays read-only.
func RenderIntensity(b *Bolt, seg *Segment, idx int, seed, seq uint64, onset bool) float64 {
	depthFall := math.Pow(0.78, float64(seg.Depth))
	jitter := 0.85 + 0.3*hash01(seed^b.ID, uint64(idx), seq)
	pulse := 1.0
	if onset {
		pulse = 1.35
	}
	return geom.Clamp01(b.Intensity * seg.Intensity * depthFall * jitter * pulse)
}
