package fire

import (
	"math"
	"math/rand"
	"time"

	"github.com/emberarc/emberarc/internal/features"
	"github.com/emberarc/emberarc/internal/geom"
	"github.com/emberarc/emberarc/internal/pool"
)

// Emission and integration constants. Tuned values, kept as named knobs.
const (
	// BaseEmission keeps the flame visually alive even at zero intensity.
	BaseEmission = 2

	// EmissionScale converts overall intensity into extra particles/tick.
	EmissionScale = 10

	// BurstBase and BurstScale size the extra one-shot emission on onsets.
	BurstBase  = 8
	BurstScale = 24

	// TurbulenceAmp and TurbulenceFreq shape the sideways wobble.
	TurbulenceAmp  = 26.0
	TurbulenceFreq = 3.1

	particleMinAge = 0.5 // seconds
	particleMaxAge = 1.4
	burstMaxAge    = 0.7

	// HotChance is the probability a particle takes the hot palette
	// instead of the configured theme color.
	HotChance = 0.65
)

var (
	hotCore  = geom.RGB{R: 255, G: 236, B: 160}
	hotOuter = geom.RGB{R: 255, G: 120, B: 20}
)

// Simulator owns the particle pool: emission, physical integration and
// retirement all happen here, once per tick.
type Simulator struct {
	rng       *rand.Rand
	particles *pool.Pool[Particle]

	width  float64
	height float64
	origin geom.Vec2
	theme  geom.RGB

	clock float64
}

// Config controls Simulator construction.
type Config struct {
	Width        float64
	Height       float64
	MaxParticles int
	Theme        geom.RGB
	Seed         int64
}

func NewSimulator(cfg Config) *Simulator {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.MaxParticles <= 0 {
		cfg.MaxParticles = 400
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	s := &Simulator{
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		particles: pool.New[Particle](cfg.MaxParticles),
		theme:     cfg.Theme,
	}
	s.Resize(cfg.Width, cfg.Height)
	return s
}

// Resize moves the emission origin to the bottom center of the surface.
func (s *Simulator) Resize(w, h float64) {
	if w > 0 {
		s.width = w
	}
	if h > 0 {
		s.height = h
	}
	s.origin = geom.Vec2{X: s.width / 2, Y: s.height * 0.92}
}

// SetTheme swaps the configured flame theme color.
func (s *Simulator) SetTheme(c geom.RGB) { s.theme = c }

// Tick integrates every live particle, retires the dead, and emits the
// frame's new particles (plus a burst on onsets).
func (s *Simulator) Tick(snap features.Snapshot, dt float64) {
	if dt <= 0 {
		return
	}
	s.clock += dt

	s.particles.ForEach(func(p *Particle) bool {
		p.Age -= dt
		if p.Age <= 0 {
			return false
		}
		// Buoyancy plus a per-particle phase wobble so the column does
		// not move in lockstep.
		wob := math.Sin(s.clock*TurbulenceFreq+p.Phase) * TurbulenceAmp
		p.Pos.X += (p.Vel.X + wob) * dt
		p.Pos.Y += p.Vel.Y * dt
		p.Vel.Y -= 14 * dt // slight upward acceleration over lifetime
		return true
	})

	count := BaseEmission + int(math.Floor(EmissionScale*snap.Overall))
	for i := 0; i < count; i++ {
		s.particles.Insert(s.emit(snap, false))
	}
	if snap.Onset {
		burst := BurstBase + int(math.Floor(BurstScale*snap.Overall))
		for i := 0; i < burst; i++ {
			s.particles.Insert(s.emit(snap, true))
		}
	}
}

func (s *Simulator) emit(snap features.Snapshot, burst bool) Particle {
	jitter := (s.rng.Float64() - 0.5) * (20 + 120*snap.Mid)
	p := Particle{
		Pos:         geom.Vec2{X: s.origin.X + jitter, Y: s.origin.Y + (s.rng.Float64()-0.5)*8},
		Radius:      1.5 + s.rng.Float64()*2.5 + 2*snap.Overall,
		Phase:       s.rng.Float64() * 2 * math.Pi,
		AudioWeight: geom.Clamp01(0.3 + snap.Overall),
	}

	if burst {
		// Radial one-shot spray with a short lifespan.
		ang := s.rng.Float64() * 2 * math.Pi
		spd := 60 + s.rng.Float64()*140*(0.5+snap.Overall)
		p.Vel = geom.Vec2{X: math.Cos(ang) * spd, Y: math.Sin(ang)*spd - 40}
		p.MaxAge = 0.2 + s.rng.Float64()*(burstMaxAge-0.2)
	} else {
		rise := 40 + 110*snap.Overall
		p.Vel = geom.Vec2{X: (s.rng.Float64() - 0.5) * 18, Y: -(rise * (0.7 + s.rng.Float64()*0.6))}
		p.MaxAge = particleMinAge + s.rng.Float64()*(particleMaxAge-particleMinAge)
	}
	p.Age = p.MaxAge

	if s.rng.Float64() < HotChance {
		p.Col = geom.LerpRGB(hotCore, hotOuter, s.rng.Float64())
	} else {
		p.Col = s.theme
	}
	return p
}

// Particles returns copies of the live particles oldest-first.
func (s *Simulator) Particles() []Particle { return s.particles.Snapshot() }

func (s *Simulator) Len() int { return s.particles.Len() }
