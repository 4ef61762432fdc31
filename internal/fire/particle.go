package fire

import "github.com/emberarc/emberarc/internal/geom"

// Particle is one pooled flame mote. Age counts down in seconds; a particle
// whose age reaches zero is removed on the next tick.
type Particle struct {
	Pos geom.Vec2
	Vel geom.Vec2

	Radius float64
	Col    geom.RGB

	Age    float64
	MaxAge float64

	// Phase desynchronizes the turbulence wobble between particles.
	Phase float64

	// AudioWeight scales opacity with how energetic the music was at
	// emission time.
	AudioWeight float64
}

// Opacity is the particle's current alpha: remaining-life fraction shaped by
// the audio weight captured at emission.
func (p *Particle) Opacity() float64 {
	if p.MaxAge <= 0 {
		return 0
	}
	life := geom.Clamp01(p.Age / p.MaxAge)
	return geom.Clamp01(life * (0.4 + 0.6*p.AudioWeight))
}
