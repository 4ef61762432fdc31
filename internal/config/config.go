// Package config holds the style options the application shell feeds into
// the animation engine. Everything is clamped to safe ranges: a bad value
// from a flag or the web API degrades to a default, it never becomes NaN
// geometry downstream.
package config

import (
	"github.com/emberarc/emberarc/internal/geom"
)

// Style is the recognized visual configuration.
type Style struct {
	// PrimaryColor is the theme color as "#rrggbb".
	PrimaryColor string `json:"primaryColor"`

	// Sensitivity multiplies perceived audio energy.
	Sensitivity float64 `json:"sensitivity"`

	// MirrorEnabled mirrors the scene horizontally around the center.
	MirrorEnabled bool `json:"mirrorEnabled"`

	// RotationSpeed and RainbowSpeed are animation-rate multipliers.
	RotationSpeed float64 `json:"rotationSpeed"`
	RainbowSpeed  float64 `json:"rainbowSpeed"`

	// GlowStrength scales the bloom passes.
	GlowStrength float64 `json:"glowStrength"`

	// MaxBolts and MaxParticles are the generator pool capacities.
	MaxBolts     int `json:"maxBolts"`
	MaxParticles int `json:"maxParticles"`
}

// Defaults returns the calm baseline style.
func Defaults() Style {
	return Style{
		PrimaryColor:  "#5ac8ff",
		Sensitivity:   1.0,
		RotationSpeed: 1.0,
		RainbowSpeed:  1.0,
		GlowStrength:  1.0,
		MaxBolts:      8,
		MaxParticles:  400,
	}
}

// Clamp returns a copy of s with every field forced into its safe range and
// unparseable colors replaced by the default. Zero is a valid setting for the
// rate and strength fields (rotation off, rainbow off, no glow); only
// Sensitivity and the pool capacities treat zero as unset.
func (s Style) Clamp() Style {
	def := Defaults()

	if !geom.IsHex(s.PrimaryColor) {
		s.PrimaryColor = def.PrimaryColor
	}
	s.Sensitivity = safeRange(s.Sensitivity, 0.1, 10, def.Sensitivity)
	s.RotationSpeed = clampRate(s.RotationSpeed, 8, def.RotationSpeed)
	s.RainbowSpeed = clampRate(s.RainbowSpeed, 8, def.RainbowSpeed)
	s.GlowStrength = clampRate(s.GlowStrength, 4, def.GlowStrength)
	if s.MaxBolts <= 0 || s.MaxBolts > 64 {
		s.MaxBolts = def.MaxBolts
	}
	if s.MaxParticles <= 0 || s.MaxParticles > 20000 {
		s.MaxParticles = def.MaxParticles
	}
	return s
}

// Primary returns the parsed theme color.
func (s Style) Primary() geom.RGB {
	return geom.ParseHex(s.PrimaryColor, geom.ParseHex(Defaults().PrimaryColor, geom.RGB{R: 90, G: 200, B: 255}))
}

// safeRange treats zero as unset and falls back, for fields where zero is
// never a legitimate value.
func safeRange(v, lo, hi, fallback float64) float64 {
	v = geom.SafeFloat(v, fallback)
	if v == 0 && fallback != 0 {
		return fallback
	}
	return geom.ClampF(v, lo, hi)
}

// clampRate keeps explicit zeros: 0 disables the effect. Only NaN and
// infinities fall back.
func clampRate(v, hi, fallback float64) float64 {
	return geom.ClampF(geom.SafeFloat(v, fallback), 0, hi)
}
