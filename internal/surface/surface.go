// Package surface abstracts the 2D drawing target the animation core renders
// onto. The core only sees the Surface interface; presentation (SDL window,
// ANSI terminal) happens behind it.
package surface

import (
	"errors"

	"github.com/emberarc/emberarc/internal/geom"
)

// ErrClosed is returned by presenters once the user closed the output.
var ErrClosed = errors.New("surface closed")

// Surface is the drawing command set the frame renderer issues. Additive
// draws saturate toward white, which is what gives glow passes their bloom.
type Surface interface {
	Size() (w, h int)
	Clear(c geom.RGB)
	FillRect(x, y, w, h float64, c geom.RGB, alpha float64)
	StrokePath(pts []geom.Vec2, width float64, c geom.RGB, alpha float64, additive bool)
	FillCircle(center geom.Vec2, radius float64, c geom.RGB, alpha float64, additive bool)
}
