//go:build !sdl

package surface

import "errors"

type Window struct{}

func NewWindow(title string, width, height int) (*Window, error) {
	return nil, errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

func (w *Window) Present(c *Canvas, status string) error { return ErrClosed }

func (w *Window) Close() error { return nil }

func SupportsSDL() bool { return false }
