//go:build sdl

package surface

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Window presents a Canvas in an SDL window via a streaming texture.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	buf      []byte
	width    int
	height   int
	title    string
}

func NewWindow(title string, width, height int) (*Window, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}
	win, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, err
	}
	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		win.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, err
	}
	_ = renderer.SetLogicalSize(int32(width), int32(height))
	w := &Window{
		window:   win,
		renderer: renderer,
		title:    title,
	}
	if err := w.ensureTexture(width, height); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Window) ensureTexture(width, height int) error {
	if w.texture != nil && w.width == width && w.height == height {
		return nil
	}
	if w.texture != nil {
		w.texture.Destroy()
		w.texture = nil
	}
	tex, err := w.renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		int32(width), int32(height),
	)
	if err != nil {
		return err
	}
	w.texture = tex
	w.width = width
	w.height = height
	w.buf = make([]byte, width*height*4)
	return nil
}

// Present blits the canvas pixels and pumps the SDL event queue. Returns
// ErrClosed once the user quits the window.
func (w *Window) Present(c *Canvas, status string) error {
	cw, ch := c.Size()
	if err := w.ensureTexture(cw, ch); err != nil {
		return err
	}
	src := c.Pixels()
	for i, o := 0, 0; i+2 < len(src); i, o = i+3, o+4 {
		w.buf[o] = src[i]
		w.buf[o+1] = src[i+1]
		w.buf[o+2] = src[i+2]
		w.buf[o+3] = 255
	}
	if status != "" && status != w.title {
		_ = w.window.SetTitle(status)
		w.title = status
	}
	if err := w.texture.Update(nil, w.buf, w.width*4); err != nil {
		return err
	}
	if err := w.renderer.Clear(); err != nil {
		return err
	}
	if err := w.renderer.Copy(w.texture, nil, nil); err != nil {
		return err
	}
	w.renderer.Present()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch event.(type) {
		case *sdl.QuitEvent:
			return ErrClosed
		}
	}
	return nil
}

func (w *Window) Close() error {
	if w.texture != nil {
		w.texture.Destroy()
		w.texture = nil
	}
	if w.renderer != nil {
		w.renderer.Destroy()
		w.renderer = nil
	}
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

// SupportsSDL reports whether the binary was built with the sdl tag.
func SupportsSDL() bool { return true }
