// Package app is the runtime shell: it owns the audio capture, the engine,
// the presentation backend and the keyboard, and runs the refresh loop until
// the context is cancelled.
package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/emberarc/emberarc/internal/audio"
	"github.com/emberarc/emberarc/internal/config"
	"github.com/emberarc/emberarc/internal/engine"
	"github.com/emberarc/emberarc/internal/features"
	"github.com/emberarc/emberarc/internal/geom"
	"github.com/emberarc/emberarc/internal/spectrum"
	"github.com/emberarc/emberarc/internal/surface"
)

// Config configures the application runtime.
type Config struct {
	Device      string
	NoAudio     bool
	TargetFPS   float64
	Bins        int
	Width       int
	Height      int
	UseSDL      bool
	ProfilePath string
	Style       config.Style
	Seed        int64
	Log         *log.Logger
}

type inputEvent int

const (
	inputEventQuit inputEvent = iota
	inputEventPause
	inputEventRandomColor
	inputEventMirror
)

// presenter is the common face of the terminal and SDL backends.
type presenter interface {
	Present(c *surface.Canvas, status string) error
}

// App ties capture, engine and presentation together. The mutex covers the
// state the web server reaches in from other goroutines.
type App struct {
	cfg     Config
	log     *log.Logger
	capture *audio.Capture
	source  spectrum.Source

	mu     sync.RWMutex
	eng    *engine.Engine
	paused bool
	fps    float64

	canvas *surface.Canvas
	term   *surface.Terminal
	window *surface.Window
	out    presenter

	prof        *profiler
	rng         *rand.Rand
	inputEvents chan inputEvent
	deviceLabel string
	last        time.Time
}

// New builds the app: audio (real or synthetic), engine, and the chosen
// presentation backend.
func New(cfg Config) (*App, error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 30
	}
	if cfg.Bins <= 0 {
		cfg.Bins = spectrum.DefaultBins
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stdout, "", log.LstdFlags)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	a := &App{
		cfg: cfg,
		log: cfg.Log,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}

	if cfg.NoAudio {
		a.source = spectrum.NewSynthSource(cfg.Bins, cfg.Seed)
		a.log.Println("audio disabled, using synthetic spectrum")
	} else {
		if err := audio.Initialize(); err != nil {
			return nil, fmt.Errorf("portaudio init: %w", err)
		}
		capture, err := audio.NewCapture(audio.Config{Device: cfg.Device, Channels: 2})
		if err != nil {
			return nil, fmt.Errorf("audio capture: %w", err)
		}
		a.capture = capture
		a.deviceLabel = capture.DeviceName()
		a.source = spectrum.NewFFTSource(spectrum.FFTConfig{
			Samples:    capture.Samples,
			SampleRate: capture.SampleRate(),
			Bins:       cfg.Bins,
		})
		a.log.Printf("audio capture started on %q @ %.0f Hz", a.deviceLabel, capture.SampleRate())
	}

	w, h, err := a.setupOutput()
	if err != nil {
		return nil, err
	}
	a.canvas = surface.NewCanvas(w, h)

	a.eng = engine.New(engine.Config{
		Source: a.source,
		Style:  cfg.Style,
		Width:  w,
		Height: h,
		Bins:   cfg.Bins,
		Seed:   cfg.Seed,
	})

	a.prof = newProfiler(cfg.ProfilePath, cfg.Log)
	return a, nil
}

// setupOutput opens the presentation backend and returns the canvas size.
func (a *App) setupOutput() (int, int, error) {
	if a.cfg.UseSDL {
		if !surface.SupportsSDL() {
			return 0, 0, fmt.Errorf("SDL output requested but not compiled in, rebuild with -tags sdl")
		}
		w, h := a.cfg.Width, a.cfg.Height
		if w <= 0 {
			w = 1024
		}
		if h <= 0 {
			h = 600
		}
		win, err := surface.NewWindow("emberarc", w, h)
		if err != nil {
			return 0, 0, fmt.Errorf("open window: %w", err)
		}
		a.window = win
		a.out = win
		return w, h, nil
	}

	a.term = surface.NewTerminal(os.Stdout)
	a.out = a.term
	cols, rows := a.term.CellSize()
	// Each terminal cell stacks two pixels vertically via half blocks.
	return cols, rows * 2, nil
}

// Run drives the refresh loop until the context ends or the user quits.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / a.cfg.TargetFPS))
	defer ticker.Stop()

	if a.term != nil {
		a.term.EnterAltScreen()
		defer a.term.ExitAltScreen()
	}

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	a.startInputListener(inputCtx)

	a.eng.Start()
	defer a.eng.Stop()
	a.last = time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			if quit := a.handleInput(evt); quit {
				return nil
			}
		case now := <-ticker.C:
			if err := a.step(now); err != nil {
				if err == surface.ErrClosed {
					return nil
				}
				return err
			}
		}
	}
}

// Close releases audio and profiler resources.
func (a *App) Close() error {
	if a.prof != nil {
		_ = a.prof.Close()
	}
	if a.window != nil {
		_ = a.window.Close()
	}
	if a.capture != nil {
		err := a.capture.Close()
		audio.Terminate()
		return err
	}
	return nil
}

func (a *App) step(now time.Time) error {
	a.prof.beginFrame()
	a.ensureDimensions()

	delta := now.Sub(a.last).Seconds()
	a.last = now

	a.mu.Lock()
	if a.paused {
		a.eng.RenderFrozen(a.canvas)
	} else {
		a.eng.Tick(now, a.canvas)
		if delta > 0 {
			a.fps = 1.0 / delta
		}
	}
	status := a.statusLine()
	a.mu.Unlock()
	a.prof.markSection("tick")

	err := a.out.Present(a.canvas, status)
	a.prof.markSection("present")
	a.prof.endFrame()
	return err
}

func (a *App) statusLine() string {
	snap := a.eng.LastSnapshot()
	bolts, parts := a.eng.Counts()
	state := "live"
	if a.paused {
		state = "paused"
	}
	s := fmt.Sprintf("emberarc | %s | %.0f fps | bolts %d | embers %d | bass %.2f",
		state, a.fps, bolts, parts, snap.Bass)
	if snap.Onset {
		s += " | onset"
	}
	if snap.Silent {
		s += " | silent"
	}
	if a.deviceLabel != "" {
		s += " | " + a.deviceLabel
	}
	return s
}

// ensureDimensions tracks terminal resizes. SDL windows keep their size.
func (a *App) ensureDimensions() {
	if a.term == nil {
		return
	}
	cols, rows := a.term.CellSize()
	w, h := cols, rows*2
	cw, ch := a.canvas.Size()
	if w == cw && h == ch {
		return
	}
	a.canvas.Resize(w, h)
	a.mu.Lock()
	a.eng.Resize(w, h)
	a.mu.Unlock()
}

func (a *App) handleInput(evt inputEvent) (quit bool) {
	switch evt {
	case inputEventQuit:
		return true
	case inputEventPause:
		a.mu.Lock()
		a.paused = !a.paused
		if a.paused {
			a.eng.Stop()
		} else {
			a.eng.Start()
		}
		a.mu.Unlock()
	case inputEventRandomColor:
		a.randomizeColor()
	case inputEventMirror:
		a.mu.Lock()
		style := a.eng.Style()
		style.MirrorEnabled = !style.MirrorEnabled
		a.eng.SetStyle(style)
		a.mu.Unlock()
	}
	return false
}

// randomizeColor rolls a new theme hue at full saturation.
func (a *App) randomizeColor() {
	c := geom.HSV(a.rng.Float64(), 0.85, 1.0)
	hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)

	a.mu.Lock()
	style := a.eng.Style()
	style.PrimaryColor = hex
	a.eng.SetStyle(style)
	a.mu.Unlock()

	a.log.Printf("theme color -> %s", hex)
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		a.inputEvents = nil
		return
	}

	events := make(chan inputEvent, 16)
	a.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() { _ = keyboard.Close() })
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() { _ = keyboard.Close() })
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			switch {
			case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
				events <- inputEventQuit
				return
			case key == keyboard.KeySpace:
				events <- inputEventPause
			case char == 'r' || char == 'R':
				select {
				case events <- inputEventRandomColor:
				default:
				}
			case char == 'm' || char == 'M':
				events <- inputEventMirror
			}
		}
	}()
}

// Style, ApplyStyle, Snapshot, FPS and Paused make App the controller the
// web server talks to.

func (a *App) Style() config.Style {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eng.Style()
}

func (a *App) ApplyStyle(s config.Style) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eng.SetStyle(s)
}

func (a *App) Snapshot() features.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eng.LastSnapshot()
}

func (a *App) FPS() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fps
}

func (a *App) Paused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}
