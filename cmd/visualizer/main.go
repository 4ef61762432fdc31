package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberarc/emberarc/internal/app"
	"github.com/emberarc/emberarc/internal/audio"
	"github.com/emberarc/emberarc/internal/config"
	"github.com/emberarc/emberarc/internal/web"
)

func main() {
	var (
		device       = flag.String("audio-device", "", "PortAudio input device name (substring match)")
		targetFPS    = flag.Float64("fps", 30, "Target frames per second")
		bins         = flag.Int("bins", 128, "Spectrum bin count")
		noAudio      = flag.Bool("no-audio", false, "Run with a synthetic spectrum (for testing)")
		color        = flag.String("color", "", "Theme color as #rrggbb")
		sensitivity  = flag.Float64("sensitivity", 0, "Audio sensitivity multiplier (0 = default)")
		mirror       = flag.Bool("mirror", false, "Mirror the scene horizontally")
		glow         = flag.Float64("glow", 0, "Glow strength (0 = default)")
		maxBolts     = flag.Int("max-bolts", 0, "Discharge pool capacity (0 = default)")
		maxParticles = flag.Int("max-particles", 0, "Ember pool capacity (0 = default)")
		useSDL       = flag.Bool("sdl", false, "Render into an SDL window (requires -tags sdl build)")
		width        = flag.Int("width", 1024, "Window width (SDL only)")
		height       = flag.Int("height", 600, "Window height (SDL only)")
		webPort      = flag.Int("web-port", 0, "Serve the control API on this port (0 = off)")
		profilePath  = flag.String("profile", "", "Append per-frame timings to this CSV file")
		loadSaved    = flag.Bool("load-config", false, "Load the last saved style before applying flags")
		listDevs     = flag.Bool("list-audio-devices", false, "List audio input devices and exit")
		seed         = flag.Int64("seed", 0, "Deterministic seed (0 = time-based)")
	)

	flag.Parse()

	if *targetFPS <= 0 {
		log.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}
	if *bins <= 0 {
		log.Fatalf("bins must be positive (got %d)", *bins)
	}

	logger := log.New(os.Stderr, "[emberarc] ", log.LstdFlags)

	if *listDevs {
		if err := audio.Initialize(); err != nil {
			logger.Fatalf("portaudio init: %v", err)
		}
		defer audio.Terminate()
		devices, err := audio.ListDevices()
		if err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		fmt.Printf("\n=== Audio Input Devices ===\n\n")
		for _, dev := range devices {
			if dev.MaxInput == 0 {
				continue
			}
			marker := ""
			if dev.IsDefaultInput {
				marker = " (default)"
			}
			fmt.Printf("- %s [%s]%s\n    inputs:%d sample:%.0f Hz\n",
				dev.Name, dev.HostAPI, marker, dev.MaxInput, dev.SampleRate)
		}
		return
	}

	style := config.Defaults()
	if *loadSaved {
		if saved, err := web.LoadStyle(web.ConfigPath()); err == nil {
			style = saved
			logger.Printf("loaded style from %s", web.ConfigPath())
		} else if !os.IsNotExist(err) {
			logger.Printf("load config: %v", err)
		}
	}
	if *color != "" {
		style.PrimaryColor = *color
	}
	if *sensitivity > 0 {
		style.Sensitivity = *sensitivity
	}
	if *mirror {
		style.MirrorEnabled = true
	}
	if *glow > 0 {
		style.GlowStrength = *glow
	}
	if *maxBolts > 0 {
		style.MaxBolts = *maxBolts
	}
	if *maxParticles > 0 {
		style.MaxParticles = *maxParticles
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Config{
		Device:      *device,
		NoAudio:     *noAudio,
		TargetFPS:   *targetFPS,
		Bins:        *bins,
		Width:       *width,
		Height:      *height,
		UseSDL:      *useSDL,
		ProfilePath: *profilePath,
		Style:       style,
		Seed:        *seed,
		Log:         logger,
	})
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if *webPort > 0 {
		server := web.NewServer(a)
		defer server.Close()
		go func() {
			if err := server.Start(*webPort); err != nil {
				logger.Printf("web server stopped: %v", err)
			}
		}()
	}

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatalf("runtime error: %v", err)
	}
}
