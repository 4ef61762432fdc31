// Package audio owns the PortAudio input side: stream lifecycle, device
// selection and a lock-guarded ring of the most recent mono samples. The
// spectrum layer pulls from here through a plain sample provider func.
package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const defaultRingSize = 4096

// Capture is an open input stream feeding a fixed-size sample ring. The
// PortAudio callback writes, the render loop reads, the mutex keeps them
// honest.
type Capture struct {
	stream     *portaudio.Stream
	device     *portaudio.DeviceInfo
	sampleRate float64
	channels   int

	mu      sync.RWMutex
	ring    []float32
	write   int
	scratch []float32
}

// Config selects the device and sizes the ring.
type Config struct {
	// Device is a case-insensitive substring of the device name. Empty
	// means autodetect.
	Device string

	// RingSize is the number of mono samples retained. Powers of two keep
	// the FFT happy; zero picks the default.
	RingSize int

	Channels int
}

// NewCapture opens and starts an input stream on the configured device.
func NewCapture(cfg Config) (*Capture, error) {
	if cfg.RingSize <= 0 {
		cfg.RingSize = defaultRingSize
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	device, err := findDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	if cfg.Channels > device.MaxInputChannels {
		cfg.Channels = device.MaxInputChannels
	}

	c := &Capture{
		device:     device,
		sampleRate: device.DefaultSampleRate,
		channels:   cfg.Channels,
		ring:       make([]float32, cfg.RingSize),
	}

	frames := cfg.RingSize / cfg.Channels
	if frames < 64 {
		frames = portaudio.FramesPerBufferUnspecified
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      c.sampleRate,
		FramesPerBuffer: frames,
	}, c.ingest)
	if err != nil {
		return nil, fmt.Errorf("open stream on %q: %w", device.Name, err)
	}
	c.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start stream on %q: %w", device.Name, err)
	}
	return c, nil
}

// Close stops and closes the stream. Stopping an already stopped stream is
// tolerated.
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !isStoppedStreamErr(err) {
		return err
	}
	return c.stream.Close()
}

func (c *Capture) SampleRate() float64 { return c.sampleRate }

func (c *Capture) DeviceName() string {
	if c.device == nil {
		return ""
	}
	return c.device.Name
}

// Samples copies the ring out in chronological order, oldest sample first.
// Safe to call from any goroutine.
func (c *Capture) Samples() []float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]float32, len(c.ring))
	n := copy(out, c.ring[c.write:])
	copy(out[n:], c.ring[:c.write])
	return out
}

// ingest is the PortAudio callback: downmix to mono, append to the ring.
func (c *Capture) ingest(in []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channels > 1 {
		frames := len(in) / c.channels
		if cap(c.scratch) < frames {
			c.scratch = make([]float32, frames)
		}
		mono := c.scratch[:frames]
		for i := 0; i < frames; i++ {
			var sum float32
			for ch := 0; ch < c.channels; ch++ {
				sum += in[i*c.channels+ch]
			}
			mono[i] = sum / float32(c.channels)
		}
		in = mono
	}
	c.append(in)
}

func (c *Capture) append(in []float32) {
	if len(in) >= len(c.ring) {
		copy(c.ring, in[len(in)-len(c.ring):])
		c.write = 0
		return
	}
	for len(in) > 0 {
		n := copy(c.ring[c.write:], in)
		c.write = (c.write + n) % len(c.ring)
		in = in[n:]
	}
}

func isStoppedStreamErr(err error) bool {
	// PortAudio reports stopping a stopped stream as PaErrorCode -9986.
	return err != nil && strings.Contains(err.Error(), "PaErrorCode -9986")
}
