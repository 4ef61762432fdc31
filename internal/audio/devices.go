package audio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Device is a flattened view of one PortAudio device for listings.
type Device struct {
	Name           string
	HostAPI        string
	MaxInput       int
	MaxOutput      int
	SampleRate     float64
	IsDefaultInput bool
}

// ListDevices enumerates every device across host APIs, sorted by host then
// name, for the -list-audio-devices flag.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}

	defIdx := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defIdx = def.Index
	}

	out := make([]Device, 0, len(hosts)*4)
	for _, host := range hosts {
		for _, d := range host.Devices {
			out = append(out, Device{
				Name:           d.Name,
				HostAPI:        host.Name,
				MaxInput:       d.MaxInputChannels,
				MaxOutput:      d.MaxOutputChannels,
				SampleRate:     d.DefaultSampleRate,
				IsDefaultInput: d.Index == defIdx,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].HostAPI == out[j].HostAPI {
			return out[i].Name < out[j].Name
		}
		return out[i].HostAPI < out[j].HostAPI
	})
	return out, nil
}

// findDevice resolves a name substring to an input device, or autodetects
// the most promising one when name is empty.
func findDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("list audio devices: %w", err)
		}
		name = strings.ToLower(name)
		for _, d := range devices {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), name) {
				return d, nil
			}
		}
		return nil, fmt.Errorf("audio device %q not found", name)
	}

	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
		return dev, nil
	}
	if host, err := portaudio.DefaultHostApi(); err == nil && host != nil {
		if d := host.DefaultInputDevice; d != nil && d.MaxInputChannels > 0 {
			return d, nil
		}
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	if best := scoreDevices(devices); best != nil {
		return best, nil
	}
	return nil, fmt.Errorf("no usable audio input device")
}

// scoreDevices prefers loopback/monitor style devices, which carry what the
// machine is actually playing rather than the microphone.
func scoreDevices(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	loopbackHints := []string{"monitor", "loopback", "stereo mix", "what u hear"}

	var best *portaudio.DeviceInfo
	bestScore := -1
	for _, d := range devices {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}
		score := d.MaxInputChannels
		lower := strings.ToLower(d.Name)
		for _, hint := range loopbackHints {
			if strings.Contains(lower, hint) {
				score += 25
				break
			}
		}
		if strings.Contains(lower, "default") {
			score += 10
		}
		if score > bestScore || (score == bestScore && best != nil && lower < strings.ToLower(best.Name)) {
			best, bestScore = d, score
		}
	}
	return best
}
