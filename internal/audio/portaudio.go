package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Initialize must be called once before ListDevices or Open
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate releases PortAudio. Sessions must be closed first.
func Terminate() error {
	return portaudio.Terminate()
}

// ListDevices returns the devices that can capture audio. Index is the
// device's position in the PortAudio device list.
func ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultDevice, _ := portaudio.DefaultInputDevice()

	result := make([]Device, 0, len(devices))
	for i, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, Device{
				Index:             i,
				Name:              d.Name,
				MaxInputChannels:  d.MaxInputChannels,
				DefaultSampleRate: d.DefaultSampleRate,
				Default:           d == defaultDevice,
			})
		}
	}

	return result, nil
}

func openPortAudio(p streamParams, cb callback) (stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if p.Device.Index < 0 || p.Device.Index >= len(devices) {
		return nil, fmt.Errorf("device index %d not found", p.Device.Index)
	}
	info := devices[p.Device.Index]
	if info.Name != p.Device.Name {
		return nil, fmt.Errorf("device %d is now %q, expected %q", p.Device.Index, info.Name, p.Device.Name)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: p.Channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      p.SampleRate,
		FramesPerBuffer: p.BlockSize,
	}

	s, err := portaudio.OpenStream(params, func(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		cb(in, convertFlags(flags))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	return s, nil
}

func convertFlags(f portaudio.StreamCallbackFlags) StreamFlags {
	var out StreamFlags
	if f&portaudio.InputUnderflow != 0 {
		out |= InputUnderflow
	}
	if f&portaudio.InputOverflow != 0 {
		out |= InputOverflow
	}
	return out
}
