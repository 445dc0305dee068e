package devices

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/petems/volume-overlay/internal/audio"
)

// ErrNoDeviceSelected is returned when the user aborts device selection or
// no usable input device exists.
var ErrNoDeviceSelected = errors.New("no device selected")

// Selector picks one input device from a list
type Selector interface {
	Select(list []audio.Device) (audio.Device, error)
}

// Resolve finds the device named by want, which is either a device index or
// a device name. Several host APIs can expose the same name, so a name
// match at index hint wins over the first device with that name. A
// negative hint means no index is known.
func Resolve(list []audio.Device, want string, hint int) (audio.Device, error) {
	want = strings.TrimSpace(want)
	if idx, err := strconv.Atoi(want); err == nil {
		for _, d := range list {
			if d.Index == idx {
				return d, nil
			}
		}
		return audio.Device{}, fmt.Errorf("no input device with index %d", idx)
	}

	if hint >= 0 {
		for _, d := range list {
			if d.Index == hint && strings.EqualFold(d.Name, want) {
				return d, nil
			}
		}
	}

	for _, d := range list {
		if d.Name == want {
			return d, nil
		}
	}
	for _, d := range list {
		if strings.EqualFold(d.Name, want) {
			return d, nil
		}
	}
	return audio.Device{}, fmt.Errorf("no input device named %q", want)
}

// Choose returns the configured device if set, otherwise asks sel. hint is
// passed through to Resolve. The second result reports whether sel was asked.
func Choose(list []audio.Device, configured string, hint int, sel Selector) (audio.Device, bool, error) {
	if len(list) == 0 {
		return audio.Device{}, false, fmt.Errorf("%w: no input devices found", ErrNoDeviceSelected)
	}
	if configured != "" {
		d, err := Resolve(list, configured, hint)
		return d, false, err
	}
	if sel == nil {
		return audio.Device{}, false, ErrNoDeviceSelected
	}
	d, err := sel.Select(list)
	return d, true, err
}

// Prompt lists devices on Out and reads the chosen number from In. An empty
// line or end of input aborts.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

func (p Prompt) Select(list []audio.Device) (audio.Device, error) {
	fmt.Fprintln(p.Out, "Available input devices:")
	fmt.Fprint(p.Out, Format(list))

	scanner := bufio.NewScanner(p.In)
	for {
		fmt.Fprint(p.Out, "Enter device number: ")
		if !scanner.Scan() {
			return audio.Device{}, ErrNoDeviceSelected
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return audio.Device{}, ErrNoDeviceSelected
		}

		if n, err := strconv.Atoi(line); err == nil {
			for _, d := range list {
				if d.Index == n {
					return d, nil
				}
			}
		}
		fmt.Fprintf(p.Out, "Invalid choice %q, pick a number from the list\n", line)
	}
}

// Format renders list as "index: name" lines, the numbers Prompt and
// Resolve accept
func Format(list []audio.Device) string {
	var b strings.Builder
	for _, d := range list {
		marker := ""
		if d.Default {
			marker = " (default)"
		}
		fmt.Fprintf(&b, "%d: %s [%d ch]%s\n", d.Index, d.Name, d.MaxInputChannels, marker)
	}
	return b.String()
}
