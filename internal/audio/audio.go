package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petems/volume-overlay/internal/meter"
)

const (
	DefaultChannels   = 2
	DefaultSampleRate = 44100
	DefaultBlockSize  = 2048

	// MaxChannels bounds the per-block level scratch space
	MaxChannels = 32
)

// ErrDeviceUnavailable is returned by Open when the device cannot be opened
// with the requested channel count, sample rate and block size.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Device represents an audio input device
type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

func (d Device) String() string {
	return fmt.Sprintf("%d: %s", d.Index, d.Name)
}

// StreamFlags carries the status the audio subsystem reports with a block
type StreamFlags uint8

const (
	InputUnderflow StreamFlags = 1 << iota
	InputOverflow
)

func (f StreamFlags) String() string {
	if f == 0 {
		return "ok"
	}
	var parts []string
	if f&InputUnderflow != 0 {
		parts = append(parts, "input underflow")
	}
	if f&InputOverflow != 0 {
		parts = append(parts, "input overflow")
	}
	return strings.Join(parts, "|")
}

// StatusWarning reports a block delivered with a non-clean stream status.
// The block is still processed.
type StatusWarning struct {
	Seq   uint64
	Flags StreamFlags
}

func (w StatusWarning) Error() string {
	return fmt.Sprintf("block %d: stream status %s", w.Seq, w.Flags)
}

// CallbackError reports a block whose processing failed. Its update is
// skipped and capture continues.
type CallbackError struct {
	Seq uint64
	Err error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Seq, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// BlockHandler processes one captured block on the audio thread. It must
// not block.
type BlockHandler func(b meter.Block) error

// Dispatcher receives per-channel levels
type Dispatcher interface {
	Dispatch(channel, level int)
}

// MeterHandler estimates every channel of a block and forwards the levels.
// Levels are only dispatched once all channels were estimated, so a failing
// block produces no partial update.
func MeterHandler(est meter.Estimator, d Dispatcher) BlockHandler {
	return func(b meter.Block) error {
		if b.Channels < 1 || b.Channels > MaxChannels {
			return fmt.Errorf("unsupported channel count %d", b.Channels)
		}
		var levels [MaxChannels]int
		for ch := 0; ch < b.Channels; ch++ {
			levels[ch] = est.Estimate(b, ch)
		}
		for ch := 0; ch < b.Channels; ch++ {
			d.Dispatch(ch, levels[ch])
		}
		return nil
	}
}
