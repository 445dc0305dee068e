package meter

import "math"

const (
	// DefaultGain maps a typical microphone block of 2048 frames onto the
	// 0-100 range. Empirical calibration, tune per setup.
	DefaultGain = 15.0
	// DefaultCeiling is the highest level Estimate reports.
	DefaultCeiling = 100
)

// Block is one buffer of interleaved samples as delivered by the capture
// stream. Callers must not retain Samples after the callback returns.
type Block struct {
	Samples  []float32
	Channels int
}

// Frames returns the number of complete frames in the block
func (b Block) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Channel copies one channel out of the interleaved samples. It allocates,
// so the capture path calls Estimate instead.
func (b Block) Channel(ch int) []float32 {
	if ch < 0 || ch >= b.Channels {
		return nil
	}
	out := make([]float32, b.Frames())
	for i := range out {
		out[i] = b.Samples[i*b.Channels+ch]
	}
	return out
}

// Estimator turns a channel of a block into a bounded integer level
type Estimator struct {
	Gain    float64
	Ceiling int
}

// Default returns an Estimator with the stock calibration
func Default() Estimator {
	return Estimator{Gain: DefaultGain, Ceiling: DefaultCeiling}
}

// Estimate returns the L2 norm of the channel's samples scaled by Gain,
// truncated and clamped to [0, Ceiling]. A block without frames yields 0.
// ch must be in [0, b.Channels).
func (e Estimator) Estimate(b Block, ch int) int {
	frames := b.Frames()
	if frames == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < frames; i++ {
		s := float64(b.Samples[i*b.Channels+ch])
		sum += s * s
	}

	v := math.Sqrt(sum) * e.Gain
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= float64(e.Ceiling) {
		return e.Ceiling
	}
	return int(v)
}

// Estimate applies the default calibration
func Estimate(b Block, ch int) int {
	return Default().Estimate(b, ch)
}
