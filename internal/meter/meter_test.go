package meter

import (
	"math"
	"testing"
)

func stereoBlock(frames int, left, right func(i int) float32) Block {
	samples := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		samples[i*2] = left(i)
		samples[i*2+1] = right(i)
	}
	return Block{Samples: samples, Channels: 2}
}

func constant(v float32) func(int) float32 {
	return func(int) float32 { return v }
}

func TestEstimateEmptyBlock(t *testing.T) {
	tests := []struct {
		name  string
		block Block
	}{
		{"nil samples", Block{Channels: 2}},
		{"empty samples", Block{Samples: []float32{}, Channels: 2}},
		{"partial frame", Block{Samples: []float32{0.9}, Channels: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for ch := 0; ch < 2; ch++ {
				if got := Estimate(tt.block, ch); got != 0 {
					t.Errorf("channel %d: expected 0, got %d", ch, got)
				}
			}
		})
	}
}

func TestEstimateSilence(t *testing.T) {
	block := stereoBlock(2048, constant(0), constant(0))

	for ch := 0; ch < 2; ch++ {
		if got := Estimate(block, ch); got != 0 {
			t.Errorf("channel %d: expected 0 for silence, got %d", ch, got)
		}
	}
}

func TestEstimateConstantAmplitude(t *testing.T) {
	const amp = 0.1
	block := stereoBlock(2048, constant(amp), constant(0))

	// Same arithmetic as Estimate, from the float32 sample value.
	a := float64(float32(amp))
	want := int(math.Sqrt(a*a*2048) * DefaultGain)
	if want <= 0 || want >= DefaultCeiling {
		t.Fatalf("test amplitude should land inside the range, got %d", want)
	}

	if got := Estimate(block, 0); got != want {
		t.Errorf("left: expected %d, got %d", want, got)
	}
	if got := Estimate(block, 1); got != 0 {
		t.Errorf("right: expected 0, got %d", got)
	}
}

func TestEstimateKnownValue(t *testing.T) {
	// 0.25 * sqrt(16) * 15 = 15
	block := Block{Samples: make([]float32, 16), Channels: 1}
	for i := range block.Samples {
		block.Samples[i] = 0.25
	}
	if got := Estimate(block, 0); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}
}

func TestEstimateClamps(t *testing.T) {
	tests := []struct {
		name string
		amp  float32
	}{
		{"full scale", 1},
		{"negative full scale", -1},
		{"extreme", 1e30},
		{"max float", math.MaxFloat32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := stereoBlock(2048, constant(tt.amp), constant(tt.amp))
			got := Estimate(block, 0)
			if got != DefaultCeiling {
				t.Errorf("expected %d, got %d", DefaultCeiling, got)
			}
		})
	}
}

func TestEstimateRangeAndMonotonic(t *testing.T) {
	prev := -1
	for _, amp := range []float32{0, 1e-5, 1e-4, 1e-3, 2e-3, 5e-3, 1e-2, 0.1, 1, 10} {
		block := stereoBlock(2048, func(i int) float32 {
			if i%2 == 0 {
				return amp
			}
			return -amp
		}, constant(0))

		got := Estimate(block, 0)
		if got < 0 || got > DefaultCeiling {
			t.Fatalf("amp %g: level %d out of range", amp, got)
		}
		if got < prev {
			t.Fatalf("amp %g: level %d decreased from %d", amp, got, prev)
		}
		prev = got
	}
}

func TestEstimateIdempotent(t *testing.T) {
	block := stereoBlock(512, func(i int) float32 {
		return float32(math.Sin(float64(i) / 10))
	}, constant(0.003))

	for ch := 0; ch < 2; ch++ {
		first := Estimate(block, ch)
		second := Estimate(block, ch)
		if first != second {
			t.Errorf("channel %d: %d != %d", ch, first, second)
		}
	}
}

func TestEstimatorCustomCalibration(t *testing.T) {
	block := Block{Samples: []float32{0.5, 0.5, 0.5, 0.5}, Channels: 1}
	// norm = 1.0

	e := Estimator{Gain: 30, Ceiling: 20}
	if got := e.Estimate(block, 0); got != 20 {
		t.Errorf("expected ceiling 20, got %d", got)
	}

	e = Estimator{Gain: 7.9, Ceiling: 100}
	if got := e.Estimate(block, 0); got != 7 {
		t.Errorf("expected truncation to 7, got %d", got)
	}
}

func TestBlockChannel(t *testing.T) {
	b := stereoBlock(4, func(i int) float32 { return float32(i) }, constant(-1))

	left := b.Channel(0)
	if len(left) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(left))
	}
	for i, s := range left {
		if s != float32(i) {
			t.Errorf("frame %d: expected %v, got %v", i, float32(i), s)
		}
	}
	for i, s := range b.Channel(1) {
		if s != -1 {
			t.Errorf("right frame %d: expected -1, got %v", i, s)
		}
	}
	if got := b.Channel(2); got != nil {
		t.Errorf("out of range channel should be nil, got %v", got)
	}

	// The copied channel alone has the same norm as its slot in the block.
	mono := Block{Samples: left, Channels: 1}
	if Estimate(mono, 0) != Estimate(b, 0) {
		t.Errorf("mono estimate %d differs from interleaved %d", Estimate(mono, 0), Estimate(b, 0))
	}
}
