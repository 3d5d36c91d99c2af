// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

const (
	gainBits = 14
	gainUnit = 1 << gainBits
)

func clampSample(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// equalPowerGain maps a linear [0,1] fader position to an equal-power
// fixed-point gain, rounded to nearest.
func equalPowerGain(gain float32) int32 {
	gain = clampFloat32(gain, 0, 1)
	gain = float32(math.Sin(float64(gain) * math.Pi / 2))
	return int32(float32(gainUnit)*gain + 0.5)
}

// Gain is a one-input equal-power gain stage.
type Gain struct {
	gain int32
}

// NewGain returns a Gain configured at unity.
func NewGain() *Gain {
	g := &Gain{}
	g.Configure(1)
	return g
}

// Configure sets the linear gain in [0,1], mapped through the equal-power
// curve sin(g*pi/2).
func (g *Gain) Configure(gain float32) {
	g.gain = equalPowerGain(gain)
}

// Process scales numSamples samples from input into output.
func (g *Gain) Process(output, input []int16, numSamples, outputStride, inputStride int) {
	gain := g.gain
	oi, ii := 0, 0

	for n := 0; n < numSamples; n++ {
		mixed := gain*int32(input[ii]) + gainUnit/2
		mixed >>= gainBits

		output[oi] = clampSample(mixed)
		oi += outputStride
		ii += inputStride
	}
}
