// SPDX-License-Identifier: EPL-2.0

package dsp

// Mixer is a two-input equal-power linear combiner, used for the crossfade
// (main bus) and monitor (cue bus) mixes.
type Mixer struct {
	a1, a2 int32
}

// NewMixer returns a Mixer configured at equal (0.5/0.5) gains.
func NewMixer() *Mixer {
	m := &Mixer{}
	m.Configure(0.5, 0.5)
	return m
}

// Configure sets both input gains in [0,1], each mapped through the
// equal-power curve.
func (m *Mixer) Configure(gain1, gain2 float32) {
	m.a1 = equalPowerGain(gain1)
	m.a2 = equalPowerGain(gain2)
}

// Process computes clamp((a1*x1 + a2*x2 + half) >> 14) for numSamples
// samples of input1/input2 into output.
func (m *Mixer) Process(output, input1, input2 []int16, numSamples, outputStride, inputStride int) {
	a1, a2 := m.a1, m.a2
	oi, ii := 0, 0

	for n := 0; n < numSamples; n++ {
		mixed := a1*int32(input1[ii]) + a2*int32(input2[ii]) + gainUnit/2
		mixed >>= gainBits

		output[oi] = clampSample(mixed)
		oi += outputStride
		ii += inputStride
	}
}
