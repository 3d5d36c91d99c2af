// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

const (
	filterBits = 14
	filterUnit = 1 << filterBits
)

// FilterType selects one of the Audio EQ Cookbook transforms implemented
// by Biquad.Configure.
type FilterType int

const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterBandpass
	FilterBandpassAlt
	FilterAllpass
	FilterNotch
)

// Biquad is a direct-form-I biquad filter with 14-bit fixed-point
// coefficients. Its state (sa1, sa2, sb1, sb2) survives across buffers, so
// a deck's filter keeps working correctly across successive audio
// callbacks.
type Biquad struct {
	a1, a2 int32
	b0, b1, b2 int32

	sa1, sa2 int32
	sb1, sb2 int32
}

// NewBiquad returns a Biquad configured as a unity-cutoff lowpass.
func NewBiquad() *Biquad {
	b := &Biquad{}
	b.Configure(FilterLowpass, 1, 1)
	return b
}

// Configure implements https://www.w3.org/TR/audio-eq-cookbook for the six
// filter types. cutoff is normalized to (0.001, 0.999) (cutoff frequency
// over half the sample rate); resonance (Q) is normalized to [0.01, 10].
func (b *Biquad) Configure(filterType FilterType, cutoff, resonance float32) {
	cutoff = clampFloat32(cutoff, 0.001, 0.999)
	resonance = clampFloat32(resonance, 0.01, 10)

	omega := float64(cutoff) * math.Pi
	cosOmega := math.Cos(omega)
	alpha := math.Sin(omega) / (2 * float64(resonance))

	a0 := 1 + alpha
	a1 := -2 * cosOmega
	a2 := 1 - alpha

	var b0, b1, b2 float64

	switch filterType {
	case FilterLowpass:
		b0 = (1 - cosOmega) / 2
		b1 = 1 - cosOmega
		b2 = (1 - cosOmega) / 2
	case FilterHighpass:
		b0 = (1 + cosOmega) / 2
		b1 = -(1 + cosOmega)
		b2 = (1 + cosOmega) / 2
	case FilterBandpass:
		b0 = float64(resonance) * alpha
		b1 = 0
		b2 = -float64(resonance) * alpha
	case FilterBandpassAlt:
		b0 = alpha
		b1 = 0
		b2 = alpha
	case FilterAllpass:
		b0 = a2
		b1 = a1
		b2 = a0
	case FilterNotch:
		b0 = 1
		b1 = a1
		b2 = 1
	default:
		return
	}

	scale := func(v float64) int32 {
		return int32(float64(filterUnit)*v/a0 + 0.5)
	}

	b.a1 = scale(a1)
	b.a2 = scale(a2)
	b.b0 = scale(b0)
	b.b1 = scale(b1)
	b.b2 = scale(b2)
}

// Reset zeroes the filter's past-sample state.
func (b *Biquad) Reset() {
	b.sa1, b.sa2 = 0, 0
	b.sb1, b.sb2 = 0, 0
}

// Process filters numSamples samples of input into output.
func (b *Biquad) Process(output, input []int16, numSamples, outputStride, inputStride int) {
	a1, a2 := b.a1, b.a2
	b0, b1, b2 := b.b0, b.b1, b.b2
	sa1, sa2 := b.sa1, b.sa2
	sb1, sb2 := b.sb1, b.sb2

	oi, ii := 0, 0
	for n := 0; n < numSamples; n++ {
		sample := int32(input[ii])

		filtered := b0*sample + b1*sb1 + b2*sb2 - a1*sa1 - a2*sa2
		filtered += filterUnit / 2
		filtered >>= filterBits

		output[oi] = clampSample(filtered)

		sa2, sa1 = sa1, filtered
		sb2, sb1 = sb1, sample

		oi += outputStride
		ii += inputStride
	}

	b.sa1, b.sa2 = sa1, sa2
	b.sb1, b.sb2 = sb1, sb2
}
