// SPDX-License-Identifier: EPL-2.0

package dsp

// WaveformSampleRate is the fixed low sample rate of the peak-amplitude
// display summary (Hz).
const WaveformSampleRate = 32

// WaveformRange is the exclusive upper bound of an encoded waveform nibble.
const WaveformRange = 12

// WaveformEncoder reduces a mono PCM stream to 4-bit peak-amplitude
// samples at WaveformSampleRate, two nibbles packed per byte (low nibble
// first, matching the on-disk layout). It is driven by the same
// DDA-accumulator technique as Bitcrusher, dithering the number of input
// samples folded into each output nibble over time instead of rounding a
// fixed block size.
type WaveformEncoder struct {
	accumulator int
	currentPeak int16
	lastNibble  int // -1 means "no pending low nibble"
}

// NewWaveformEncoder returns a WaveformEncoder ready to encode.
func NewWaveformEncoder() *WaveformEncoder {
	w := &WaveformEncoder{lastNibble: -1}
	return w
}

// Reset clears the encoder's accumulator and any pending nibble.
func (w *WaveformEncoder) Reset() {
	w.accumulator = 0
	w.currentPeak = 0
	w.lastNibble = -1
}

// Encode consumes numSamples samples of input (stride inputStride) at
// sampleRate and appends packed waveform bytes to output, returning the
// extended slice.
func (w *WaveformEncoder) Encode(output []byte, input []int16, sampleRate, numSamples, inputStride int) []byte {
	accumulator := w.accumulator
	currentPeak := int(w.currentPeak)
	lastNibble := w.lastNibble

	ii := 0
	for n := 0; n < numSamples; n++ {
		accumulator += WaveformSampleRate

		if accumulator >= sampleRate {
			accumulator -= sampleRate

			nibble := (currentPeak * WaveformRange) >> 15
			nibble = clampIntRange(nibble, 0, WaveformRange-1)
			currentPeak = 0

			if lastNibble < 0 {
				lastNibble = nibble
			} else {
				output = append(output, byte(lastNibble)|byte(nibble)<<4)
				lastNibble = -1
			}
		}

		sample := int(input[ii])
		ii += inputStride

		if sample < 0 {
			sample = -sample
		}
		if sample > currentPeak {
			currentPeak = sample
		}
	}

	w.accumulator = accumulator
	w.currentPeak = int16(currentPeak)
	w.lastNibble = lastNibble
	return output
}

func clampIntRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DecodeWaveform unpacks a nibble-packed waveform byte slice (low nibble
// first) into per-sample 0..WaveformRange-1 peak values for display.
func DecodeWaveform(data []byte) []uint8 {
	out := make([]uint8, 0, len(data)*2)
	for _, b := range data {
		out = append(out, b&0x0f, b>>4)
	}
	return out
}
