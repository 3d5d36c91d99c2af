// SPDX-License-Identifier: EPL-2.0

package adpcm

import "math"

// Encoder is the offline counterpart to Decode. It is not part of the
// audio-callback path — it is only used by cmd/sstencode to prepare track
// files — but lives here because it shares the filter table and fixed-point
// conventions with the decoder.
type Encoder struct {
	s1, s2 int16
}

// Reset clears the encoder's predictor state.
func (e *Encoder) Reset() {
	e.s1 = 0
	e.s2 = 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// estimateGain picks a starting gain shift for filterIndex by tracking the
// peak unshifted residual over one block's worth of input.
func (e *Encoder) estimateGain(input []int16, filterIndex int) int {
	filter := filterCoeffs[filterIndex]
	a1, a2 := int(filter[0]), int(filter[1])
	s1, s2 := int(e.s1), int(e.s2)

	posPeak, negPeak := 0, 0

	for _, sample := range input {
		encoded := int(sample)*filterUnit - a1*s1 - a2*s2 - filterUnit/2
		encoded /= filterUnit

		if encoded > posPeak {
			posPeak = encoded
		}
		if encoded < negPeak {
			negPeak = encoded
		}

		s2, s1 = s1, int(sample)
	}

	shift := 0
	for (posPeak >> uint(shift)) > 7 {
		shift++
	}
	for (negPeak >> uint(shift)) < -8 {
		shift++
	}
	return clampInt(shift, 1, 11)
}

// tryEncode encodes one block at a given (gain, filterIndex) pair and
// returns the resulting sum-of-squared quantization error along with the
// predictor state the block would leave behind.
func (e *Encoder) tryEncode(
	out *Block,
	input []int16,
	gain, filterIndex int,
) (sqError int64, nextS1, nextS2 int16) {
	out.Header = uint8(gain&15) | uint8(filterIndex&15)<<4

	filter := filterCoeffs[filterIndex]
	a1, a2 := int(filter[0]), int(filter[1])
	s1, s2 := int(e.s1), int(e.s2)

	actualGain := gain + filterBits

	byteIdx := 0
	for i, sample := range input {
		residual := a1*s1 + a2*s2 + filterUnit/2

		encoded := int(sample)*filterUnit - residual
		encoded >>= uint(actualGain)
		encoded = clampInt(encoded, -8, 7)

		if i%2 == 0 {
			out.Samples[byteIdx] = uint8(encoded + 8)
		} else {
			out.Samples[byteIdx] |= uint8(encoded+8) << 4
			byteIdx++
		}

		decoded := (encoded << uint(actualGain)) + residual
		decoded /= filterUnit
		decodedClamped := int(clampSample(int32(decoded)))

		err := int64(sample) - int64(decodedClamped)
		sqError += err * err

		s2, s1 = s1, decodedClamped
	}

	return sqError, int16(s1), int16(s2)
}

// EncodeBlock brute-forces all filter/gain combinations and keeps the one
// with the lowest quantization error, matching the original encoder's
// 16-filter x 2-gain-offset search (the estimated gain and one below it).
func (e *Encoder) EncodeBlock(out *Block, input []int16) {
	if len(input) < SamplesPerBlock {
		padded := make([]int16, SamplesPerBlock)
		copy(padded, input)
		input = padded
	}

	var best Block
	bestErr := int64(math.MaxInt64)
	var bestS1, bestS2 int16

	for filterIndex := range filterCoeffs {
		gainOffset := e.estimateGain(input, filterIndex)

		for _, delta := range [2]int{-1, 0} {
			var candidate Block

			err, s1, s2 := e.tryEncode(&candidate, input, delta+gainOffset, filterIndex)
			if err < bestErr {
				bestErr = err
				best = candidate
				bestS1, bestS2 = s1, s2
			}
		}
	}

	*out = best
	e.s1, e.s2 = bestS1, bestS2
}

// EncodeChunk splits samples into blocks of SamplesPerBlock (the last one
// zero-padded) and returns the prologue (s1, s2) that was in effect before
// encoding, plus the filled blocks.
func EncodeChunk(samples []int16, numBlocks int) (s1, s2 int16, blocks []Block) {
	var enc Encoder

	s1, s2 = enc.s1, enc.s2
	blocks = make([]Block, numBlocks)

	for i := range blocks {
		lo := i * SamplesPerBlock
		hi := lo + SamplesPerBlock
		if hi > len(samples) {
			hi = len(samples)
		}

		enc.EncodeBlock(&blocks[i], samples[lo:hi])
	}

	return s1, s2, blocks
}
