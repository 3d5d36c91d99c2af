// SPDX-License-Identifier: EPL-2.0

// Package adpcm implements the fixed-point predictor/residual codec used to
// store compressed sectors inside a track file (the "SST1" format,
// see internal/track). Twenty-two samples are packed into a 12-byte block: a
// one-byte header carrying a 4-bit gain and a 4-bit filter index, followed by
// eleven bytes of 4-bit signed residual nibbles.
package adpcm

import "math"

// SamplesPerBlock is the number of PCM samples encoded by one Block.
const SamplesPerBlock = 22

// filterBits and filterUnit scale the fixed-point filter coefficients.
const (
	filterBits = 8
	filterUnit = 1 << filterBits
)

// filterCoeffs is the bit-exact 16-entry coefficient table. Entries 0..4 are
// the 4x-scaled "standard" BRR coefficients; 5..15 are extended entries used
// only by this codec.
var filterCoeffs = [16][2]int32{
	{0, 0}, {240, 0}, {460, -208}, {392, -220}, {488, -240},
	{120, 0}, {230, -104}, {196, -110}, {244, -120},
	{60, 0}, {115, -52}, {98, -55}, {122, -60},
	{128, -240}, {60, -240}, {28, -240},
}

// Block is one 12-byte ADPCM unit.
type Block struct {
	Header  uint8
	Samples [11]uint8
}

// Gain returns the block's 4-bit gain field.
func (b *Block) Gain() int { return int(b.Header & 15) }

// FilterIndex returns the block's 4-bit filter-table index, clamped to the
// table's bounds (an out-of-range value decodes to the table's last entry
// instead of panicking — the decoder never fails, per its contract).
func (b *Block) FilterIndex() int {
	i := int(b.Header >> 4)
	if i >= len(filterCoeffs) {
		i = len(filterCoeffs) - 1
	}
	return i
}

func clampSample(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Decode decodes numBlocks blocks from a channel's chunk into output,
// advancing the output pointer by outputStride samples per decoded value. s1
// and s2 are the chunk's predecessor samples, as stored in the chunk
// prologue; they are returned updated so the caller can persist them (the
// decoder itself holds no state, so chunks may be decoded in any order given
// their own prologue). It returns the number of samples written.
func Decode(
	output []int16,
	outputStride int,
	blocks []Block,
	s1, s2 int16,
) (written int) {
	o := 0

	for _, block := range blocks {
		filter := filterCoeffs[block.FilterIndex()]
		a1, a2 := filter[0], filter[1]
		gain := block.Gain() + filterBits

		decodeNibble := func(nibble byte) int16 {
			n := int32(nibble&15) - 8

			v := n << uint(gain)
			v += a1 * int32(s1)
			v += a2 * int32(s2)
			v += filterUnit / 2
			v /= filterUnit

			decoded := clampSample(v)
			s2 = s1
			s1 = decoded
			return decoded
		}

		for _, b := range block.Samples {
			output[o] = decodeNibble(b)
			o += outputStride
			written++

			output[o] = decodeNibble(b >> 4)
			o += outputStride
			written++
		}
	}

	return written
}
