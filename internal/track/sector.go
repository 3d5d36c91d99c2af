// SPDX-License-Identifier: EPL-2.0

package track

import (
	"encoding/binary"

	"github.com/spicyjpeg/spicydeckIIDX/internal/adpcm"
)

// Chunk is one channel's compressed data for a sector: a predictor
// prologue followed by BlocksPerSector ADPCM blocks.
type Chunk struct {
	S1, S2 int16
	Blocks [BlocksPerSector]adpcm.Block
}

// Sector is two channels' worth of compressed chunks, concatenated.
type Sector struct {
	Channels [NumChannels]Chunk
}

// DecodedSector is a fully decoded sector: interleaved stereo PCM, one
// frame per sample position, tagged with the chunk index it was decoded
// from so the sampler's cache can recognize a hit.
type DecodedSector struct {
	Chunk   int
	Samples [SamplesPerSector][NumChannels]int16
}

// Decode decodes every channel of sector into dst, which must already be
// sized; dst.Chunk is left for the caller to set.
func (sector *Sector) Decode(dst *DecodedSector) {
	for ch := 0; ch < NumChannels; ch++ {
		chunk := &sector.Channels[ch]

		samples := make([]int16, SamplesPerSector)
		adpcm.Decode(samples, 1, chunk.Blocks[:], chunk.S1, chunk.S2)

		for i, v := range samples {
			dst.Samples[i][ch] = v
		}
	}
}

// decodeSectorBytes parses a raw SectorSize-byte buffer into a Sector.
func decodeSectorBytes(buf []byte) Sector {
	var s Sector

	for ch := 0; ch < NumChannels; ch++ {
		base := ch * chunkSize
		chunk := &s.Channels[ch]

		chunk.S1 = int16(binary.LittleEndian.Uint16(buf[base : base+2]))
		chunk.S2 = int16(binary.LittleEndian.Uint16(buf[base+2 : base+4]))

		blockBase := base + 4
		for b := 0; b < BlocksPerSector; b++ {
			off := blockBase + b*12
			chunk.Blocks[b].Header = buf[off]
			copy(chunk.Blocks[b].Samples[:], buf[off+1:off+12])
		}
	}

	return s
}

// encodeSectorBytes is the inverse of decodeSectorBytes, used by the
// offline encoder.
func encodeSectorBytes(s *Sector) []byte {
	buf := make([]byte, SectorSize)

	for ch := 0; ch < NumChannels; ch++ {
		base := ch * chunkSize
		chunk := &s.Channels[ch]

		binary.LittleEndian.PutUint16(buf[base:base+2], uint16(chunk.S1))
		binary.LittleEndian.PutUint16(buf[base+2:base+4], uint16(chunk.S2))

		blockBase := base + 4
		for b := 0; b < BlocksPerSector; b++ {
			off := blockBase + b*12
			buf[off] = chunk.Blocks[b].Header
			copy(buf[off+1:off+12], chunk.Blocks[b].Samples[:])
		}
	}

	return buf
}
