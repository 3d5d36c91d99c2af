// SPDX-License-Identifier: EPL-2.0

// Package track implements the on-disk "SST1" track file format: a fixed
// header, a row-major matrix of compressed sectors (one row per chunk,
// one column per pitch-shifted variant), and a trailing 4-bit waveform
// peak summary. The exact byte layout is defined by decodeHeader,
// encodeHeader and SectorOffset in this package.
package track

import (
	"encoding/binary"
	"errors"

	"github.com/spicyjpeg/spicydeckIIDX/internal/adpcm"
)

// Magic is the 4-byte file signature every valid track file starts with.
const Magic = "SST1"

const (
	NumChannels     = 2
	BlocksPerSector = 21
	// SamplesPerSector is the number of PCM samples decoded from one
	// channel's worth of one sector.
	SamplesPerSector = adpcm.SamplesPerBlock * BlocksPerSector

	MaxVariants = 16

	// PitchOffsetUnit is the resolution of Header.PitchOffsets: one unit
	// is 1/16th of a semitone.
	PitchOffsetUnit = 16

	// HeaderSize is the fixed size of the header, including its inline
	// string pool. The sector matrix begins immediately after it.
	HeaderSize = 2048

	chunkSize  = 4 + BlocksPerSector*12 // s1, s2 + blocks
	SectorSize = NumChannels * chunkSize
)

// KeyScale identifies whether a track's detected key is major, minor, or
// unknown.
type KeyScale uint8

const (
	ScaleUnknown KeyScale = 0
	ScaleMajor   KeyScale = 1
	ScaleMinor   KeyScale = 2
)

var (
	ErrBadMagic       = errors.New("track: not an SST1 file")
	ErrBadSampleRate  = errors.New("track: sample rate out of range")
	ErrBadVariants    = errors.New("track: variant count out of range")
	ErrBadChannels    = errors.New("track: channel count must be 2")
	ErrShortHeader    = errors.New("track: short read of header")
	ErrShortSector    = errors.New("track: short read of sector")
	ErrChunkOutOfRange = errors.New("track: chunk index out of range")
)

// Tags holds the track/disc metadata carried in the header's string pool.
type Tags struct {
	Title, Artist, Album, Genre string
	TrackNumber, TrackCount     uint8
	DiscNumber, DiscCount       uint8
}

// Header is the parsed fixed-size file header.
type Header struct {
	SampleRate  uint32
	NumChunks   uint32
	WaveformLen uint32

	NumVariants uint8
	NumChannels uint8

	KeyScale KeyScale
	KeyNote  uint8

	// PitchOffsets[v] is variant v's pitch offset in sixteenths of a
	// semitone, relative to the track's nominal key.
	PitchOffsets [MaxVariants]int16

	Tags Tags
}

// Validate checks the invariants spec.md §4.5 requires of a header before
// it is trusted.
func (h *Header) Validate() error {
	if h.SampleRate < 8000 || h.SampleRate > 192000 {
		return ErrBadSampleRate
	}
	if h.NumVariants < 1 || h.NumVariants > MaxVariants {
		return ErrBadVariants
	}
	if h.NumChannels != NumChannels {
		return ErrBadChannels
	}
	return nil
}

// SectorOffset returns the byte offset of chunk c's sector for variant v,
// relative to the start of the file.
func SectorOffset(c, v, numVariants int) int64 {
	return int64(HeaderSize) + int64(c*numVariants+v)*int64(SectorSize)
}

// decodeHeader parses the fixed portion of buf (which must be at least
// HeaderSize bytes) into a Header, including its string pool.
func decodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, ErrShortHeader
	}
	if string(buf[0:4]) != Magic {
		return nil, ErrBadMagic
	}

	h := &Header{
		SampleRate:  binary.LittleEndian.Uint32(buf[4:8]),
		NumChunks:   binary.LittleEndian.Uint32(buf[8:12]),
		WaveformLen: binary.LittleEndian.Uint32(buf[12:16]),
		NumVariants: buf[16],
		NumChannels: buf[17],
		KeyScale:    KeyScale(buf[18]),
		KeyNote:     buf[19],
	}

	for i := 0; i < MaxVariants; i++ {
		off := 20 + i*2
		h.PitchOffsets[i] = int16(binary.LittleEndian.Uint16(buf[off : off+2]))
	}

	titleOff := binary.LittleEndian.Uint16(buf[52:54])
	artistOff := binary.LittleEndian.Uint16(buf[54:56])
	albumOff := binary.LittleEndian.Uint16(buf[56:58])
	genreOff := binary.LittleEndian.Uint16(buf[58:60])

	h.Tags.TrackNumber = buf[60]
	h.Tags.TrackCount = buf[61]
	h.Tags.DiscNumber = buf[62]
	h.Tags.DiscCount = buf[63]

	pool := buf[64:HeaderSize]
	h.Tags.Title = readPoolString(pool, titleOff)
	h.Tags.Artist = readPoolString(pool, artistOff)
	h.Tags.Album = readPoolString(pool, albumOff)
	h.Tags.Genre = readPoolString(pool, genreOff)

	return h, nil
}

// readPoolString reads a zero-terminated UTF-8 string starting at byte
// offset off*2 within pool, matching the original header's convention of
// storing string-pool offsets as a 2-byte-unit index.
func readPoolString(pool []byte, off uint16) string {
	start := int(off) * 2
	if start >= len(pool) {
		return ""
	}

	end := start
	for end < len(pool) && pool[end] != 0 {
		end++
	}
	return string(pool[start:end])
}

// encodeHeader serializes h into a HeaderSize-byte buffer, used by the
// offline encoder. Strings are packed back-to-back into the pool starting
// right after the fixed fields.
func encodeHeader(h *Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.SampleRate)
	binary.LittleEndian.PutUint32(buf[8:12], h.NumChunks)
	binary.LittleEndian.PutUint32(buf[12:16], h.WaveformLen)
	buf[16] = h.NumVariants
	buf[17] = h.NumChannels
	buf[18] = byte(h.KeyScale)
	buf[19] = h.KeyNote

	for i := 0; i < MaxVariants; i++ {
		off := 20 + i*2
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(h.PitchOffsets[i]))
	}

	pool := buf[64:HeaderSize]
	cursor := 0

	writeString := func(s string) uint16 {
		off := uint16(cursor / 2)
		n := copy(pool[cursor:], s)
		cursor += n + 1      // zero terminator
		cursor += cursor & 1 // offsets are in 2-byte units: keep alignment
		return off
	}

	titleOff := writeString(h.Tags.Title)
	artistOff := writeString(h.Tags.Artist)
	albumOff := writeString(h.Tags.Album)
	genreOff := writeString(h.Tags.Genre)

	binary.LittleEndian.PutUint16(buf[52:54], titleOff)
	binary.LittleEndian.PutUint16(buf[54:56], artistOff)
	binary.LittleEndian.PutUint16(buf[56:58], albumOff)
	binary.LittleEndian.PutUint16(buf[58:60], genreOff)

	buf[60] = h.Tags.TrackNumber
	buf[61] = h.Tags.TrackCount
	buf[62] = h.Tags.DiscNumber
	buf[63] = h.Tags.DiscCount

	return buf
}
