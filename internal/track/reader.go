// SPDX-License-Identifier: EPL-2.0

package track

import (
	"io"
)

// File is the minimal random-access handle a Reader needs from block
// storage. *os.File and similarly-shaped handles over any POSIX-style
// path namespace satisfy it.
type File interface {
	io.ReaderAt
	io.Closer
}

// Storage opens File handles by path, matching a POSIX-style namespace
// rooted at a mount point. The core does not require a specific
// filesystem — see spec.md §6.
type Storage interface {
	Open(path string) (File, error)
}

// keyNames mirrors the reference firmware's KEY_NAMES_ table.
var keyNames = [12]string{
	"C", "C#/Db", "D", "D#/Eb", "E", "F", "F#/Gb", "G", "G#/Ab", "A", "A#/Bb", "B",
}

// Reader is a sector-indexed reader over one open track file. The zero
// value is a reader with no file open, matching the reference Reader's
// "born closed" lifecycle.
type Reader struct {
	file   File
	header Header

	waveform []byte
	variant  int
}

// Open loads path's header and waveform and selects the variant with the
// smallest absolute pitch offset. On any failure the reader is left
// closed, per spec.md §4.5.
func (r *Reader) Open(storage Storage, path string) error {
	if r.file != nil {
		r.Close()
	}

	f, err := storage.Open(path)
	if err != nil {
		return err
	}

	headerBuf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		f.Close()
		return err
	}

	header, err := decodeHeader(headerBuf)
	if err != nil {
		f.Close()
		return err
	}
	if err := header.Validate(); err != nil {
		f.Close()
		return err
	}

	waveformOffset := SectorOffset(int(header.NumChunks), 0, int(header.NumVariants))
	waveform := make([]byte, header.WaveformLen)
	if header.WaveformLen > 0 {
		if _, err := f.ReadAt(waveform, waveformOffset); err != nil && err != io.EOF {
			f.Close()
			return err
		}
	}

	r.file = f
	r.header = *header
	r.waveform = waveform
	r.variant = bestVariant(header)

	return nil
}

func bestVariant(h *Header) int {
	best := 0
	bestAbs := abs16(h.PitchOffsets[0])

	for i := 1; i < int(h.NumVariants); i++ {
		if a := abs16(h.PitchOffsets[i]); a < bestAbs {
			best, bestAbs = i, a
		}
	}
	return best
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

// Close releases the underlying file and waveform buffer. Close with no
// prior Open is a no-op.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	r.waveform = nil
	return err
}

// Header returns the currently open track's header, or nil if no track is
// open.
func (r *Reader) Header() *Header {
	if r.file == nil {
		return nil
	}
	return &r.header
}

// Waveform returns the raw nibble-packed waveform bytes for the currently
// open track.
func (r *Reader) Waveform() []byte {
	return r.waveform
}

// Variant returns the currently selected variant index.
func (r *Reader) Variant() int {
	return r.variant
}

// SetVariant clamps v to [0, numVariants) and selects it.
func (r *Reader) SetVariant(v int) {
	if r.file == nil {
		return
	}
	n := int(r.header.NumVariants)
	if v < 0 {
		v = 0
	}
	if v >= n {
		v = n - 1
	}
	r.variant = v
}

// ResetVariant re-selects the variant closest to zero pitch offset.
func (r *Reader) ResetVariant() {
	if r.file == nil {
		return
	}
	r.variant = bestVariant(&r.header)
}

// Read reads sector chunk of the currently selected variant into out.
// Returns false (without touching out) if chunk is out of range or the
// underlying read short-returns, per spec.md §4.5/§7 — callers must treat
// this as "fail gracefully", never a fatal error.
func (r *Reader) Read(out *Sector, chunk int) bool {
	if r.file == nil || chunk < 0 || uint32(chunk) >= r.header.NumChunks {
		return false
	}

	buf := make([]byte, SectorSize)
	off := SectorOffset(chunk, r.variant, int(r.header.NumVariants))

	if _, err := r.file.ReadAt(buf, off); err != nil {
		return false
	}

	*out = decodeSectorBytes(buf)
	return true
}

// GetKeyName composes the musical key label for the currently selected
// variant, e.g. "A#/Bbm". Returns "-" if the track has no known key.
func (r *Reader) GetKeyName() string {
	if r.file == nil || r.header.KeyScale == ScaleUnknown {
		return "-"
	}

	key := int(r.header.KeyNote) * PitchOffsetUnit
	key += int(r.header.PitchOffsets[r.variant])
	key += PitchOffsetUnit * 12 // keep the value positive before the mod below
	key += PitchOffsetUnit / 2  // round to nearest semitone
	key /= PitchOffsetUnit

	name := keyNames[((key%12)+12)%12]
	if r.header.KeyScale == ScaleMinor {
		name += "m"
	}
	return name
}
