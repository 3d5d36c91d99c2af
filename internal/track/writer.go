// SPDX-License-Identifier: EPL-2.0

package track

import (
	"io"
)

// Writer serializes a track file sequentially: one call to WriteHeader,
// then exactly NumChunks*NumVariants calls to WriteSector in row-major
// (chunk, variant) order, then one call to WriteWaveform — the same
// layout Reader expects to find on disk. It is used only by the offline
// encoder; nothing in the core writes track files.
type Writer struct {
	w      io.Writer
	header Header
}

// NewWriter returns a Writer that emits header followed by whatever
// sectors and waveform data the caller provides, in file order.
func NewWriter(w io.Writer, header Header) *Writer {
	return &Writer{w: w, header: header}
}

// WriteHeader emits the fixed-size header. It must be called exactly
// once, before any sector or waveform data.
func (wr *Writer) WriteHeader() error {
	_, err := wr.w.Write(encodeHeader(&wr.header))
	return err
}

// WriteSector emits one sector's encoded bytes. Callers must call this
// header.NumChunks*header.NumVariants times, in row-major (chunk,
// variant) order, to produce a well-formed file.
func (wr *Writer) WriteSector(s *Sector) error {
	_, err := wr.w.Write(encodeSectorBytes(s))
	return err
}

// WriteWaveform emits the trailing waveform peak summary, already
// nibble-packed and padded to whatever alignment the caller wants.
func (wr *Writer) WriteWaveform(data []byte) error {
	_, err := wr.w.Write(data)
	return err
}
