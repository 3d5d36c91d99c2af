// SPDX-License-Identifier: EPL-2.0

// Package sampler implements the per-deck fractional-offset resampler: a
// 2-entry decoded-sector cache plus a linear-interpolation inner loop that
// walks an arbitrary-direction, arbitrary-speed offset across chunk
// boundaries. It is deliberately decoupled from storage and from the
// sector ring — see internal/sectorring — via a read callback, so it can
// run inside the audio callback without ever blocking.
package sampler

import "github.com/spicyjpeg/spicydeckIIDX/internal/track"

// ChunkIndexUnit is the number of offset units spanned by one full sector.
const ChunkIndexUnit = 16 * track.SamplesPerSector

// stepThreshold is the dead-band below which the sampler treats the step
// as effectively stopped and emits silence rather than interpolating.
const stepThreshold = 100 * 16

// ReadFunc is invoked by the sampler whenever it needs sector chunk's
// decoded samples and neither cache slot already holds it. It may return
// nil to mean "not available" (out of range, or a ring underrun), in
// which case the sampler zero-fills the slot instead of faulting.
//
// ReadFunc is expected to implement the skip-until-match protocol
// against its backing sector ring: discarding stale entries until a
// match for chunk is found, or the ring runs dry.
type ReadFunc func(chunk int) *track.Sector

// ReadDoneFunc is invoked once per ReadFunc call, after the sampler has
// finished decoding (or zero-filling) the slot, so the caller can
// release/finalize whatever it popped from the ring.
type ReadDoneFunc func()

// Sampler holds the 2-slot decoded-sector cache and the callbacks that
// feed it.
type Sampler struct {
	cache   [2]track.DecodedSector
	current int

	read     ReadFunc
	readDone ReadDoneFunc
}

// New returns a Sampler wired to the given callbacks. Both must be
// non-nil.
func New(read ReadFunc, readDone ReadDoneFunc) *Sampler {
	s := &Sampler{read: read, readDone: readDone}
	s.Flush()
	return s
}

// Flush invalidates both cache slots, forcing the next access to reload.
func (s *Sampler) Flush() {
	s.cache[0].Chunk = -1
	s.cache[1].Chunk = -1
}

// loadChunk returns the decoded sector for chunk c, from cache if
// present, otherwise via the read callback.
func (s *Sampler) loadChunk(c int) *track.DecodedSector {
	if s.cache[0].Chunk == c {
		return &s.cache[0]
	}
	if s.cache[1].Chunk == c {
		return &s.cache[1]
	}

	s.current ^= 1
	slot := &s.cache[s.current]

	sector := s.read(c)
	if sector != nil {
		sector.Decode(slot)
	} else {
		for i := range slot.Samples {
			slot.Samples[i] = [track.NumChannels]int16{}
		}
	}
	s.readDone()

	slot.Chunk = c
	return slot
}

func floorDivMod(a, b int) (q, r int) {
	q = a / b
	r = a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		q--
		r += b
	}
	return q, r
}

// Process writes numSamples interleaved stereo samples into output
// starting at offset, advancing by step units per sample (step may be
// negative for reverse playback). Below the dead-band threshold it
// writes silence without touching the cache or issuing any reads, per
// spec.md §4.3's bound on readCallback invocations.
func (s *Sampler) Process(output [][track.NumChannels]int16, offset, step int) {
	if step > -stepThreshold && step < stepThreshold {
		for i := range output {
			output[i] = [track.NumChannels]int16{}
		}
		return
	}

	c, o := floorDivMod(offset, ChunkIndexUnit)
	cur := s.loadChunk(c)

	for i := range output {
		sampleIdx := o >> 4
		alpha := o & 15

		s1 := cur.Samples[sampleIdx]

		var s2 [track.NumChannels]int16
		if sampleIdx < track.SamplesPerSector-1 {
			s2 = cur.Samples[sampleIdx+1]
		} else {
			s2 = s.loadChunk(c + 1).Samples[0]
		}

		for ch := 0; ch < track.NumChannels; ch++ {
			output[i][ch] = s1[ch] + int16((int32(s2[ch]-s1[ch])*int32(alpha))/16)
		}

		o += step
		if o >= ChunkIndexUnit || o < 0 {
			dc, no := floorDivMod(o, ChunkIndexUnit)
			c += dc
			o = no
			cur = s.loadChunk(c)
		}
	}
}
