// SPDX-License-Identifier: EPL-2.0

package main

import "io"

// memSource replays a fully-decoded interleaved PCM buffer as an
// audio.Source, reporting whatever sample rate the caller asked for
// rather than the rate the samples were actually captured at.
//
// Lying about the rate is how the pitch-shifted variants are produced:
// feeding the same samples through audio.NewResampler with a higher
// reported source rate makes the resampler read through them faster,
// raising pitch and shortening duration together (varispeed), the same
// trick a turntable's pitch fader relies on.
type memSource struct {
	data     []float32
	rate     int
	channels int
	pos      int
}

func newMemSource(data []float32, rate, channels int) *memSource {
	return &memSource{data: data, rate: rate, channels: channels}
}

func (m *memSource) SampleRate() int { return m.rate }
func (m *memSource) Channels() int   { return m.channels }
func (m *memSource) BufSize() int    { return 4096 }
func (m *memSource) Close() error    { return nil }

func (m *memSource) ReadSamples(dst []float32) (int, error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}

	n := copy(dst, m.data[m.pos:])
	m.pos += n

	if m.pos >= len(m.data) {
		return n, io.EOF
	}
	return n, nil
}
