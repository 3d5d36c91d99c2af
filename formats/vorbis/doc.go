// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes .ogg input files for cmd/sstencode, via
// github.com/jfreymuth/oggvorbis. Samples come back as interleaved
// float32 in [-1.0, 1.0] at the file's own channel count; mono
// sources are upmixed to stereo downstream in cmd/sstencode before
// resampling, since every pitch-shifted variant assumes
// track.NumChannels==2.
//
//	decoder := vorbis.Decoder{}
//	source, err := decoder.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// Vorbis encoding is out of scope.
package vorbis
