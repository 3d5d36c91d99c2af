// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 input files for cmd/sstencode, via
// github.com/hajimehoshi/go-mp3. Output is always stereo float32 in
// [-1.0, 1.0]; cmd/sstencode upmixes mono sources elsewhere in the
// pipeline, so this decoder never needs to.
//
//	decoder := mp3.Decoder{}
//	source, err := decoder.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// MP3 encoding is out of scope; the registry in cmd/sstencode only
// ever calls Decode.
package mp3
