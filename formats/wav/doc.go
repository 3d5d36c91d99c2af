// SPDX-License-Identifier: EPL-2.0

// Package wav decodes .wav input files for cmd/sstencode, via
// github.com/go-audio/wav, and writes mono 16-bit PCM WAV files back
// out through WriteWAV16 for cmd/sstencode's -dump-wav debug output.
// Only PCM 16-bit input is supported.
//
//	decoder := wav.Decoder{}
//	source, err := decoder.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
//	err = wav.WriteWAV16(out, sampleRate, monoPCM)
package wav
