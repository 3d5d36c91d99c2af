// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes .aif/.aiff input files for cmd/sstencode, via
// github.com/go-audio/aiff. Only 16-bit PCM is supported, matching
// what the sample pipeline assumes everywhere else; anything else
// comes back as ErrOnlyPCM16bitSupported.
//
//	decoder := aiff.Decoder{}
//	source, err := decoder.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// AIFF writing is out of scope.
package aiff
