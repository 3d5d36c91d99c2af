// SPDX-License-Identifier: EPL-2.0

// Package audio holds cmd/sstencode's decoding/resampling primitives:
// the Source interface every formats/* decoder implements, Resampler
// (cubic-interpolated sample rate conversion, used once per
// pitch-shifted variant), MonoMixer (the reference variant's waveform
// and -dump-wav mixdown), StereoUpmixer (for mono input files), and
// the Registry cmd/sstencode uses to pick a decoder by file
// extension.
//
// Samples are float32 in [-1.0, 1.0] throughout; ReadSamples returns
// io.EOF once a Source is exhausted, same as io.Reader.
package audio
