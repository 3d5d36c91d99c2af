// SPDX-License-Identifier: EPL-2.0

// Package dsp implements the fixed/float scalar building blocks shared by
// both decks: a biquad filter, an equal-power mixer/gain stage, a
// DDA-driven bitcrusher, a PID controller for motor speed control, and a
// single-pole smoothing filter. Every routine that processes audio is
// stride-aware, so the same function can run over one channel of an
// interleaved buffer without a deinterleave pass.
package dsp
