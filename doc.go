// SPDX-License-Identifier: EPL-2.0

// Package spicydeck is the two-deck DJ controller's control and audio
// engine. Core wires together the four cooperating tasks described in
// the internal/audiotask, internal/streamtask, internal/iotask, and
// internal/uitask packages, reading tracks encoded on disk as .sst
// files (internal/track) and mixing them live against controller
// input.
//
// Everything else at this level belongs to the offline encoder side
// of the project: cmd/sstencode turns ordinary audio files into .sst
// tracks, decoding each input with a formats/* decoder, resampling it
// with audio.NewResampler once per pitch-shifted variant, and ADPCM-
// encoding the result into sectors. The -dump-wav flag reuses the
// reference variant's already-resampled PCM, mixed to mono the same
// way audio.MonoMixer does, rather than decoding and resampling a
// second time, so the dumped WAV always matches exactly what got
// encoded.
package spicydeck
