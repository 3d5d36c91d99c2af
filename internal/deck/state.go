// SPDX-License-Identifier: EPL-2.0

// Package deck holds the per-deck playback state shared, read-mostly,
// between the audio task (owner/writer) and the stream/IO/UI tasks
// (readers). Reads are intentionally lock-free best-effort copies — see
// spec.md §4.9 and §5.
package deck

// Flag is a bit set of deck state flags.
type Flag uint8

const (
	FlagPlaying Flag = 1 << iota
	FlagMonitoring
	FlagLooping
	FlagReverse
	FlagShiftUsed
)

// SampleOffsetUnit is the fixed-point scale of all offset/step fields: one
// unit is 1/16th of a single input sample.
const SampleOffsetUnit = 16

// Unset is the sentinel value for CueOffset/LoopStart/LoopEnd meaning "not
// set".
const Unset = -1

// State is the full playback state of one deck. Copies are torn-read
// tolerant: nothing but the audio task ever writes to the live instance.
type State struct {
	PlaybackOffset int
	PlaybackStep   int

	CueOffset int
	LoopStart int
	LoopEnd   int

	SampleRate int
	Flags      Flag

	Variant int
}

// Reset returns the deck to its just-opened state.
func (s *State) Reset() {
	*s = State{
		CueOffset: Unset,
		LoopStart: Unset,
		LoopEnd:   Unset,
	}
}

// HasValidLoop reports whether LoopStart/LoopEnd describe a usable loop
// region, per spec.md §3's invariant.
func (s *State) HasValidLoop() bool {
	return s.LoopStart >= 0 && s.LoopEnd > s.LoopStart
}

// CurrentTime returns the deck's playback position in seconds, or 0 if no
// sample rate has been set yet.
func (s *State) CurrentTime() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(s.PlaybackOffset) / float64(s.SampleRate*SampleOffsetUnit)
}
