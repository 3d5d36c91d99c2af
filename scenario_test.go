// SPDX-License-Identifier: EPL-2.0

package spicydeck

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spicyjpeg/spicydeckIIDX/internal/coretest"
	"github.com/spicyjpeg/spicydeckIIDX/internal/deck"
	"github.com/spicyjpeg/spicydeckIIDX/internal/inputs"
	"github.com/spicyjpeg/spicydeckIIDX/internal/streamtask"
	"github.com/spicyjpeg/spicydeckIIDX/internal/track"
)

// buildScenarioTrack writes a tiny two-variant track (pitch offsets 0 and
// +1 semitone) using track.Writer, the same way cmd/sstencode does.
func buildScenarioTrack(t *testing.T) []byte {
	t.Helper()

	header := track.Header{
		SampleRate:  44100,
		NumChunks:   1,
		NumVariants: 2,
		NumChannels: track.NumChannels,
		KeyScale:    track.ScaleMinor,
		KeyNote:     9, // A
		Tags:        track.Tags{Title: "Scenario Track"},
	}
	header.PitchOffsets[0] = 0
	header.PitchOffsets[1] = track.PitchOffsetUnit

	var buf bytes.Buffer
	w := track.NewWriter(&buf, header)
	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}
	for v := 0; v < int(header.NumVariants); v++ {
		if err := w.WriteSector(&track.Sector{}); err != nil {
			t.Fatalf("WriteSector() error = %v", err)
		}
	}

	return buf.Bytes()
}

// TestEndToEnd_ShiftSelectorStepsVariantAndKeyName exercises the "shift +
// variant step" scenario: holding SHIFT and turning the selector issues a
// NEXT_VARIANT command that the stream task applies to the open reader,
// shifting GetKeyName by one semitone; releasing SHIFT afterwards, alone,
// must not toggle monitoring, since the shift+selector gesture already
// marked SHIFT_USED.
func TestEndToEnd_ShiftSelectorStepsVariantAndKeyName(t *testing.T) {
	t.Parallel()

	storage := &coretest.MemStorage{Files: map[string][]byte{
		"/scenario.sst": buildScenarioTrack(t),
	}}
	input := &coretest.InputSource{}

	core := New(Config{
		Storage:     storage,
		Input:       input,
		Motors:      &coretest.MotorSink{},
		AudioSink:   coretest.NewAudioSink(0),
		DisplaySink: &coretest.DisplaySink{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	core.Start(ctx)
	defer core.Stop()

	if !core.Stream.IssueCommand(ctx, streamtask.Command{
		Deck: 0,
		Cmd:  streamtask.CmdOpen,
		Path: "/scenario.sst",
	}) {
		t.Fatal("IssueCommand(OPEN) failed")
	}

	waitFor(t, func() bool { return core.Stream.GetHeader(0) != nil })

	if got := core.Stream.GetKeyName(0); got != "Am" {
		t.Fatalf("GetKeyName() before variant step = %q, want %q", got, "Am")
	}

	// Hold SHIFT (the deck-0 MONITOR bit) and turn the selector +1, then
	// go neutral — the input source otherwise keeps redelivering its
	// last-queued frame on every later poll, and a one-shot edge bit has
	// no business staying asserted across real polls.
	input.Queue(
		inputs.Snapshot{
			DT:            0.01,
			SelectorDelta: 1,
			ButtonsHeld:   inputs.ButtonMask(inputs.BtnShift),
		},
		inputs.Snapshot{DT: 0.01},
	)

	waitFor(t, func() bool { return core.Stream.GetKeyName(0) == "A#/Bbm" })

	// Release SHIFT alone; SHIFT_USED was set by the selector turn, so
	// this must not toggle monitoring on. Followed by another neutral
	// frame for the same reason as above.
	input.Queue(
		inputs.Snapshot{
			DT:              0.01,
			ButtonsReleased: inputs.ButtonMask(inputs.BtnMonitor),
		},
		inputs.Snapshot{DT: 0.01},
	)

	var state deck.State
	waitFor(t, func() bool {
		core.Audio.DeckState(&state, 0)
		return state.Flags&deck.FlagShiftUsed == 0
	})
	if state.Flags&deck.FlagMonitoring != 0 {
		t.Error("MONITOR release after a SHIFT+selector gesture toggled monitoring on")
	}
}

// waitFor polls cond until it returns true or a short deadline elapses.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition never became true")
		case <-time.After(time.Millisecond):
		}
	}
}
