// SPDX-License-Identifier: EPL-2.0

// Package uitask is the read-only observer side of the deck-state
// contract: it drains its own input-snapshot queue (so the I/O task's
// push never blocks) and exposes the two decks' current state and stream
// metadata to whatever display layer a given build provides. The font
// renderer, screen layout, and file-library browser are thin consumers of
// this state and are not part of this package.
package uitask

import (
	"context"
	"time"

	"github.com/spicyjpeg/spicydeckIIDX/internal/deck"
	"github.com/spicyjpeg/spicydeckIIDX/internal/inputs"
)

// period is the task's fixed redraw period.
const period = 20 * time.Millisecond

const numDecks = 2

// DeckStateSource exposes read-only deck state, torn-read tolerated per
// spec.md §4.9.
type DeckStateSource interface {
	DeckState(output *deck.State, index int)
}

// KeySource exposes each deck's current musical key label; the stream
// task implements it.
type KeySource interface {
	GetKeyName(index int) string
}

// Snapshot is one consistent (best-effort) view of both decks, assembled
// once per redraw tick for a display layer to consume.
type Snapshot struct {
	Decks [numDecks]deck.State
	Keys  [numDecks]string
}

// Presenter is implemented by whatever drives the physical (or
// test-double) display; Present is called once per redraw tick.
type Presenter interface {
	Present(snapshot Snapshot)
}

// Task drains its own input-snapshot queue and periodically assembles and
// hands a Snapshot to a Presenter.
type Task struct {
	audio     DeckStateSource
	stream    KeySource
	presenter Presenter

	inputQueue chan inputs.Snapshot
}

// New returns a Task that redraws via presenter, reading deck state from
// audio and key labels from stream.
func New(audio DeckStateSource, stream KeySource, presenter Presenter) *Task {
	return &Task{
		audio:      audio,
		stream:     stream,
		presenter:  presenter,
		inputQueue: make(chan inputs.Snapshot, 8),
	}
}

// UpdateInputs enqueues one polled snapshot, non-blocking: a full queue
// silently drops the update, matching the reference firmware's UI input
// queue (lowest priority, never allowed to stall the I/O task).
func (t *Task) UpdateInputs(snapshot inputs.Snapshot) {
	select {
	case t.inputQueue <- snapshot:
	default:
	}
}

func (t *Task) drainInputs() {
	for {
		select {
		case <-t.inputQueue:
			// Screen input handling (selector/library navigation) lives in
			// the display layer, which is out of scope here; draining keeps
			// the queue from ever blocking the I/O task's push.
		default:
			return
		}
	}
}

// Snapshot assembles the current Snapshot without waiting for the next
// tick, useful for tests and for a display layer that redraws on its own
// schedule instead of Task's.
func (t *Task) Snapshot() Snapshot {
	var s Snapshot
	for i := 0; i < numDecks; i++ {
		t.audio.DeckState(&s.Decks[i], i)
		if t.stream != nil {
			s.Keys[i] = t.stream.GetKeyName(i)
		}
	}
	return s
}

// Run is the task's main loop body, suitable for taskqueue.Start.
func (t *Task) Run(ctx context.Context) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.drainInputs()
			if t.presenter != nil {
				t.presenter.Present(t.Snapshot())
			}
		}
	}
}
