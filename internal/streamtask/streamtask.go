// SPDX-License-Identifier: EPL-2.0

// Package streamtask owns each deck's track.Reader and keeps its sector
// ring charged: it drains a command queue of OPEN/CLOSE/variant-step
// requests, then predicts and prefetches whichever sector each deck is
// about to need next, including across loop wraps.
package streamtask

import (
	"context"
	"time"

	"github.com/spicyjpeg/spicydeckIIDX/internal/audiotask"
	"github.com/spicyjpeg/spicydeckIIDX/internal/deck"
	"github.com/spicyjpeg/spicydeckIIDX/internal/sampler"
	"github.com/spicyjpeg/spicydeckIIDX/internal/sectorring"
	"github.com/spicyjpeg/spicydeckIIDX/internal/track"
)

// idleWait bounds how long Run blocks when a pass drains no command and
// prefetches no sector, so the task suspends instead of spinning while
// every deck's ring is already full and idle — matching spec.md §5's
// bounded-wait-with-timeout suspension contract for this task.
const idleWait = 2 * time.Millisecond

// Entry is one reserved ring slot, as returned by FeedSector; this is the
// same type audiotask.Task's sector ring hands out, named here so callers
// do not need to reach into sectorring directly.
type Entry = sectorring.Entry[track.Sector]

// ChunkIndexUnit is the number of offset units spanned by one sector,
// matching sampler.ChunkIndexUnit.
const ChunkIndexUnit = sampler.ChunkIndexUnit

const numDecks = 2

// CommandType identifies the verb of one queued StreamCommand.
type CommandType uint8

const (
	CmdOpen CommandType = iota
	CmdClose
	CmdPrevVariant
	CmdNextVariant
	CmdResetVariant
)

// Command is one queued request against a deck's reader.
type Command struct {
	Deck int
	Cmd  CommandType
	Path string
}

// AudioTask is the subset of audiotask.Task the stream task drives:
// sector feeding and read-only deck state.
type AudioTask interface {
	FeedSector(index int) *Entry
	FinalizeFeed(index int)
	AbandonFeed(index int)
	QueueLength(index int) int
	DeckState(output *deck.State, index int)
	SetSampleRate(index int, sampleRate int)
	ResetDeck(index int)
}

// Task owns one track.Reader per deck and a bounded command queue, driven
// by IssueCommand from the audio task (variant steps) or from the UI
// layer (open/close).
type Task struct {
	readers [numDecks]track.Reader
	storage track.Storage

	commands chan Command

	audioTask AudioTask
}

// New returns a Task backed by storage, wired to drive audioTask's sector
// rings.
func New(storage track.Storage, audioTask AudioTask) *Task {
	return &Task{
		storage:   storage,
		commands:  make(chan Command, 16),
		audioTask: audioTask,
	}
}

// IssueCommand enqueues command, blocking until there is room — matching
// the reference firmware's blocking util::Queue::push(command, true).
func (t *Task) IssueCommand(ctx context.Context, cmd Command) bool {
	select {
	case t.commands <- cmd:
		return true
	case <-ctx.Done():
		return false
	}
}

// IssueVariantCommand implements audiotask.VariantCommander: the deck
// button state machine's SHIFT+selector gesture maps directly onto a
// prev/next variant command, queued non-blockingly so the audio task's
// critical path never stalls on it.
func (t *Task) IssueVariantCommand(deckIndex int, cmd audiotask.VariantCommand) {
	var ct CommandType
	if cmd == audiotask.VariantPrev {
		ct = CmdPrevVariant
	} else {
		ct = CmdNextVariant
	}

	select {
	case t.commands <- Command{Deck: deckIndex, Cmd: ct}:
	default:
	}
}

// GetHeader returns deck index's currently open header, or nil if no
// track is open.
func (t *Task) GetHeader(index int) *track.Header {
	return t.readers[index].Header()
}

// GetWaveform returns deck index's waveform peak summary bytes.
func (t *Task) GetWaveform(index int) []byte {
	return t.readers[index].Waveform()
}

// GetKeyName returns deck index's current musical key label.
func (t *Task) GetKeyName(index int) string {
	return t.readers[index].GetKeyName()
}

func (t *Task) handleCommand(cmd Command) {
	r := &t.readers[cmd.Deck]

	switch cmd.Cmd {
	case CmdOpen:
		if err := r.Open(t.storage, cmd.Path); err == nil {
			t.audioTask.ResetDeck(cmd.Deck)
			t.audioTask.SetSampleRate(cmd.Deck, int(r.Header().SampleRate))
		}
	case CmdClose:
		r.Close()
		t.audioTask.ResetDeck(cmd.Deck)
	case CmdPrevVariant:
		r.SetVariant(r.Variant() - 1)
	case CmdNextVariant:
		r.SetVariant(r.Variant() + 1)
	case CmdResetVariant:
		r.ResetVariant()
	}
}

// predictNextChunk implements spec.md §4.7's lookahead predictor: walk
// forward from the deck's current chunk by lookahead steps, folding loop
// wraps, and return the chunk that many sectors ahead — or -1 once the
// end of the track is reached with looping disabled.
func predictNextChunk(state *deck.State, numChunks, lookahead int) int {
	chunk := state.PlaybackOffset / ChunkIndexUnit
	if chunk >= numChunks {
		return -1
	}

	for ; lookahead > 0; lookahead-- {
		chunk++
		newOffset := chunk * ChunkIndexUnit

		if state.Flags&deck.FlagLooping != 0 {
			for newOffset >= state.LoopEnd {
				newOffset -= state.LoopEnd - state.LoopStart
			}
			chunk = newOffset / ChunkIndexUnit
		}

		if chunk >= numChunks {
			return -1
		}
	}

	return chunk
}

// Run is the task's main loop body, suitable for taskqueue.Start. It is
// driven by work availability rather than a timer: each pass drains
// queued commands and prefetches whatever sectors are due, and only
// blocks — on the command queue, with a bounded timeout — once a pass
// makes no progress, so an idle deck (ring already full, no command
// pending) suspends instead of spinning the core.
func (t *Task) Run(ctx context.Context) {
	idle := time.NewTicker(idleWait)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		drained := t.drainCommands()
		fetched := t.prefetch()
		if drained || fetched {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case cmd := <-t.commands:
			t.handleCommand(cmd)
		case <-idle.C:
		}
	}
}

// drainCommands handles every command currently queued and reports
// whether it handled at least one.
func (t *Task) drainCommands() bool {
	drained := false
	for {
		select {
		case cmd := <-t.commands:
			t.handleCommand(cmd)
			drained = true
		default:
			return drained
		}
	}
}

// prefetch feeds at most one predicted sector per deck and reports
// whether it fed any.
func (t *Task) prefetch() bool {
	fetched := false

	for i := 0; i < numDecks; i++ {
		header := t.readers[i].Header()
		if header == nil {
			continue
		}

		var state deck.State
		t.audioTask.DeckState(&state, i)

		chunk := predictNextChunk(&state, int(header.NumChunks), t.audioTask.QueueLength(i))
		if chunk < 0 {
			continue
		}

		entry := t.audioTask.FeedSector(i)
		if entry == nil {
			continue
		}

		entry.Chunk = chunk
		if t.readers[i].Read(&entry.Sector, chunk) {
			t.audioTask.FinalizeFeed(i)
			fetched = true
		} else {
			// Storage read failed: abandon the reservation rather than
			// commit garbage, per spec.md's retry contract — the ring
			// slot stays free and predictNextChunk will pick the same
			// chunk again on the next pass.
			t.audioTask.AbandonFeed(i)
		}
	}

	return fetched
}
