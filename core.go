// SPDX-License-Identifier: EPL-2.0

package spicydeck

import (
	"context"

	"github.com/spicyjpeg/spicydeckIIDX/internal/audiotask"
	"github.com/spicyjpeg/spicydeckIIDX/internal/iotask"
	"github.com/spicyjpeg/spicydeckIIDX/internal/streamtask"
	"github.com/spicyjpeg/spicydeckIIDX/internal/taskqueue"
	"github.com/spicyjpeg/spicydeckIIDX/internal/uitask"
)

// Core owns the four cooperating tasks described by spec.md §2 — audio,
// stream, I/O, and UI — and the Runner that starts and stops them
// together. It is built once at startup from a fixed set of peripheral
// collaborators and torn down once at shutdown.
type Core struct {
	Audio  *audiotask.Task
	Stream *streamtask.Task
	IO     *iotask.Task
	UI     *uitask.Task

	runner *taskqueue.Runner
}

// Config collects the peripheral collaborators Core is built from. There
// is no flag/env parsing here, per spec.md's Non-goal on CLI/config
// setup; the embedder constructs one from whatever driver glue its build
// provides. The sample rate, buffer size, per-deck ring depth, and deck
// count are fixed architecture constants (audiotask.OutputSampleRate,
// audiotask.BufferSize, and so on) rather than Config fields: the
// reference hardware is a fixed two-deck design and nothing in this
// module varies them at runtime.
type Config struct {
	Storage BlockStorage
	Input   EncoderSource
	Motors  MotorSink

	AudioSink   AudioSink
	DisplaySink DisplaySink
}

// New wires the four tasks together: the I/O task forwards every polled
// snapshot to both the audio and UI tasks; the audio task's deck button
// state machine issues variant-step requests to the stream task; the
// stream task drives the audio task's sector rings; the UI task reads
// deck state from the audio task and key labels from the stream task.
func New(cfg Config) *Core {
	audio := audiotask.New(cfg.AudioSink, nil)
	stream := streamtask.New(cfg.Storage, audio)
	audio.SetVariantCommander(stream)

	ui := uitask.New(audio, stream, cfg.DisplaySink)
	io := iotask.New(cfg.Input, cfg.Motors, audio, audio, ui)

	return &Core{
		Audio:  audio,
		Stream: stream,
		IO:     io,
		UI:     ui,
	}
}

// Start launches every task's main loop under ctx and returns
// immediately.
func (c *Core) Start(ctx context.Context) {
	c.runner = taskqueue.Start(
		ctx,
		c.Audio.Run,
		c.Stream.Run,
		c.IO.Run,
		c.UI.Run,
	)
}

// Stop cancels every task and blocks until all four have returned.
func (c *Core) Stop() {
	if c.runner != nil {
		c.runner.Stop()
	}
}
