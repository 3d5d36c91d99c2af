// SPDX-License-Identifier: EPL-2.0

// Package audiotask is the core's critical path: the per-buffer loop that
// drives each deck's sampler and filter, mixes the two decks onto a main
// and a monitor bus, runs the bitcrusher, and hands both buses to the
// audio sink. It also owns the deck button state machine that the I/O
// task's input snapshots drive.
package audiotask

import (
	"context"

	"github.com/spicyjpeg/spicydeckIIDX/internal/deck"
	"github.com/spicyjpeg/spicydeckIIDX/internal/dsp"
	"github.com/spicyjpeg/spicydeckIIDX/internal/inputs"
	"github.com/spicyjpeg/spicydeckIIDX/internal/sampler"
	"github.com/spicyjpeg/spicydeckIIDX/internal/sectorring"
	"github.com/spicyjpeg/spicydeckIIDX/internal/taskqueue"
	"github.com/spicyjpeg/spicydeckIIDX/internal/track"
)

const (
	// OutputSampleRate is the fixed rate both audio buses are mixed and
	// handed to the sink at.
	OutputSampleRate = 44100
	// BufferSize is the number of frames processed per loop iteration.
	BufferSize = 256

	// numQueuedSectors sizes each deck's sector ring; 48 sectors of
	// track.SectorSize (512 bytes) is ~24KB buffered per deck.
	numQueuedSectors = 48

	// smoothingFactor is the default pole of each deck's speed-smoothing
	// filter.
	smoothingFactor = 0.3

	// deckStepsPerRev and deckTargetRPM normalize a deck's raw jog-wheel
	// encoder delta into a speed ratio (1.0 == nominal speed) before it
	// drives the sampler step; see DESIGN.md.
	deckStepsPerRev = 1 << 12
	deckTargetRPM   = 45.0

	numDecks = 2
)

// Frame is one interleaved stereo sample pair.
type Frame = [track.NumChannels]int16

// Sink receives fully mixed main and monitor buffers and blocks until the
// hardware (or a test double) has consumed them.
type Sink interface {
	Feed(main, monitor []Frame)
}

// VariantCommand is the subset of stream-task commands the deck button
// state machine can issue directly: stepping a deck's reader to an
// adjacent pitch-shifted variant while SHIFT is held and the selector is
// turned.
type VariantCommand int

const (
	VariantPrev VariantCommand = iota
	VariantNext
)

// VariantCommander receives the audio task's variant-step requests; the
// stream task implements it.
type VariantCommander interface {
	IssueVariantCommand(deckIndex int, cmd VariantCommand)
}

// Deck is one deck's full audio-processing state: sampler, filter, sector
// ring, and the playback state shared with the other tasks.
type Deck struct {
	state deck.State

	sampler         *sampler.Sampler
	filter          *dsp.Biquad
	smoothingFilter *dsp.Smoothing

	ring *sectorring.Ring[track.Sector]
	// popPending is set while readSector holds a matched entry open for
	// readSectorDone to commit.
	popPending bool

	buffer []Frame
}

func newDeck() *Deck {
	d := &Deck{
		filter:          dsp.NewBiquad(),
		smoothingFilter: dsp.NewSmoothing(smoothingFactor),
		ring:            sectorring.New[track.Sector](numQueuedSectors),
		buffer:          make([]Frame, BufferSize),
	}
	d.state.Reset()

	d.sampler = sampler.New(d.readSector, d.readSectorDone)
	return d
}

// readSector implements the sampler's ReadFunc: it drains the ring of any
// entry older than chunk, returning the first entry matching chunk, or nil
// on an underrun.
func (d *Deck) readSector(chunk int) *track.Sector {
	for {
		entry := d.ring.PopBegin()
		if entry == nil {
			return nil
		}
		if entry.Chunk == chunk {
			d.popPending = true
			return &entry.Sector
		}
		d.ring.PopCommit()
	}
}

// readSectorDone implements the sampler's ReadDoneFunc: it commits the
// matched entry readSector left open; after an underrun no pop is open
// and it does nothing.
func (d *Deck) readSectorDone() {
	if d.popPending {
		d.ring.PopCommit()
		d.popPending = false
	}
}

func (d *Deck) process() {
	d.sampler.Process(d.buffer, d.state.PlaybackOffset, d.state.PlaybackStep)

	samples := make([]int16, len(d.buffer)*track.NumChannels)
	for i, f := range d.buffer {
		samples[i*track.NumChannels] = f[0]
		samples[i*track.NumChannels+1] = f[1]
	}
	for ch := 0; ch < track.NumChannels; ch++ {
		d.filter.Process(
			samples[ch:], samples[ch:],
			len(d.buffer), track.NumChannels, track.NumChannels,
		)
	}
	for i := range d.buffer {
		d.buffer[i][0] = samples[i*track.NumChannels]
		d.buffer[i][1] = samples[i*track.NumChannels+1]
	}

	delta := d.state.PlaybackStep * len(d.buffer)
	if -delta > d.state.PlaybackOffset {
		d.state.PlaybackOffset = 0
	} else {
		d.state.PlaybackOffset += delta
	}

	if d.state.Flags&deck.FlagLooping != 0 {
		for d.state.PlaybackOffset >= d.state.LoopEnd {
			d.state.PlaybackOffset -= d.state.LoopEnd - d.state.LoopStart
		}
	}
}

func (d *Deck) updateMeasuredSpeed(encoderDelta int16, dt float32) {
	speed := float32(encoderDelta) / dt
	speed /= deckStepsPerRev
	speed /= deckTargetRPM / 60.0

	speed = d.smoothingFilter.Update(speed)
	speed *= float32(d.state.SampleRate)
	speed *= float32(deck.SampleOffsetUnit)

	d.state.PlaybackStep = int(speed)
}

func (d *Deck) updateFilter(value uint8) {
	cutoff := float32(value) / 127.5

	var filterType dsp.FilterType
	if cutoff < 1 {
		filterType = dsp.FilterLowpass
	} else {
		cutoff -= 1
		filterType = dsp.FilterHighpass
	}

	d.filter.Configure(filterType, cutoff*cutoff, 1)
}

// Task owns both decks plus the shared main/monitor mix stage. It is
// started as one taskqueue.Task alongside the stream, I/O, and UI tasks.
type Task struct {
	decks [numDecks]*Deck

	mainMixer    *dsp.Mixer
	monitorMixer *dsp.Mixer
	bitcrusher   *dsp.Bitcrusher

	mainBuffer    []Frame
	monitorBuffer []Frame

	inputQueue *taskqueue.Queue[inputs.Snapshot]
	sink       Sink

	streamCommander VariantCommander

	// lastSeq is the Seq of the most recently applied snapshot. A
	// snapshot redelivered with the same Seq (e.g. a duplicated queue
	// entry) is dropped rather than reapplied, so edge-triggered button
	// actions fire once per polled input frame rather than once per
	// call to handleInputs.
	lastSeq     uint64
	haveLastSeq bool
}

// New returns a Task that feeds sink once per processed buffer. commander
// receives variant-step requests from the deck button state machine; it
// may be nil, in which case SHIFT+selector turns are silently dropped.
func New(sink Sink, commander VariantCommander) *Task {
	t := &Task{
		mainMixer:       dsp.NewMixer(),
		monitorMixer:    dsp.NewMixer(),
		bitcrusher:      dsp.NewBitcrusher(),
		mainBuffer:      make([]Frame, BufferSize),
		monitorBuffer:   make([]Frame, BufferSize),
		inputQueue:      taskqueue.NewQueue[inputs.Snapshot](8),
		sink:            sink,
		streamCommander: commander,
	}
	for i := range t.decks {
		t.decks[i] = newDeck()
	}
	return t
}

// SetVariantCommander wires commander after construction, for callers
// that must build the stream task (which needs a reference back to this
// Task) before a VariantCommander is available.
func (t *Task) SetVariantCommander(commander VariantCommander) {
	t.streamCommander = commander
}

// UpdateInputs enqueues one polled input snapshot for the next loop
// iteration to consume. Non-blocking: on a full queue the push fails and
// the new snapshot is dropped, matching the reference firmware's
// non-blocking util::Queue::push.
func (t *Task) UpdateInputs(snapshot inputs.Snapshot) {
	t.inputQueue.Push(snapshot)
}

// FeedSector reserves a ring slot for deck index to receive the next
// streamed sector. Returns nil if the ring is full.
func (t *Task) FeedSector(index int) *sectorring.Entry[track.Sector] {
	return t.decks[index].ring.PushBegin()
}

// FinalizeFeed publishes the sector most recently reserved by FeedSector
// for deck index.
func (t *Task) FinalizeFeed(index int) {
	t.decks[index].ring.PushCommit()
}

// AbandonFeed cancels the ring slot most recently reserved by FeedSector
// for deck index, without publishing it. The stream task calls this when
// the storage read for that slot failed, so the slot is free to be
// retried on the next pass instead of leaking open forever.
func (t *Task) AbandonFeed(index int) {
	t.decks[index].ring.PushAbandon()
}

// QueueLength reports how many sectors are currently buffered for deck
// index.
func (t *Task) QueueLength(index int) int {
	return t.decks[index].ring.Length()
}

// DeckState copies deck index's current playback state into output. The
// copy is not synchronized against the processing loop; spec.md's
// tolerance for a torn read applies, since every other task only displays
// this state.
func (t *Task) DeckState(output *deck.State, index int) {
	*output = t.decks[index].state
}

// SetSampleRate records track index's sample rate against its deck,
// needed by updateMeasuredSpeed and DeckState.CurrentTime.
func (t *Task) SetSampleRate(index int, sampleRate int) {
	t.decks[index].state.SampleRate = sampleRate
}

// ResetDeck restores deck index's playback state (cue point, loop, flags)
// to its just-opened defaults, called by the stream task after a track
// OPEN/CLOSE.
func (t *Task) ResetDeck(index int) {
	t.decks[index].state.Reset()
	t.decks[index].sampler.Flush()
}

// Run is the task's main loop body, suitable for taskqueue.Start. It runs
// until ctx is canceled.
func (t *Task) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		for {
			snapshot, ok := t.inputQueue.Pop()
			if !ok {
				break
			}
			t.handleInputs(snapshot)
		}

		for _, d := range t.decks {
			d.process()
		}

		t.mixBuses()
		t.sink.Feed(t.mainBuffer, t.monitorBuffer)
	}
}

func (t *Task) mixBuses() {
	leftBuf := make([]int16, BufferSize)
	rightBuf := make([]int16, BufferSize)

	for ch := 0; ch < track.NumChannels; ch++ {
		in1 := extractChannel(t.decks[0].buffer, ch)
		in2 := extractChannel(t.decks[1].buffer, ch)

		var out, monitorOut []int16
		if ch == 0 {
			out = leftBuf
		} else {
			out = rightBuf
		}
		monitorOut = make([]int16, BufferSize)

		t.mainMixer.Process(out, in1, in2, BufferSize, 1, 1)
		t.monitorMixer.Process(monitorOut, in1, in2, BufferSize, 1, 1)
		t.bitcrusher.Process(out, out, BufferSize, 1, 1)

		for i := 0; i < BufferSize; i++ {
			t.mainBuffer[i][ch] = out[i]
			t.monitorBuffer[i][ch] = monitorOut[i]
		}
	}
}

func extractChannel(buf []Frame, ch int) []int16 {
	out := make([]int16, len(buf))
	for i, f := range buf {
		out[i] = f[ch]
	}
	return out
}

// handleInputs applies one polled snapshot: per-deck speed/filter
// updates, bus gains, bitcrusher depth, and the deck button state
// machine. A snapshot whose Seq matches the last one applied is dropped,
// so redelivering the same input frame twice has no additional effect —
// edge-triggered button actions fire once per polled frame rather than
// once per call.
func (t *Task) handleInputs(snapshot inputs.Snapshot) {
	if snapshot.Seq != 0 {
		if t.haveLastSeq && snapshot.Seq == t.lastSeq {
			return
		}
		t.lastSeq = snapshot.Seq
		t.haveLastSeq = true
	}

	for i, d := range t.decks {
		d.updateMeasuredSpeed(snapshot.DeckEncoderDelta[i], snapshot.DT)
		d.updateFilter(snapshot.Analog[analogFilterIndex(i)])
	}

	mainVolume := float32(snapshot.Analog[inputs.AnalogMainVolume]) / 255
	monitorVolume := float32(snapshot.Analog[inputs.AnalogMonitorVolume]) / 255
	crossfade := float32(snapshot.Analog[inputs.AnalogCrossfade]) / 255
	effectDepth := float32(snapshot.Analog[inputs.AnalogEffectDepth]) / 255

	t.mainMixer.Configure((1-crossfade)*mainVolume, crossfade*mainVolume)

	monitorGain := func(i int) float32 {
		if t.decks[i].state.Flags&deck.FlagMonitoring != 0 {
			return monitorVolume
		}
		return 0
	}
	t.monitorMixer.Configure(monitorGain(0), monitorGain(1))
	t.bitcrusher.Configure(effectDepth)

	for i := range t.decks {
		pressed := inputs.DeckBits(snapshot.ButtonsPressed, i)
		released := inputs.DeckBits(snapshot.ButtonsReleased, i)
		held := inputs.DeckBits(snapshot.ButtonsHeld, i)

		t.handleDeckButtons(i, snapshot.SelectorDelta, pressed, released, held)
	}
}

func analogFilterIndex(deckIndex int) inputs.Analog {
	if deckIndex == 0 {
		return inputs.AnalogLeftFilter
	}
	return inputs.AnalogRightFilter
}

// handleDeckButtons is the per-deck button state machine: five buttons
// that read as {LOOP_IN, LOOP_OUT, RELOOP, PLAY, MONITOR} normally and as
// {RESTART, CUE_JUMP, CUE_SET, REVERSE, SHIFT} while MONITOR (which
// doubles as the shift modifier) is held.
func (t *Task) handleDeckButtons(
	index int,
	selectorDelta int16,
	pressed, released, held inputs.DeckButton,
) {
	d := &t.decks[index].state

	if held&inputs.BtnShift != 0 {
		if t.streamCommander != nil {
			if selectorDelta < 0 {
				t.streamCommander.IssueVariantCommand(index, VariantPrev)
			} else if selectorDelta > 0 {
				t.streamCommander.IssueVariantCommand(index, VariantNext)
			}
		}

		if pressed&inputs.BtnRestart != 0 {
			d.PlaybackOffset = 0
		}
		if pressed&inputs.BtnCueJump != 0 {
			d.PlaybackOffset = d.CueOffset
		}
		if pressed&inputs.BtnCueSet != 0 {
			d.CueOffset = d.PlaybackOffset
		}
		if pressed&inputs.BtnReverse != 0 {
			d.Flags ^= deck.FlagReverse
		}
		if pressed&^inputs.BtnShift != 0 || selectorDelta != 0 {
			d.Flags |= deck.FlagShiftUsed
		}
		return
	}

	if pressed&inputs.BtnLoopIn != 0 {
		length := d.LoopEnd - d.LoopStart
		d.LoopStart = d.PlaybackOffset

		if d.LoopEnd >= 0 && d.LoopEnd < d.PlaybackOffset {
			d.LoopEnd = d.PlaybackOffset + length
		}
	}

	if pressed&inputs.BtnLoopOut != 0 {
		if d.LoopStart >= 0 && d.PlaybackOffset > d.LoopStart {
			d.LoopEnd = d.PlaybackOffset
			d.Flags |= deck.FlagLooping
		}
	}

	if pressed&inputs.BtnReloop != 0 {
		if d.HasValidLoop() {
			d.Flags ^= deck.FlagLooping
		}
	}

	if pressed&inputs.BtnPlay != 0 {
		d.Flags ^= deck.FlagPlaying
	}

	if released&inputs.BtnMonitor != 0 {
		if d.Flags&deck.FlagShiftUsed == 0 {
			d.Flags ^= deck.FlagMonitoring
		}
	}

	d.Flags &^= deck.FlagShiftUsed
}
