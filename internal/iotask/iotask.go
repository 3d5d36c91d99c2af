// SPDX-License-Identifier: EPL-2.0

// Package iotask is the fixed-period (~10ms) input poller and motor
// controller: it reads the encoder/button/potentiometer source into an
// inputs.Snapshot, forwards it to the audio and UI tasks, and drives each
// deck's platter motor toward its target speed via a PID loop.
package iotask

import (
	"context"
	"time"

	"github.com/spicyjpeg/spicydeckIIDX/internal/deck"
	"github.com/spicyjpeg/spicydeckIIDX/internal/dsp"
	"github.com/spicyjpeg/spicydeckIIDX/internal/inputs"
)

const (
	// period is the task's fixed polling/control-loop period.
	period = 10 * time.Millisecond

	// nominalRPS is the platter's target speed at zero pitch adjustment
	// (45 RPM turntables), in revolutions per second.
	nominalRPS = 45.0 / 60.0

	// speedRange bounds how far the SPEED_i potentiometer can pull the
	// target away from nominal, as a fraction of nominal.
	speedRange = 0.16

	numDecks = 2
)

const (
	pidKp     = 0.1
	pidKi     = 0.08
	pidKd     = 0.0005
	pidIClamp = 1.0
)

// InputSource polls one frame of raw controller state. It subsumes
// spec.md's EncoderSource/ButtonSource/analog-potentiometer inputs into
// one call, since they are all sampled together on the same period.
type InputSource interface {
	Poll() inputs.Snapshot
}

// MotorSink drives deck index's platter motor at the given signed speed,
// where the sign encodes direction and the magnitude is the PID
// controller's raw output. Zero means "no drive" (coast or brake, per the
// sink's own policy).
type MotorSink interface {
	Drive(index int, speed float32)
}

// InputSink receives a polled snapshot; audiotask.Task and uitask.Task
// both implement it.
type InputSink interface {
	UpdateInputs(snapshot inputs.Snapshot)
}

// DeckStateSource exposes read-only deck state, used here only to read
// the PLAYING and REVERSE flags before driving a motor.
type DeckStateSource interface {
	DeckState(output *deck.State, index int)
}

// Task is the I/O task: one PID controller per deck plus the wiring to
// the input source, motor sink, and downstream input sinks.
type Task struct {
	pids      [numDecks]*dsp.PID
	targetRPS [numDecks]float32

	input  InputSource
	motors MotorSink
	state  DeckStateSource
	sinks  []InputSink

	seq uint64
}

// New returns a Task polling input from input and driving motors through
// motors, forwarding every snapshot to sinks (typically the audio task
// and the UI task) and reading PLAYING/REVERSE from state.
func New(input InputSource, motors MotorSink, state DeckStateSource, sinks ...InputSink) *Task {
	t := &Task{
		input:  input,
		motors: motors,
		state:  state,
		sinks:  sinks,
	}
	for i := range t.pids {
		t.pids[i] = &dsp.PID{Kp: pidKp, Ki: pidKi, Kd: pidKd, IClamp: pidIClamp}
	}
	return t
}

func (t *Task) updateTargetSpeed(index int, value uint8) {
	rate := float32(value)/127.5 - 1
	rate = rate*speedRange + 1

	t.targetRPS[index] = rate * nominalRPS
}

// updateMeasuredSpeed feeds the deck's raw encoder delta through the PID
// controller and returns the drive signal, or 0 if the deck is not
// playing. Direction is read from the deck's REVERSE flag, negating the
// target rather than the measured speed, matching the reference
// firmware's sign convention.
func (t *Task) updateMeasuredSpeed(index int, value int16, dt float32, playing, reverse bool) float32 {
	if !playing {
		t.pids[index].Reset()
		return 0
	}

	target := t.targetRPS[index]
	if reverse {
		target = -target
	}

	rps := float32(value) / dt
	rps /= deckStepsPerRev

	return t.pids[index].Update(target-rps, dt)
}

// deckStepsPerRev mirrors the constant used by audiotask's speed
// normalization; both tasks read the same jog-wheel encoder.
const deckStepsPerRev = 1 << 12

// Run is the task's main loop body, suitable for taskqueue.Start.
func (t *Task) Run(ctx context.Context) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Task) tick() {
	snapshot := t.input.Poll()
	t.seq++
	snapshot.Seq = t.seq

	for _, sink := range t.sinks {
		sink.UpdateInputs(snapshot)
	}

	t.updateTargetSpeed(0, snapshot.Analog[inputs.AnalogLeftSpeed])
	t.updateTargetSpeed(1, snapshot.Analog[inputs.AnalogRightSpeed])

	for i := 0; i < numDecks; i++ {
		var state deck.State
		t.state.DeckState(&state, i)

		playing := state.Flags&deck.FlagPlaying != 0
		reverse := state.Flags&deck.FlagReverse != 0

		speed := t.updateMeasuredSpeed(
			i,
			snapshot.DeckEncoderDelta[i],
			snapshot.DT,
			playing,
			reverse,
		)
		t.motors.Drive(i, speed)
	}
}
