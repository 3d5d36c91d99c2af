// SPDX-License-Identifier: EPL-2.0

package spicydeck

import (
	"github.com/spicyjpeg/spicydeckIIDX/internal/audiotask"
	"github.com/spicyjpeg/spicydeckIIDX/internal/iotask"
	"github.com/spicyjpeg/spicydeckIIDX/internal/track"
	"github.com/spicyjpeg/spicydeckIIDX/internal/uitask"
)

// AudioSink receives each audio period's fully mixed main and monitor
// buses, ready to hand to an I²S driver. audiotask.Task drives it once
// per BufferSize-frame period.
type AudioSink = audiotask.Sink

// DisplaySink receives a full redraw snapshot once per UI period.
// uitask.Task drives it.
type DisplaySink = uitask.Presenter

// EncoderSource and ButtonSource are specified separately but sampled
// together on the same ~10ms period as the analog potentiometers; the
// core unifies all three into iotask.InputSource.Poll, which returns one
// inputs.Snapshot per call.
type EncoderSource = iotask.InputSource
type ButtonSource = iotask.InputSource

// MotorSink drives one deck's platter motor from the I/O task's PID
// loop.
type MotorSink = iotask.MotorSink

// BlockStorage opens track files by path from removable storage. The
// core does not assume a specific filesystem; see spec.md §6.
type BlockStorage = track.Storage
