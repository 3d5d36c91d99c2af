// SPDX-License-Identifier: EPL-2.0

// Package coretest collects hand-written mock implementations of the
// core's peripheral interfaces (BlockStorage, EncoderSource/
// ButtonSource, MotorSink, AudioSink, DisplaySink), colocated here the
// way internal/audiotest collects mocks for the audio decoding/resampling
// library. Task-level tests in internal/audiotask, internal/streamtask,
// and internal/iotask mostly use their own small test doubles instead;
// this package exists for tests that need to exercise several tasks
// wired together at once.
package coretest

import (
	"errors"
	"io"
	"sync"

	"github.com/spicyjpeg/spicydeckIIDX/internal/audiotask"
	"github.com/spicyjpeg/spicydeckIIDX/internal/inputs"
	"github.com/spicyjpeg/spicydeckIIDX/internal/track"
	"github.com/spicyjpeg/spicydeckIIDX/internal/uitask"
)

// ErrNotFound is returned by MemStorage.Open for an unknown path.
var ErrNotFound = errors.New("coretest: file not found")

// MemFile is an in-memory track.File backed by a byte slice.
type MemFile struct {
	Data []byte
}

func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n := copy(p, f.Data[off:])
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

func (f *MemFile) Close() error { return nil }

// MemStorage is an in-memory track.Storage over a fixed set of paths,
// useful for tests that never touch a real filesystem.
type MemStorage struct {
	Files map[string][]byte
}

func (s *MemStorage) Open(path string) (track.File, error) {
	data, ok := s.Files[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &MemFile{Data: data}, nil
}

// InputSource is a scriptable EncoderSource/ButtonSource: each call to
// Poll pops the next queued snapshot, repeating the last one once the
// queue is drained.
type InputSource struct {
	mu   sync.Mutex
	next []inputs.Snapshot
	last inputs.Snapshot
}

// Queue appends snapshots to be returned by future Poll calls, in order.
func (s *InputSource) Queue(snapshots ...inputs.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = append(s.next, snapshots...)
}

func (s *InputSource) Poll() inputs.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.next) == 0 {
		return s.last
	}
	s.last, s.next = s.next[0], s.next[1:]
	return s.last
}

// MotorSink records the last drive signal issued to each deck.
type MotorSink struct {
	mu     sync.Mutex
	Speeds map[int]float32
}

func (m *MotorSink) Drive(index int, speed float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Speeds == nil {
		m.Speeds = make(map[int]float32)
	}
	m.Speeds[index] = speed
}

// AudioSink counts Feed calls, optionally signaling after a fixed count
// on Done.
type AudioSink struct {
	mu    sync.Mutex
	Fed   int
	Done  chan struct{}
	after int
}

// NewAudioSink returns an AudioSink whose Done channel closes once Feed
// has been called n times.
func NewAudioSink(n int) *AudioSink {
	return &AudioSink{Done: make(chan struct{}), after: n}
}

func (s *AudioSink) Feed(main, monitor []audiotask.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fed++
	if s.after > 0 && s.Fed == s.after {
		close(s.Done)
	}
}

// DisplaySink records every presented snapshot.
type DisplaySink struct {
	mu        sync.Mutex
	Presented int
	Last      uitask.Snapshot
}

func (s *DisplaySink) Present(snapshot uitask.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Presented++
	s.Last = snapshot
}
