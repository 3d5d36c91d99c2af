package spicydeck

import (
	"context"
	"testing"
	"time"

	"github.com/spicyjpeg/spicydeckIIDX/internal/coretest"
)

func TestCore_StartRunsAllFourTasksAndStop(t *testing.T) {
	t.Parallel()

	audio := coretest.NewAudioSink(3)
	display := &coretest.DisplaySink{}
	motors := &coretest.MotorSink{}
	input := &coretest.InputSource{}
	storage := &coretest.MemStorage{Files: map[string][]byte{}}

	core := New(Config{
		Storage:     storage,
		Input:       input,
		Motors:      motors,
		AudioSink:   audio,
		DisplaySink: display,
	})

	ctx, cancel := context.WithCancel(context.Background())
	core.Start(ctx)

	select {
	case <-audio.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("audio sink never reached the expected feed count")
	}
	// The unthrottled audio loop reaches three feeds almost at once; the
	// UI task only presents on its 20ms period, so give it a few periods.
	time.Sleep(100 * time.Millisecond)

	cancel()
	core.Stop()

	if display.Presented == 0 {
		t.Error("UI task should have presented at least one snapshot")
	}
}
