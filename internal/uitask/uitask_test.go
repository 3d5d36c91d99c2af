package uitask

import (
	"testing"

	"github.com/spicyjpeg/spicydeckIIDX/internal/deck"
	"github.com/spicyjpeg/spicydeckIIDX/internal/inputs"
)

type fakeDeckStateSource struct {
	states [numDecks]deck.State
}

func (f *fakeDeckStateSource) DeckState(output *deck.State, index int) {
	*output = f.states[index]
}

type fakeKeySource struct {
	keys [numDecks]string
}

func (f *fakeKeySource) GetKeyName(index int) string { return f.keys[index] }

type fakePresenter struct {
	presented []Snapshot
}

func (f *fakePresenter) Present(snapshot Snapshot) {
	f.presented = append(f.presented, snapshot)
}

func TestSnapshot_AssemblesDeckStateAndKeys(t *testing.T) {
	t.Parallel()

	audio := &fakeDeckStateSource{}
	audio.states[0].Flags |= deck.FlagPlaying
	audio.states[1].Flags |= deck.FlagReverse

	stream := &fakeKeySource{keys: [numDecks]string{"Am", "C#m"}}

	task := New(audio, stream, &fakePresenter{})
	snapshot := task.Snapshot()

	if snapshot.Decks[0].Flags&deck.FlagPlaying == 0 {
		t.Error("Decks[0] should carry FlagPlaying from the audio source")
	}
	if snapshot.Decks[1].Flags&deck.FlagReverse == 0 {
		t.Error("Decks[1] should carry FlagReverse from the audio source")
	}
	if snapshot.Keys[0] != "Am" || snapshot.Keys[1] != "C#m" {
		t.Errorf("Keys = %v, want [Am C#m]", snapshot.Keys)
	}
}

func TestSnapshot_NilKeySourceLeavesKeysEmpty(t *testing.T) {
	t.Parallel()

	task := New(&fakeDeckStateSource{}, nil, &fakePresenter{})
	snapshot := task.Snapshot()

	if snapshot.Keys[0] != "" || snapshot.Keys[1] != "" {
		t.Errorf("Keys = %v, want both empty with a nil KeySource", snapshot.Keys)
	}
}

func TestUpdateInputs_NonBlockingOnFullQueue(t *testing.T) {
	t.Parallel()

	task := New(&fakeDeckStateSource{}, &fakeKeySource{}, &fakePresenter{})

	// inputQueue has capacity 8; push well past that and confirm UpdateInputs
	// never blocks.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			task.UpdateInputs(inputs.Snapshot{})
		}
		close(done)
	}()

	select {
	case <-done:
	default:
	}
	<-done
}

func TestDrainInputs_EmptiesQueue(t *testing.T) {
	t.Parallel()

	task := New(&fakeDeckStateSource{}, &fakeKeySource{}, &fakePresenter{})
	task.UpdateInputs(inputs.Snapshot{})
	task.UpdateInputs(inputs.Snapshot{})

	task.drainInputs()

	select {
	case <-task.inputQueue:
		t.Error("drainInputs() should have emptied the queue")
	default:
	}
}

func TestTask_DrainThenPresentSnapshot(t *testing.T) {
	t.Parallel()

	presenter := &fakePresenter{}
	task := New(&fakeDeckStateSource{}, &fakeKeySource{}, presenter)

	task.drainInputs()
	presenter.Present(task.Snapshot())

	if len(presenter.presented) != 1 {
		t.Fatalf("presented = %d snapshots, want 1", len(presenter.presented))
	}
}
