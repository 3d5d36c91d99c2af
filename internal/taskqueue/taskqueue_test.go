package taskqueue

import (
	"context"
	"testing"
	"time"
)

func TestQueue_PushPopOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue[int](4)
	for i := 0; i < 4; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) failed", i)
		}
	}
	if q.Push(4) {
		t.Error("Push() on a full queue should fail")
	}

	for i := 0; i < 4; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Errorf("Pop() = %d, %v, want %d, true", v, ok, i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on an empty queue should fail")
	}
}

func TestQueue_Clear(t *testing.T) {
	t.Parallel()

	q := NewQueue[int](4)
	q.Push(1)
	q.Push(2)
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear(), want 0", q.Len())
	}
}

func TestMailbox_PutOverwrites(t *testing.T) {
	t.Parallel()

	m := NewMailbox[int]()
	m.Put(1)
	m.Put(2)

	v, ok := m.Get()
	if !ok || v != 2 {
		t.Errorf("Get() = %d, %v, want 2, true", v, ok)
	}
	if _, ok := m.Get(); ok {
		t.Error("Get() after drain should fail")
	}
}

func TestRunner_StopWaitsForTasks(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	r := Start(context.Background(), func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})

	r.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() returned before task observed cancellation")
	}
}
