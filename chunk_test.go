package h1c

import "testing"

func TestChunkQueueTerminatorThenPushFails(t *testing.T) {
	q := &ChunkQueue{}
	if err := q.Push(&ChunkDescriptor{DeclaredSize: 3}); err != nil {
		t.Fatalf("unexpected error pushing data chunk: %s", err)
	}
	if q.Terminated() {
		t.Fatalf("queue reports terminated before the 0-size chunk")
	}
	if err := q.Push(&ChunkDescriptor{DeclaredSize: 0}); err != nil {
		t.Fatalf("unexpected error pushing terminator: %s", err)
	}
	if !q.Terminated() {
		t.Fatalf("queue does not report terminated after the 0-size chunk")
	}
	err := q.Push(&ChunkDescriptor{DeclaredSize: 1})
	if err != ErrChunkAfterTerminator {
		t.Fatalf("got %v, want ErrChunkAfterTerminator", err)
	}
}

func TestChunkQueueDrainInvokesCallbacks(t *testing.T) {
	q := &ChunkQueue{}
	var got []error
	cb := func(userData any, err error) { got = append(got, err) }
	q.Push(&ChunkDescriptor{DeclaredSize: 1, OnComplete: cb})
	q.Push(&ChunkDescriptor{DeclaredSize: 0, OnComplete: cb})

	cause := NewError(ConnectionClosed)
	q.Drain(cause)
	if len(got) != 2 {
		t.Fatalf("got %d callbacks, want 2", len(got))
	}
	for _, e := range got {
		if e != cause {
			t.Fatalf("callback error = %v, want %v", e, cause)
		}
	}
	if !q.Empty() {
		t.Fatalf("queue not empty after drain")
	}
}

func TestChunkQueuePopOrder(t *testing.T) {
	q := &ChunkQueue{}
	a := &ChunkDescriptor{DeclaredSize: 1}
	b := &ChunkDescriptor{DeclaredSize: 0}
	q.Push(a)
	q.Push(b)
	if q.Pop() != a {
		t.Fatalf("expected FIFO order: first pushed chunk should pop first")
	}
	if q.Pop() != b {
		t.Fatalf("expected FIFO order: second pushed chunk should pop second")
	}
	if !q.Empty() {
		t.Fatalf("queue should be empty after popping both chunks")
	}
}
