package broadcast

import (
	"testing"
	"time"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := NewQueue[int](4)

	for i := 1; i <= 3; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}

	for want := 1; want <= 3; want++ {
		got, ok := q.TryPop()
		if !ok {
			t.Fatalf("TryPop returned false at item %d", want)
		}
		if got != want {
			t.Fatalf("TryPop = %d, want %d", got, want)
		}
	}

	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop on empty queue returned true")
	}
}

func TestQueue_GrowsPastInitialCapacity(t *testing.T) {
	q := NewQueue[int](2)

	const n = 17
	for i := 0; i < n; i++ {
		q.Push(i)
	}

	stats := q.Stats()
	if stats.Len != n {
		t.Fatalf("Len = %d, want %d", stats.Len, n)
	}
	if stats.Grows == 0 {
		t.Fatal("expected at least one grow")
	}
	if stats.Capacity < n {
		t.Fatalf("Capacity = %d, want >= %d", stats.Capacity, n)
	}

	// Order survives growth.
	for want := 0; want < n; want++ {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("TryPop = %d,%v, want %d,true", got, ok, want)
		}
	}
}

func TestQueue_GrowWithWrappedRing(t *testing.T) {
	q := NewQueue[int](4)

	// Advance head so the ring wraps before growing.
	q.Push(0)
	q.Push(1)
	q.TryPop()
	q.TryPop()
	for i := 10; i < 16; i++ {
		q.Push(i)
	}

	for want := 10; want < 16; want++ {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("TryPop = %d,%v, want %d,true", got, ok, want)
		}
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewQueue[string](2)

	done := make(chan string, 1)
	go func() {
		v, ok := q.Pop()
		if !ok {
			done <- ""
			return
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push("hello")

	select {
	case got := <-done:
		if got != "hello" {
			t.Fatalf("Pop = %q, want %q", got, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestQueue_CloseWakesPop(t *testing.T) {
	q := NewQueue[int](2)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Pop on closed empty queue returned true")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Close")
	}

	if q.Push(1) {
		t.Fatal("Push after Close returned true")
	}
}

func TestQueue_CloseKeepsQueuedItems(t *testing.T) {
	q := NewQueue[int](2)
	q.Push(7)
	q.Close()

	got, ok := q.Pop()
	if !ok || got != 7 {
		t.Fatalf("Pop = %d,%v, want 7,true", got, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop after draining closed queue returned true")
	}
}

func TestQueue_Drain(t *testing.T) {
	q := NewQueue[int](4)
	for i := 0; i < 5; i++ {
		q.Push(i)
	}

	first := q.Drain(3)
	if len(first) != 3 || first[0] != 0 || first[2] != 2 {
		t.Fatalf("Drain(3) = %v", first)
	}

	rest := q.Drain(0)
	if len(rest) != 2 || rest[0] != 3 || rest[1] != 4 {
		t.Fatalf("Drain(0) = %v", rest)
	}

	if got := q.Drain(10); got != nil {
		t.Fatalf("Drain on empty = %v, want nil", got)
	}
}
