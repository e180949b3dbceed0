package broadcast

import "sync"

// Queue is a thread-safe FIFO that grows by doubling when full. It sits
// between the broadcast path and a consumer that may stall (a WebSocket
// client, a flaky NATS link), so a slow consumer never back-pressures
// the read loop.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int
	tail   int
	count  int
	closed bool

	pushed int64
	popped int64
	grows  int
}

// NewQueue creates a queue with the given initial capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue[T]{
		items: make([]T, capacity),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item, growing the queue if needed.
// Returns false if the queue has been closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if q.count == len(q.items) {
		q.grow()
	}

	q.items[q.tail] = item
	q.tail = (q.tail + 1) % len(q.items)
	q.count++
	q.pushed++

	q.cond.Signal()
	return true
}

// Pop removes and returns the oldest item, blocking until one is
// available or the queue is closed. Returns false once closed and empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}

	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// TryPop removes the oldest item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// Drain removes up to max items (all items when max <= 0).
func (q *Queue[T]) Drain(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.count
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}

	out := make([]T, n)
	for i := range out {
		out[i] = q.pop()
	}
	return out
}

// Close wakes all blocked Pop calls; Push refuses afterwards. Items
// already queued remain poppable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// QueueStats describes queue throughput.
type QueueStats struct {
	Len      int
	Capacity int
	Pushed   int64
	Popped   int64
	Grows    int
}

// Stats returns current queue statistics.
func (q *Queue[T]) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Len:      q.count,
		Capacity: len(q.items),
		Pushed:   q.pushed,
		Popped:   q.popped,
		Grows:    q.grows,
	}
}

// pop removes the head item. Caller holds q.mu and has checked count > 0.
func (q *Queue[T]) pop() T {
	item := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.count--
	q.popped++
	return item
}

// grow doubles capacity, compacting the ring to the front.
// Caller holds q.mu.
func (q *Queue[T]) grow() {
	next := make([]T, len(q.items)*2)
	if q.head < q.tail {
		copy(next, q.items[q.head:q.tail])
	} else if q.count > 0 {
		n := copy(next, q.items[q.head:])
		copy(next[n:], q.items[:q.tail])
	}
	q.items = next
	q.head = 0
	q.tail = q.count
	q.grows++
}
