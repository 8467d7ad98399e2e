package viewbridge

import "sync"

// boundedQueue is a fixed-capacity queue that rejects new entries once
// full. Enqueues come from caller goroutines, draining from the owner, so
// every operation takes the queue lock.
type boundedQueue[T any] struct {
	mu    sync.Mutex
	items []T
	cap   int
}

func newBoundedQueue[T any](capacity int) *boundedQueue[T] {
	return &boundedQueue[T]{
		items: make([]T, 0, capacity),
		cap:   capacity,
	}
}

// Push appends v and reports whether it was admitted. A full queue drops
// the entry.
func (q *boundedQueue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.cap {
		return false
	}
	q.items = append(q.items, v)
	return true
}

// Drain removes and returns all queued entries in insertion order.
func (q *boundedQueue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = make([]T, 0, q.cap)
	return out
}

func (q *boundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ringQueue is a fixed-capacity ring that evicts the oldest entry to
// admit the newest once full, keeping a trailing window of the most
// recent entries.
type ringQueue[T any] struct {
	mu    sync.Mutex
	buf   []T
	head  int
	count int
}

func newRingQueue[T any](capacity int) *ringQueue[T] {
	return &ringQueue[T]{buf: make([]T, capacity)}
}

func (q *ringQueue[T]) Push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tail := (q.head + q.count) % len(q.buf)
	q.buf[tail] = v
	if q.count == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
	} else {
		q.count++
	}
}

// Pop removes and returns the oldest entry.
func (q *ringQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.count == 0 {
		return zero, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return v, true
}

func (q *ringQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
