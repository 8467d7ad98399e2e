package viewbridge

import "testing"

func TestBoundedQueueRejectsNewest(t *testing.T) {
	q := newBoundedQueue[int](4)
	for i := 0; i < 4; i++ {
		if !q.Push(i) {
			t.Fatalf("push %d rejected below capacity", i)
		}
	}
	if q.Push(99) {
		t.Fatalf("push beyond capacity admitted")
	}
	if q.Len() != 4 {
		t.Fatalf("len = %d, want 4", q.Len())
	}

	got := q.Drain()
	if len(got) != 4 {
		t.Fatalf("drained %d, want 4", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("drained[%d] = %d, want %d", i, v, i)
		}
	}
	if q.Len() != 0 {
		t.Errorf("len after drain = %d", q.Len())
	}
	if !q.Push(5) {
		t.Errorf("push rejected after drain reset")
	}
}

func TestBoundedQueueDrainEmpty(t *testing.T) {
	q := newBoundedQueue[string](2)
	if got := q.Drain(); got != nil {
		t.Errorf("Drain on empty = %v, want nil", got)
	}
}

func TestRingQueueEvictsOldest(t *testing.T) {
	const capacity = 4
	q := newRingQueue[int](capacity)
	for i := 0; i < capacity+3; i++ {
		q.Push(i)
	}
	if q.Len() != capacity {
		t.Fatalf("len = %d, want %d", q.Len(), capacity)
	}
	for want := 3; want < capacity+3; want++ {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("pop failed at %d", want)
		}
		if got != want {
			t.Errorf("pop = %d, want %d", got, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Errorf("pop on empty succeeded")
	}
}

func TestRingQueueWrapsRepeatedly(t *testing.T) {
	q := newRingQueue[int](3)
	for round := 0; round < 5; round++ {
		base := round * 10
		q.Push(base)
		q.Push(base + 1)
		if v, ok := q.Pop(); !ok || v != base {
			t.Fatalf("round %d: pop = %d, %v", round, v, ok)
		}
		if v, ok := q.Pop(); !ok || v != base+1 {
			t.Fatalf("round %d: pop = %d, %v", round, v, ok)
		}
	}
}
