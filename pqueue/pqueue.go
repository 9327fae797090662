// Package pqueue provides a binary min-heap ordered by a caller comparator.
//
// Besides the usual enqueue/dequeue, a Queue supports removing an arbitrary element by
// identity. EPA needs this to evict faces that became obsolete without being the
// nearest one.
package pqueue

import "iter"

// Queue is a binary min-heap. The zero value is not usable, use New.
type Queue[T comparable] struct {
	items   []T
	compare func(a, b T) int
}

// New returns an empty queue ordered by compare, which must return a negative number
// when a sorts before b, zero when they are equivalent and a positive number otherwise.
func New[T comparable](compare func(a, b T) int) *Queue[T] {
	return &Queue[T]{compare: compare}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Enqueue adds item in O(log n).
func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
	q.up(len(q.items) - 1)
}

// Dequeue removes and returns the smallest item in O(log n).
// The boolean is false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	top := q.items[0]
	q.removeAt(0)
	return top, true
}

// Peek returns the smallest item without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Remove deletes item from the queue. The search is linear, the heap repair
// logarithmic. It reports whether the item was found.
func (q *Queue[T]) Remove(item T) bool {
	for i := range q.items {
		if q.items[i] == item {
			q.removeAt(i)
			return true
		}
	}
	return false
}

// Clear empties the queue, keeping the allocated storage.
func (q *Queue[T]) Clear() {
	clear(q.items)
	q.items = q.items[:0]
}

// All yields the queued items in heap order, which is only guaranteed to start with
// the smallest item. The queue must not be modified during iteration.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range q.items {
			if !yield(item) {
				return
			}
		}
	}
}

func (q *Queue[T]) removeAt(i int) {
	last := len(q.items) - 1
	if i != last {
		q.items[i] = q.items[last]
	}
	var zero T
	q.items[last] = zero
	q.items = q.items[:last]

	if i < len(q.items) {
		// the moved item may have to go either way
		if !q.down(i) {
			q.up(i)
		}
	}
}

func (q *Queue[T]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.compare(q.items[i], q.items[parent]) >= 0 {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

// down sifts the item at i toward the leaves and reports whether it moved.
func (q *Queue[T]) down(i int) bool {
	start := i
	n := len(q.items)
	for {
		smallest := i
		left := 2*i + 1
		right := left + 1
		if left < n && q.compare(q.items[left], q.items[smallest]) < 0 {
			smallest = left
		}
		if right < n && q.compare(q.items[right], q.items[smallest]) < 0 {
			smallest = right
		}
		if smallest == i {
			break
		}
		q.items[i], q.items[smallest] = q.items[smallest], q.items[i]
		i = smallest
	}
	return i > start
}
