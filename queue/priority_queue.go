// Package queue provides a generic min-priority queue used as the selection
// structure of the k-way merge and for ordering worker backlogs.
package queue

import "container/heap"

// PriorityQueue is a heap-backed priority queue. The element at Peek is the
// minimum under the comparison function supplied at construction.
type PriorityQueue[E any] struct {
	h innerHeap[E]
}

// innerHeap implements heap.Interface over a plain slice. No per-element
// index bookkeeping is needed because elements are only ever re-fixed at the
// root.
type innerHeap[E any] struct {
	items []E
	less  func(E, E) bool
}

// New creates a PriorityQueue ordered by less.
func New[E any](less func(E, E) bool) *PriorityQueue[E] {
	pq := &PriorityQueue[E]{}
	pq.h.less = less
	return pq
}

// Len returns the number of queued elements.
func (pq *PriorityQueue[E]) Len() int {
	return len(pq.h.items)
}

// Push adds x to the queue.
func (pq *PriorityQueue[E]) Push(x E) {
	heap.Push(&pq.h, x)
}

// Pop removes and returns the minimum element.
func (pq *PriorityQueue[E]) Pop() E {
	return heap.Pop(&pq.h).(E)
}

// Peek returns the minimum element without removing it.
func (pq *PriorityQueue[E]) Peek() E {
	return pq.h.items[0]
}

// PeekUpdate restores heap order after the minimum element's priority
// changed in place.
func (pq *PriorityQueue[E]) PeekUpdate() {
	heap.Fix(&pq.h, 0)
}

func (h *innerHeap[E]) Len() int { return len(h.items) }

func (h *innerHeap[E]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }

func (h *innerHeap[E]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *innerHeap[E]) Push(x any) { h.items = append(h.items, x.(E)) }

func (h *innerHeap[E]) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	var zero E
	old[n-1] = zero
	h.items = old[:n-1]
	return x
}
