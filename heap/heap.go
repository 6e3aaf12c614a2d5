// Package heap provides an ordered candidate queue with access to both
// the best and the worst element.
package heap

import "sort"

// Lessable is implemented by elements ordered by Less.
type Lessable[T any] interface {
	Less(T) bool
}

// Heap keeps its elements sorted ascending. Min and Max are O(1); Push is
// O(n) in the worst case, which is fine for the short candidate lists it
// holds.
type Heap[T Lessable[T]] struct {
	data []T
}

// Init resets the heap to the elements of data, reusing its storage.
func (h *Heap[T]) Init(data []T) {
	sort.SliceStable(data, func(i, j int) bool {
		return data[i].Less(data[j])
	})
	h.data = data
}

func (h *Heap[T]) Len() int {
	return len(h.data)
}

// Push inserts v after any equal elements.
func (h *Heap[T]) Push(v T) {
	i := sort.Search(len(h.data), func(i int) bool {
		return v.Less(h.data[i])
	})
	var zero T
	h.data = append(h.data, zero)
	copy(h.data[i+1:], h.data[i:])
	h.data[i] = v
}

// Pop removes and returns the minimum element.
func (h *Heap[T]) Pop() T {
	v := h.data[0]
	h.data = h.data[1:]
	return v
}

// PopLast removes and returns the maximum element.
func (h *Heap[T]) PopLast() T {
	v := h.data[len(h.data)-1]
	h.data = h.data[:len(h.data)-1]
	return v
}

func (h *Heap[T]) Min() T {
	return h.data[0]
}

func (h *Heap[T]) Max() T {
	return h.data[len(h.data)-1]
}

// Slice returns the elements in ascending order. The slice aliases the
// heap's storage.
func (h *Heap[T]) Slice() []T {
	return h.data
}
