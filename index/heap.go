package index

// iteratorHeap is a min-heap over the block iterators of a merge, keyed
// by each iterator's current term id. Implements container/heap.
type iteratorHeap struct {
	items []*PostingsIterator
}

func (h *iteratorHeap) Len() int { return len(h.items) }

func (h *iteratorHeap) Less(i, j int) bool {
	return h.items[i].TermID() < h.items[j].TermID()
}

func (h *iteratorHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *iteratorHeap) Push(item any) {
	h.items = append(h.items, item.(*PostingsIterator))
}

func (h *iteratorHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[0 : n-1]
	return x
}
