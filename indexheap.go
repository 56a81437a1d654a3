package silo

// indexHeap is a min-heap of retired-but-reusable entity indices.
// entityDirectory hands out the smallest free index first, which keeps
// live handles packed near the front of the directory's slots (spec §3).
type indexHeap []uint32

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *indexHeap) Push(x any) {
	*h = append(*h, x.(uint32))
}

func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
