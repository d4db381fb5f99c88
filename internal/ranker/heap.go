package ranker

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
)

// topK selects the best k hits with a bounded heap whose root is the
// currently weakest hit.
func topK(scores []float64, ids []string, method similarity.Method, k int) []Hit {
	h := &hitHeap{method: method}
	heap.Init(h)
	for i, s := range scores {
		heap.Push(h, Hit{DocID: ids[i], Position: i, Score: s})
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	out := make([]Hit, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Hit)
	}
	return out
}

type hitHeap struct {
	hits   []Hit
	method similarity.Method
}

func (h hitHeap) Len() int { return len(h.hits) }

// Less orders the weakest hit first: a worse score, or on a tie the later
// input position.
func (h hitHeap) Less(i, j int) bool {
	a, b := h.hits[i], h.hits[j]
	if a.Score != b.Score {
		return h.method.Better(b.Score, a.Score)
	}
	return a.Position > b.Position
}

func (h hitHeap) Swap(i, j int) { h.hits[i], h.hits[j] = h.hits[j], h.hits[i] }

func (h *hitHeap) Push(x any) {
	h.hits = append(h.hits, x.(Hit))
}

func (h *hitHeap) Pop() any {
	old := h.hits
	n := len(old)
	item := old[n-1]
	h.hits = old[:n-1]
	return item
}
