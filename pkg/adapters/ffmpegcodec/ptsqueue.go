package ffmpegcodec

import (
	"container/heap"
	"sync"
)

// ptsQueue hands decoded frames their presentation times. ffmpeg emits
// frames in presentation order while samples arrive in decode order, so
// within an epoch the smallest pending timestamp goes first. A timestamp
// at or below the first one of the current epoch starts a new epoch,
// which happens when playback loops back to the start.
type ptsQueue struct {
	mu     sync.Mutex
	epochs []*epoch
	last   int64
}

type epoch struct {
	first   int64
	pending int64Heap
}

func (q *ptsQueue) push(pts int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var cur *epoch
	if n := len(q.epochs); n > 0 {
		cur = q.epochs[n-1]
	}
	if cur == nil || pts <= cur.first {
		cur = &epoch{first: pts}
		q.epochs = append(q.epochs, cur)
	}
	heap.Push(&cur.pending, pts)
}

// pop returns the next presentation time. When nothing is pending it
// repeats the previous one.
func (q *ptsQueue) pop() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.epochs) > 0 {
		e := q.epochs[0]
		if e.pending.Len() > 0 {
			q.last = heap.Pop(&e.pending).(int64)
			return q.last
		}
		if len(q.epochs) == 1 {
			break
		}
		q.epochs = q.epochs[1:]
	}
	return q.last
}

func (q *ptsQueue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.epochs = nil
	q.last = 0
}

type int64Heap []int64

func (h int64Heap) Len() int            { return len(h) }
func (h int64Heap) Less(i, j int) bool  { return h[i] < h[j] }
func (h int64Heap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *int64Heap) Push(x interface{}) { *h = append(*h, x.(int64)) }
func (h *int64Heap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
