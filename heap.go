package gtimer

import "github.com/godyy/gutils/container/heap"

// bucketHeap 延迟桶最小堆, 按 (到期时间, 延迟) 排序.
type bucketHeap struct {
	h *heap.Heap[*bucket]
}

func newBucketHeap() *bucketHeap {
	return &bucketHeap{h: heap.NewHeap[*bucket]()}
}

func (q *bucketHeap) len() int { return q.h.Len() }

func (q *bucketHeap) push(b *bucket) { q.h.Push(b) }

// peek 堆顶, 堆为空时返回 nil.
func (q *bucketHeap) peek() *bucket {
	if q.h.Len() == 0 {
		return nil
	}
	return q.h.Top()
}

// remove 从堆中移除 b.
func (q *bucketHeap) remove(b *bucket) {
	q.h.Remove(b.heapIndex)
	b.heapIndex = -1
}

// update b 的到期时间变化后恢复堆序.
func (q *bucketHeap) update(b *bucket) { q.h.Fix(b.heapIndex) }
