package gtimer

import "github.com/godyy/gtimer/internal/list"

// bucket 延迟桶, 容纳延迟相同的定时器.
// 到期时间 = 加入时间 + 延迟, 因此按加入顺序排列即按到期时间排列.
type bucket struct {
	delay     int64                 // 延迟（毫秒）.
	expiry    int64                 // 缓存的头部到期时间, 用于堆排序.
	timeouts  list.List             // 定时器链表.
	arena     *list.Arena[*Timeout] // 节点池.
	heapIndex int                   // 堆索引, 不在堆中时为 -1.
	garbage   bool                  // 是否作为空桶计入垃圾.
}

func newBucket(delay int64, arena *list.Arena[*Timeout]) *bucket {
	return &bucket{
		delay:     delay,
		arena:     arena,
		heapIndex: -1,
	}
}

func (b *bucket) HeapLess(other *bucket) bool {
	if n := b.expiry - other.expiry; n == 0 {
		return b.delay < other.delay
	} else {
		return n < 0
	}
}

func (b *bucket) HeapIndex() int {
	return b.heapIndex
}

func (b *bucket) SetHeapIndex(index int) {
	b.heapIndex = index
}

// resident 是否在堆中.
func (b *bucket) resident() bool { return b.heapIndex >= 0 }

func (b *bucket) empty() bool { return b.timeouts.Empty() }

func (b *bucket) len() int { return b.timeouts.Len() }

// head 最早到期的定时器.
func (b *bucket) head() *Timeout {
	t, _ := b.arena.Front(&b.timeouts)
	return t
}

// push 追加到尾部.
func (b *bucket) push(t *Timeout) {
	t.bucket = b
	t.node = b.arena.PushBack(&b.timeouts, t)
}

// shift 移除并返回头部定时器.
func (b *bucket) shift() *Timeout {
	t, ok := b.arena.PopFront(&b.timeouts)
	if !ok {
		return nil
	}
	t.node = list.Nil
	return t
}

// remove 摘除 t.
func (b *bucket) remove(t *Timeout) {
	b.arena.Remove(&b.timeouts, t.node)
	t.node = list.Nil
}

// updateExpiry 缓存头部到期时间, 返回是否变化.
func (b *bucket) updateExpiry() bool {
	if h := b.head(); h != nil && h.expiry != b.expiry {
		b.expiry = h.expiry
		return true
	}
	return false
}
