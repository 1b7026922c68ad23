// Package list 基于节点池的双向循环链表.
// 节点之间通过数组下标互相引用, 被释放的节点进入空闲链表供后续复用.
package list

// Ref 节点引用（节点池下标）.
type Ref int32

// Nil 空引用.
const Nil Ref = -1

// node 链表节点.
type node[T any] struct {
	prev, next Ref // 前驱/后继节点.
	value      T   // 节点值.
}

// Arena 节点池, 可同时承载多个 List.
type Arena[T any] struct {
	nodes []node[T] // 节点数组.
	free  Ref       // 空闲链表头.
	used  int       // 已使用节点数.
}

// NewArena 构造 Arena.
func NewArena[T any](capacity int) *Arena[T] {
	return &Arena[T]{
		nodes: make([]node[T], 0, capacity),
		free:  Nil,
	}
}

// Len 已使用节点数.
func (a *Arena[T]) Len() int { return a.used }

// Value 返回节点值.
func (a *Arena[T]) Value(r Ref) T { return a.nodes[r].value }

// Reset 释放所有节点. 挂在 Arena 上的 List 需要同时 Reset.
func (a *Arena[T]) Reset() {
	clear(a.nodes)
	a.nodes = a.nodes[:0]
	a.free = Nil
	a.used = 0
}

// alloc 分配节点.
func (a *Arena[T]) alloc(v T) Ref {
	a.used++
	if a.free != Nil {
		r := a.free
		n := &a.nodes[r]
		a.free = n.next
		n.prev, n.next, n.value = Nil, Nil, v
		return r
	}
	a.nodes = append(a.nodes, node[T]{prev: Nil, next: Nil, value: v})
	return Ref(len(a.nodes) - 1)
}

// release 回收节点.
func (a *Arena[T]) release(r Ref) {
	var zero T
	n := &a.nodes[r]
	n.prev = Nil
	n.next = a.free
	n.value = zero
	a.free = r
	a.used--
}

// List 链表. 零值为空链表.
type List struct {
	head Ref // 头节点, 仅当 len > 0 时有效.
	len  int // 长度.
}

// Len 链表长度.
func (l *List) Len() int { return l.len }

// Empty 链表是否为空.
func (l *List) Empty() bool { return l.len == 0 }

// Reset 清空链表, 不回收节点.
func (l *List) Reset() {
	l.head = Nil
	l.len = 0
}

// PushBack 在 l 尾部追加 v, 返回节点引用.
func (a *Arena[T]) PushBack(l *List, v T) Ref {
	r := a.alloc(v)
	if l.len == 0 {
		a.nodes[r].prev, a.nodes[r].next = r, r
		l.head = r
	} else {
		head := l.head
		tail := a.nodes[head].prev
		a.nodes[r].prev, a.nodes[r].next = tail, head
		a.nodes[tail].next = r
		a.nodes[head].prev = r
	}
	l.len++
	return r
}

// Front 返回 l 的头节点值.
func (a *Arena[T]) Front(l *List) (v T, ok bool) {
	if l.len == 0 {
		return v, false
	}
	return a.nodes[l.head].value, true
}

// PopFront 移除并返回 l 的头节点值.
func (a *Arena[T]) PopFront(l *List) (v T, ok bool) {
	if l.len == 0 {
		return v, false
	}
	return a.Remove(l, l.head), true
}

// Remove 从 l 中摘除节点 r 并返回其值. r 必须属于 l.
func (a *Arena[T]) Remove(l *List, r Ref) T {
	n := a.nodes[r]
	if l.len == 1 {
		l.head = Nil
	} else {
		a.nodes[n.prev].next = n.next
		a.nodes[n.next].prev = n.prev
		if l.head == r {
			l.head = n.next
		}
	}
	l.len--
	a.release(r)
	return n.value
}

// Each 按顺序遍历 l, f 返回 false 时停止.
func (a *Arena[T]) Each(l *List, f func(T) bool) {
	if l.len == 0 {
		return
	}
	r := l.head
	for i := 0; i < l.len; i++ {
		n := &a.nodes[r]
		if !f(n.value) {
			return
		}
		r = n.next
	}
}
