package gtimer

import "time"

// Timeout 定时器.
type Timeout struct {
	task
	delay  int64   // 延迟（毫秒）.
	expiry int64   // 到期时间.
	bucket *bucket // 所在延迟桶, 非激活时为 nil.
}

func (t *Timeout) base() *task {
	if t == nil {
		return nil
	}
	return &t.task
}

// Active 是否仍待执行.
func (t *Timeout) Active() bool { return t != nil && t.active() }

// HasRef 是否维持宿主存活.
func (t *Timeout) HasRef() bool { return t != nil && t.is(stateRefed) }

// Repeat 是否周期执行.
func (t *Timeout) Repeat() bool { return t.is(stateRepeat) }

// Delay 延迟.
func (t *Timeout) Delay() time.Duration { return time.Duration(t.delay) * time.Millisecond }

// Expiry 到期时间（唤醒原语时钟, 毫秒）.
func (t *Timeout) Expiry() int64 { return t.expiry }

// Ref 维持宿主存活.
func (t *Timeout) Ref() *Timeout {
	t.s.Ref(t)
	return t
}

// Unref 不再维持宿主存活.
func (t *Timeout) Unref() *Timeout {
	t.s.Unref(t)
	return t
}

// Refresh 以当前时间重新计算到期时间.
func (t *Timeout) Refresh() *Timeout {
	return t.s.Refresh(t)
}

// Close 取消定时器.
func (t *Timeout) Close() {
	t.s.Clear(t)
}
