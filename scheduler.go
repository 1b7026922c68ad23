package gtimer

import (
	"time"

	"github.com/godyy/glog"
	"github.com/godyy/gtimer/internal/list"
	"github.com/godyy/gtimer/wake"
	"github.com/pkg/errors"
)

// Scheduler 定时任务调度器.
//
// 调度器不是并发安全的: 所有方法以及回调都必须在唤醒原语所在的宿主 goroutine 中执行.
// 回调中可以同步地调度、取消、ref/unref 其它任务.
type Scheduler struct {
	opts   *options       // 选项.
	logger glog.Logger    // 日志工具.
	wake   wake.Primitive // 唤醒原语.

	buckets  map[int64]*bucket     // 在堆中的延迟桶, 以延迟为键.
	queue    *bucketHeap           // 延迟桶最小堆.
	timeouts *list.Arena[*Timeout] // 定时器节点池.

	immediates     list.List               // 立即任务队列.
	immediateArena *list.Arena[*Immediate] // 立即任务节点池.

	refs       int    // 维持宿主存活的任务数.
	garbage    int    // 堆中的空桶数.
	nextExpiry int64  // 唤醒原语上设置的到期时间, 0 表示未设置.
	ticks      uint64 // 轮次.
	triggered  uint64 // 正在执行的轮次.
	paused     bool   // 是否挂起.
	closed     bool   // 是否已关闭.
}

// New 构造 Scheduler, 并通过 bind 绑定唤醒原语.
func New(bind wake.Binder, opts ...Option) (*Scheduler, error) {
	if bind == nil {
		return nil, errors.New("wake binder not specified")
	}

	o := newOptions(opts...)
	if err := o.init(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		opts:           o,
		logger:         o.logger,
		buckets:        make(map[int64]*bucket),
		queue:          newBucketHeap(),
		timeouts:       list.NewArena[*Timeout](64),
		immediateArena: list.NewArena[*Immediate](64),
		ticks:          1,
	}

	w, err := bind(s.OnTimerFire, s.OnImmediateFire)
	if err != nil {
		return nil, errors.WithMessage(err, "bind wake primitive")
	}
	s.wake = w

	return s, nil
}

// tick 推进轮次.
func (s *Scheduler) tick() uint64 {
	s.ticks++
	return s.ticks
}

// draining 是否正在执行一轮回调.
// 执行期间的重入修改不直接操作唤醒原语, 由本轮结束时统一重新计算.
func (s *Scheduler) draining() bool {
	return s.ticks == s.triggered
}

// acquire 增加引用计数.
func (s *Scheduler) acquire() {
	s.refs++
	if s.refs == 1 && !s.paused {
		s.wake.Ref()
	}
}

// release 减少引用计数.
func (s *Scheduler) release() {
	s.refs--
	if s.refs == 0 && !s.paused {
		s.wake.Unref()
	}
}

// arm 设置唤醒原语在 expiry 时刻唤醒.
func (s *Scheduler) arm(expiry int64) {
	if s.draining() {
		return
	}
	s.nextExpiry = expiry
	if s.paused {
		return
	}
	s.wake.Start(max(expiry-s.wake.Now(), 0))
}

// disarm 取消唤醒原语的定时唤醒.
func (s *Scheduler) disarm() {
	if s.draining() {
		return
	}
	s.nextExpiry = 0
	if s.paused {
		return
	}
	s.wake.Stop()
}

// finish 任务结束（执行或取消）.
func (s *Scheduler) finish(t *task, cleared bool) {
	if !t.active() {
		return
	}
	t.state &^= stateActive
	if cleared {
		t.state |= stateCleared
	}
	if t.is(stateRefed) {
		s.release()
	}
}

// evict 将 b 移出堆.
func (s *Scheduler) evict(b *bucket) {
	if !b.resident() {
		return
	}
	s.queue.remove(b)
	delete(s.buckets, b.delay)
	if b.garbage {
		b.garbage = false
		s.garbage--
	}
	b.expiry = 0
}

// settle 移除堆顶的空桶, 并刷新堆顶缓存的过期时间.
func (s *Scheduler) settle() {
	for b := s.queue.peek(); b != nil; b = s.queue.peek() {
		if b.empty() {
			s.evict(b)
			continue
		}
		if b.updateExpiry() {
			s.queue.update(b)
			continue
		}
		break
	}
}

// rearm 按堆顶重新设置唤醒原语.
func (s *Scheduler) rearm() {
	s.settle()
	top := s.queue.peek()
	switch {
	case top == nil:
		if s.nextExpiry != 0 {
			s.disarm()
		}
	case top.expiry != s.nextExpiry:
		s.arm(top.expiry)
	}
}

// maybeCompact 空桶过多时压缩堆.
func (s *Scheduler) maybeCompact() {
	if s.garbage < s.opts.compactThreshold || 2*s.garbage < s.queue.len() {
		return
	}

	garbage, size := s.garbage, s.queue.len()
	for _, b := range s.buckets {
		if b.garbage {
			s.evict(b)
		}
	}
	s.logger.DebugFields("heap compacted", lfdGarbage(garbage), lfdHeapSize(size))
}

// ScheduleTimeout 调度定时器.
//
// delay 按毫秒向下取整, 小于 1ms 或超过最大延迟时按 1ms 处理（WithStrictDelay 时返回
// ErrInvalidDelay）. repeat 为 true 时周期执行, 直到被取消.
func (s *Scheduler) ScheduleTimeout(delay time.Duration, repeat bool, cb Callback, args ...any) (*Timeout, error) {
	if cb == nil {
		return nil, ErrInvalidCallback
	}

	if s.closed {
		return nil, ErrSchedulerClosed
	}

	ms, err := s.opts.delayMillis(delay)
	if err != nil {
		return nil, err
	}

	now := s.wake.Now()
	t := &Timeout{
		task:   newTask(s, cb, args),
		delay:  ms,
		expiry: now + ms,
	}
	if repeat {
		t.state |= stateRepeat
	}

	b, exists := s.buckets[ms]
	if exists {
		if b.garbage {
			b.garbage = false
			s.garbage--
		}
		b.push(t)
		if b.updateExpiry() {
			s.queue.update(b)
		}
	} else {
		b = newBucket(ms, s.timeouts)
		b.push(t)
		b.updateExpiry()
		s.buckets[ms] = b
		s.queue.push(b)
	}

	s.acquire()

	if s.nextExpiry == 0 || b.expiry < s.nextExpiry {
		s.arm(b.expiry)
	}

	return t, nil
}

// SetTimeout 调度一次性定时器.
func (s *Scheduler) SetTimeout(cb Callback, delay time.Duration, args ...any) (*Timeout, error) {
	return s.ScheduleTimeout(delay, false, cb, args...)
}

// SetInterval 调度周期定时器.
func (s *Scheduler) SetInterval(cb Callback, delay time.Duration, args ...any) (*Timeout, error) {
	return s.ScheduleTimeout(delay, true, cb, args...)
}

// ScheduleImmediate 调度立即任务, 在当前轮次结束后执行.
// 在立即任务回调中调度的立即任务在下一轮执行.
func (s *Scheduler) ScheduleImmediate(cb Callback, args ...any) (*Immediate, error) {
	if cb == nil {
		return nil, ErrInvalidCallback
	}

	if s.closed {
		return nil, ErrSchedulerClosed
	}

	im := &Immediate{
		task: newTask(s, cb, args),
		tick: s.ticks,
	}

	wasEmpty := s.immediates.Empty()
	im.node = s.immediateArena.PushBack(&s.immediates, im)

	s.acquire()

	if wasEmpty {
		s.wake.Immediate()
	}

	return im, nil
}

// SetImmediate 同 ScheduleImmediate.
func (s *Scheduler) SetImmediate(cb Callback, args ...any) (*Immediate, error) {
	return s.ScheduleImmediate(cb, args...)
}

// Clear 取消任务. 对已执行、已取消的任务以及 nil 无效果.
func (s *Scheduler) Clear(h Handle) {
	switch t := h.(type) {
	case *Timeout:
		if t != nil {
			s.clearTimeout(t)
		}
	case *Immediate:
		if t != nil {
			s.clearImmediate(t)
		}
	}
}

// ClearTimeout 取消定时器.
func (s *Scheduler) ClearTimeout(t *Timeout) {
	if t != nil {
		s.clearTimeout(t)
	}
}

// ClearInterval 同 ClearTimeout.
func (s *Scheduler) ClearInterval(t *Timeout) {
	s.ClearTimeout(t)
}

// ClearImmediate 取消立即任务.
func (s *Scheduler) ClearImmediate(im *Immediate) {
	if im != nil {
		s.clearImmediate(im)
	}
}

func (s *Scheduler) clearTimeout(t *Timeout) {
	if !t.active() {
		return
	}

	b := t.bucket
	b.remove(t)
	t.bucket = nil
	s.finish(&t.task, true)

	if b.empty() && b.resident() && !b.garbage {
		b.garbage = true
		s.garbage++
	}

	if !s.draining() {
		s.rearm()
	}
}

func (s *Scheduler) clearImmediate(im *Immediate) {
	if !im.active() {
		return
	}

	s.immediateArena.Remove(&s.immediates, im.node)
	im.node = list.Nil
	s.finish(&im.task, true)
}

// Refresh 以当前时间重新计算定时器的到期时间, 延迟与周期属性不变.
// 对非激活的定时器无效果.
func (s *Scheduler) Refresh(t *Timeout) *Timeout {
	if t == nil || !t.active() {
		return t
	}

	b := t.bucket
	b.remove(t)
	t.expiry = s.wake.Now() + t.delay
	b.push(t)

	if !s.draining() {
		s.rearm()
	}

	return t
}

// Ref 使任务维持宿主存活. 对非激活的任务无效果.
func (s *Scheduler) Ref(h Handle) Handle {
	if h == nil {
		return nil
	}
	if t := h.base(); t != nil && t.active() && !t.is(stateRefed) {
		t.state |= stateRefed
		s.acquire()
	}
	return h
}

// Unref 使任务不再维持宿主存活. 对非激活的任务无效果.
func (s *Scheduler) Unref(h Handle) Handle {
	if h == nil {
		return nil
	}
	if t := h.base(); t != nil && t.active() && t.is(stateRefed) {
		t.state &^= stateRefed
		s.release()
	}
	return h
}

// HasRef 任务是否维持宿主存活.
func (s *Scheduler) HasRef(h Handle) bool {
	if h == nil {
		return false
	}
	t := h.base()
	return t != nil && t.is(stateRefed)
}

// Active 任务是否仍待执行.
func (s *Scheduler) Active(h Handle) bool {
	if h == nil {
		return false
	}
	t := h.base()
	return t != nil && t.active()
}

// runTimeout 执行已从桶中取出的定时器. 先完成簿记再执行回调.
func (s *Scheduler) runTimeout(t *Timeout, now int64) error {
	if t.is(stateRepeat) {
		t.expiry = now + t.delay
		t.bucket.push(t)
	} else {
		t.bucket = nil
		s.finish(&t.task, false)
	}

	if err := t.invoke(); err != nil {
		return &CallbackError{Kind: KindTimeout, Delay: t.Delay(), Err: err}
	}

	return nil
}

// OnTimerFire 唤醒原语的定时器回调.
//
// 依次执行所有已到期的定时器, 返回下一次唤醒的延迟（wake.NoDelay 表示无需唤醒）.
// 回调失败时立即停止本轮, 剩余定时器保留到下一轮, 返回 0 延迟以及该错误.
func (s *Scheduler) OnTimerFire() (int64, error) {
	now := s.wake.Now()

	if now < s.nextExpiry {
		return s.nextExpiry - now, nil
	}

	var uncaught error

	s.triggered = s.tick()

	for uncaught == nil {
		b := s.queue.peek()
		if b == nil || b.expiry > now {
			break
		}

		for !b.empty() && b.head().expiry <= now {
			if err := s.runTimeout(b.shift(), now); err != nil {
				uncaught = err
				break
			}
		}

		if b.empty() {
			s.evict(b)
		} else if b.updateExpiry() {
			s.queue.update(b)
		}
	}

	s.tick()

	s.maybeCompact()
	s.settle()

	if uncaught != nil {
		s.logger.DebugFields("timer callback failed", lfdKind(KindTimeout), lfdError(uncaught))
	}

	next := s.queue.peek()
	switch {
	case s.closed:
		s.nextExpiry = 0
		return wake.NoDelay, uncaught
	case uncaught != nil:
		// 剩余的定时器在下一轮立即执行.
		s.nextExpiry = now
	case next == nil:
		s.nextExpiry = 0
		return wake.NoDelay, nil
	default:
		s.nextExpiry = next.expiry
	}

	if s.paused {
		return wake.NoDelay, uncaught
	}

	return max(s.nextExpiry-now, 0), uncaught
}

// OnImmediateFire 唤醒原语的立即回调.
//
// 依次执行本轮之前调度的立即任务; 本轮中新调度的立即任务留到下一轮.
// 回调失败时立即停止并返回该错误, 剩余任务保留到下一轮.
func (s *Scheduler) OnImmediateFire() error {
	var uncaught error

	s.triggered = s.tick()

	for uncaught == nil {
		im, ok := s.immediateArena.Front(&s.immediates)
		if !ok || im.tick == s.ticks {
			break
		}

		s.immediateArena.PopFront(&s.immediates)
		im.node = list.Nil
		s.finish(&im.task, false)

		if err := im.invoke(); err != nil {
			uncaught = &CallbackError{Kind: KindImmediate, Err: err}
		}
	}

	s.tick()

	if s.closed {
		return uncaught
	}

	if !s.immediates.Empty() {
		s.wake.Immediate()
	}

	s.rearm()

	if uncaught != nil {
		s.logger.DebugFields("immediate callback failed", lfdKind(KindImmediate), lfdError(uncaught))
	}

	return uncaught
}

// Pause 挂起: 取消唤醒原语的定时唤醒与存活维持, 保留所有任务.
func (s *Scheduler) Pause() {
	if s.paused || s.closed {
		return
	}
	s.wake.Pause()
	s.paused = true
	s.logger.DebugFields("paused", lfdRefs(s.refs), lfdNextExpiry(s.nextExpiry))
}

// Resume 恢复: 按剩余时间重新设置定时唤醒, 并交还引用计数.
func (s *Scheduler) Resume() {
	if !s.paused || s.closed {
		return
	}
	s.paused = false

	remaining := wake.NoDelay
	if s.nextExpiry != 0 {
		remaining = max(s.nextExpiry-s.wake.Now(), 0)
	}
	s.wake.Resume(remaining, s.refs)
	s.logger.DebugFields("resumed", lfdRefs(s.refs), lfdNextExpiry(s.nextExpiry))
}

// Close 关闭调度器. 所有待执行的任务被取消且不会执行, 唤醒原语被释放.
func (s *Scheduler) Close() {
	if s.closed {
		return
	}

	pending := s.timeouts.Len() + s.immediateArena.Len()

	for _, b := range s.buckets {
		for t := b.shift(); t != nil; t = b.shift() {
			t.bucket = nil
			s.finish(&t.task, true)
		}
		s.evict(b)
	}

	s.immediateArena.Each(&s.immediates, func(im *Immediate) bool {
		im.node = list.Nil
		s.finish(&im.task, true)
		return true
	})

	s.closed = true
	s.garbage = 0
	s.nextExpiry = 0
	s.timeouts.Reset()
	s.immediateArena.Reset()
	s.immediates.Reset()

	s.wake.Stop()
	s.wake.Close()

	s.logger.DebugFields("closed", lfdPending(pending))
}

// Stats 调度器状态快照.
type Stats struct {
	Refs       int   // 维持宿主存活的任务数.
	Timeouts   int   // 待执行的定时器数.
	Immediates int   // 待执行的立即任务数.
	Buckets    int   // 堆中的延迟桶数.
	Garbage    int   // 堆中的空桶数.
	NextExpiry int64 // 下一次唤醒时间, 0 表示未设置.
	Paused     bool  // 是否挂起.
	Closed     bool  // 是否已关闭.
}

// Stats 返回调度器状态快照.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Refs:       s.refs,
		Timeouts:   s.timeouts.Len(),
		Immediates: s.immediates.Len(),
		Buckets:    s.queue.len(),
		Garbage:    s.garbage,
		NextExpiry: s.nextExpiry,
		Paused:     s.paused,
		Closed:     s.closed,
	}
}
