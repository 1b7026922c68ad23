package wake

import "go.uber.org/multierr"

// Manual 手动驱动的唤醒原语, 时间由调用方推进.
// 用于确定性的宿主（测试、模拟）.
type Manual struct {
	now         int64         // 当前时间.
	onTimer     TimerFunc     // 定时器唤醒回调.
	onImmediate ImmediateFunc // 立即唤醒回调.

	armed      bool  // 是否设置了定时唤醒.
	at         int64 // 定时唤醒时间.
	immediate  bool  // 是否请求了立即唤醒.
	referenced bool  // 是否维持存活.
	paused     bool  // 是否挂起.
	closed     bool  // 是否已关闭.
	starts     int   // Start 调用次数.
}

// NewManual 构造 Manual, 时钟从 start 开始.
func NewManual(start int64) *Manual {
	return &Manual{now: start}
}

// Bind 绑定唤醒回调, 满足 Binder.
func (m *Manual) Bind(onTimer TimerFunc, onImmediate ImmediateFunc) (Primitive, error) {
	if onTimer == nil || onImmediate == nil {
		return nil, ErrNotBound
	}
	if m.onTimer != nil {
		return nil, ErrAlreadyBound
	}
	m.onTimer = onTimer
	m.onImmediate = onImmediate
	return m, nil
}

func (m *Manual) Now() int64 { return m.now }

func (m *Manual) Start(delay int64) {
	if delay < 0 {
		delay = 0
	}
	m.armed = true
	m.at = m.now + delay
	m.starts++
}

func (m *Manual) Stop() { m.armed = false }

func (m *Manual) Immediate() { m.immediate = true }

func (m *Manual) Ref() { m.referenced = true }

func (m *Manual) Unref() { m.referenced = false }

func (m *Manual) Pause() {
	m.referenced = false
	m.armed = false
	m.paused = true
}

func (m *Manual) Resume(remaining int64, refs int) {
	m.paused = false
	if refs > 0 {
		m.referenced = true
	}
	if remaining >= 0 {
		m.Start(remaining)
	}
}

func (m *Manual) Close() {
	m.closed = true
	m.armed = false
	m.immediate = false
}

// Armed 返回是否设置了定时唤醒, 以及唤醒时间.
func (m *Manual) Armed() (bool, int64) { return m.armed, m.at }

// Starts Start 调用次数.
func (m *Manual) Starts() int { return m.starts }

// Referenced 是否维持存活.
func (m *Manual) Referenced() bool { return m.referenced }

// Paused 是否挂起.
func (m *Manual) Paused() bool { return m.paused }

// Closed 是否已关闭.
func (m *Manual) Closed() bool { return m.closed }

// ImmediatePending 是否有待处理的立即唤醒.
func (m *Manual) ImmediatePending() bool { return m.immediate }

// fire 触发定时唤醒.
func (m *Manual) fire() error {
	m.armed = false
	next, err := m.onTimer()
	if next >= 0 && !m.closed {
		m.Start(next)
	}
	return err
}

// Tick 在当前时间执行一轮循环: 先处理立即唤醒, 再处理已到期的定时唤醒.
func (m *Manual) Tick() error {
	var err error
	if m.immediate && !m.closed {
		m.immediate = false
		err = multierr.Append(err, m.onImmediate())
	}
	if m.armed && m.at <= m.now && !m.closed {
		err = multierr.Append(err, m.fire())
	}
	return err
}

// Advance 将时钟推进 d 毫秒.
// 途经的每次唤醒都在其设定的时间点执行, 立即唤醒优先. 返回期间所有未捕获错误.
// 每轮都重新调度自身的立即任务会导致 Advance 无法返回.
func (m *Manual) Advance(d int64) error {
	target := m.now + d
	var err error
	for !m.closed {
		if m.immediate {
			m.immediate = false
			err = multierr.Append(err, m.onImmediate())
			continue
		}
		if m.armed && m.at <= target {
			if m.at > m.now {
				m.now = m.at
			}
			err = multierr.Append(err, m.fire())
			continue
		}
		break
	}
	m.now = target
	return err
}
