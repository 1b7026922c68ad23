package wake

import (
	"context"
	"sync"
	"time"

	"github.com/aristanetworks/goarista/monotime"
	"github.com/godyy/glog"
)

// Loop 基于系统定时器的宿主循环, 同时实现 Primitive.
// 唤醒回调以及投递的函数都在调用 Run 的 goroutine 中串行执行.
type Loop struct {
	logger      glog.Logger   // 日志工具.
	onError     func(error)   // 未捕获错误处理函数.
	onTimer     TimerFunc     // 定时器唤醒回调.
	onImmediate ImmediateFunc // 立即唤醒回调.

	sysTimer   *time.Timer // 系统定时器.
	armed      bool        // 系统定时器是否已设置.
	referenced bool        // 是否维持循环存活.
	immediate  bool        // 是否请求了立即唤醒.
	running    bool        // 是否正在运行.

	mtx      sync.Mutex    // Mutex for following.
	posted   []func()      // 投递的函数.
	closed   bool          // 是否已关闭.
	cPosted  chan struct{} // 投递信号.
	cClosed  chan struct{} // 已关闭信号.
	stopOnce sync.Once
}

// NewLoop 构造 Loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		sysTimer: time.NewTimer(time.Hour),
		cPosted:  make(chan struct{}, 1),
		cClosed:  make(chan struct{}),
	}
	l.stopSysTimer()

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = createStdLogger().Named("wake")
	}

	return l
}

// Bind 绑定唤醒回调, 满足 Binder.
func (l *Loop) Bind(onTimer TimerFunc, onImmediate ImmediateFunc) (Primitive, error) {
	if onTimer == nil || onImmediate == nil {
		return nil, ErrNotBound
	}
	if l.onTimer != nil {
		return nil, ErrAlreadyBound
	}
	l.onTimer = onTimer
	l.onImmediate = onImmediate
	return l, nil
}

// Now 单调时钟毫秒数.
func (l *Loop) Now() int64 {
	return int64(monotime.Now() / uint64(time.Millisecond))
}

// stopSysTimer 停止系统定时器.
func (l *Loop) stopSysTimer() {
	if !l.sysTimer.Stop() {
		select {
		case <-l.sysTimer.C:
		default:
		}
	}
}

// Start 在 delay 毫秒后唤醒.
func (l *Loop) Start(delay int64) {
	if delay < 0 {
		delay = 0
	}
	l.stopSysTimer()
	l.sysTimer.Reset(time.Duration(delay) * time.Millisecond)
	l.armed = true
}

// Stop 取消定时唤醒.
func (l *Loop) Stop() {
	l.stopSysTimer()
	l.armed = false
}

// Immediate 请求立即唤醒.
func (l *Loop) Immediate() {
	l.immediate = true
}

// Ref 维持循环存活.
func (l *Loop) Ref() {
	l.referenced = true
}

// Unref 不再维持循环存活.
func (l *Loop) Unref() {
	l.referenced = false
}

// Pause 挂起.
func (l *Loop) Pause() {
	l.referenced = false
	l.Stop()
	l.logger.Debug("paused")
}

// Resume 恢复.
func (l *Loop) Resume(remaining int64, refs int) {
	if refs > 0 {
		l.referenced = true
	}
	if remaining >= 0 {
		l.Start(remaining)
	}
	l.logger.DebugFields("resumed", lfdDelay(remaining), lfdRefs(refs))
}

// Close 关闭循环. 可在任意 goroutine 中调用.
func (l *Loop) Close() {
	l.mtx.Lock()
	if l.closed {
		l.mtx.Unlock()
		return
	}
	l.closed = true
	l.posted = nil
	l.mtx.Unlock()

	l.stopOnce.Do(func() { close(l.cClosed) })
}

// isClosed 是否已关闭.
func (l *Loop) isClosed() bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.closed
}

// Post 投递 f 到循环 goroutine 中执行. 可在任意 goroutine 中调用.
// 投递的函数不维持循环存活.
func (l *Loop) Post(f func()) error {
	l.mtx.Lock()
	if l.closed {
		l.mtx.Unlock()
		return ErrLoopClosed
	}
	l.posted = append(l.posted, f)
	l.mtx.Unlock()

	select {
	case l.cPosted <- struct{}{}:
	default:
	}

	return nil
}

// runPosted 执行已投递的函数.
func (l *Loop) runPosted() {
	l.mtx.Lock()
	posted := l.posted
	l.posted = nil
	l.mtx.Unlock()

	if len(posted) > 1 {
		l.logger.DebugFields("run posted", lfdPosted(len(posted)))
	}

	for _, f := range posted {
		f()
	}
}

// report 处理未捕获错误.
func (l *Loop) report(err error) {
	if err == nil {
		return
	}
	if l.onError != nil {
		l.onError(err)
		return
	}
	l.logger.ErrorFields("uncaught callback error", lfdError(err))
}

// fire 定时器到期.
func (l *Loop) fire() {
	l.armed = false
	next, err := l.onTimer()
	l.report(err)
	if next >= 0 && !l.isClosed() {
		l.Start(next)
	}
}

// Run 在当前 goroutine 中运行循环.
// 直到 ctx 结束、循环被关闭, 或者没有任何维持存活的任务时返回.
func (l *Loop) Run(ctx context.Context) error {
	if l.onTimer == nil {
		return ErrNotBound
	}
	if l.running {
		return ErrLoopRunning
	}
	l.running = true
	defer func() { l.running = false }()

	for {
		if l.isClosed() {
			l.Stop()
			return nil
		}

		l.runPosted()

		if l.immediate {
			l.immediate = false
			l.report(l.onImmediate())
			continue
		}

		if !l.referenced {
			return nil
		}

		var timerC <-chan time.Time
		if l.armed {
			timerC = l.sysTimer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timerC:
			l.fire()
		case <-l.cPosted:
		case <-l.cClosed:
		}
	}
}
