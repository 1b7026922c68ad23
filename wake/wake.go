// Package wake 唤醒原语.
//
// 调度器通过唤醒原语获取当前时间, 并驱动唯一的底层定时器: 设置/取消下一次唤醒,
// 请求下一轮立即唤醒, 以及切换该定时器是否维持宿主循环存活.
// 时间单位均为毫秒.
package wake

// NoDelay 表示无需再次唤醒.
const NoDelay int64 = -1

// TimerFunc 定时器唤醒回调.
// 返回下一次唤醒的延迟, NoDelay 表示停止; 返回的错误交由宿主处理.
type TimerFunc func() (next int64, err error)

// ImmediateFunc 立即唤醒回调.
type ImmediateFunc func() error

// Binder 将两个唤醒回调绑定到唤醒原语上, 返回原语句柄.
type Binder func(onTimer TimerFunc, onImmediate ImmediateFunc) (Primitive, error)

// Primitive 唤醒原语.
// 所有方法都只能在宿主循环所在的 goroutine 中调用.
type Primitive interface {
	// Now 当前时间.
	Now() int64

	// Start 在 delay 毫秒后唤醒, 覆盖之前的设置.
	Start(delay int64)

	// Stop 取消定时唤醒.
	Stop()

	// Immediate 请求在下一轮循环中立即唤醒.
	Immediate()

	// Ref 维持宿主循环存活.
	Ref()

	// Unref 不再维持宿主循环存活.
	Unref()

	// Pause 挂起: 取消定时唤醒并取消存活维持.
	Pause()

	// Resume 恢复: refs > 0 时重新维持存活, remaining >= 0 时重新设置定时唤醒.
	Resume(remaining int64, refs int)

	// Close 释放原语.
	Close()
}
