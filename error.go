package gtimer

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidCallback 回调函数无效.
var ErrInvalidCallback = errors.New("callback must be a function")

// ErrInvalidDelay 延迟超出范围.
var ErrInvalidDelay = errors.New("delay out of range")

// ErrSchedulerClosed 调度器已关闭.
var ErrSchedulerClosed = errors.New("scheduler closed")

// CallbackError 回调函数执行失败.
// 回调返回的错误以及回调中的 panic 都会被包装为 CallbackError.
type CallbackError struct {
	Kind  TaskKind      // 任务类型.
	Delay time.Duration // 定时器延迟, Immediate 为 0.
	Err   error         // 原始错误.
}

func (e *CallbackError) Error() string {
	if e.Kind == KindTimeout {
		return fmt.Sprintf("%s(%v) callback: %v", e.Kind, e.Delay, e.Err)
	}
	return fmt.Sprintf("%s callback: %v", e.Kind, e.Err)
}

// Unwrap 返回原始错误.
func (e *CallbackError) Unwrap() error { return e.Err }

// Cause 返回原始错误.
func (e *CallbackError) Cause() error { return e.Err }
