package gtimer

import (
	"github.com/godyy/gtimer/internal/list"
	"github.com/pkg/errors"
)

// Callback 回调函数.
// 返回的错误会中断本轮调度, 并交由宿主的未捕获错误通道处理.
type Callback func(args ...any) error

// TaskKind 任务类型.
type TaskKind int8

const (
	KindTimeout   TaskKind = 1 // 定时器.
	KindImmediate TaskKind = 2 // 立即任务.
)

func (k TaskKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// taskState 任务状态位.
type taskState uint8

const (
	stateActive  taskState = 1 << iota // 待执行.
	stateCleared                       // 已取消.
	stateRefed                         // 维持宿主存活.
	stateRepeat                        // 周期执行.
)

// Handle 任务句柄, 由 *Timeout 和 *Immediate 实现.
type Handle interface {
	// Active 任务是否仍待执行.
	Active() bool

	// HasRef 任务是否维持宿主存活.
	HasRef() bool

	base() *task
}

// task Timeout 与 Immediate 的公共部分.
type task struct {
	s     *Scheduler // 所属调度器.
	state taskState  // 状态.
	cb    Callback   // 回调函数.
	args  []any      // 回调参数.
	node  list.Ref   // 所在链表节点.
}

func newTask(s *Scheduler, cb Callback, args []any) task {
	return task{
		s:     s,
		state: stateActive | stateRefed,
		cb:    cb,
		args:  args,
		node:  list.Nil,
	}
}

func (t *task) is(f taskState) bool { return t.state&f != 0 }

func (t *task) active() bool { return t.is(stateActive) }

// invoke 执行回调, 将 panic 转换为错误.
func (t *task) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.WithMessage(e, "panic")
			} else {
				err = errors.Errorf("panic: %v", r)
			}
		}
	}()
	return t.cb(t.args...)
}
