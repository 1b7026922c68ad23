package wake

import "github.com/pkg/errors"

// ErrAlreadyBound 已绑定回调.
var ErrAlreadyBound = errors.New("wake primitive already bound")

// ErrNotBound 未绑定回调.
var ErrNotBound = errors.New("wake primitive not bound")

// ErrLoopClosed 循环已关闭.
var ErrLoopClosed = errors.New("loop closed")

// ErrLoopRunning 循环已在运行.
var ErrLoopRunning = errors.New("loop running")
