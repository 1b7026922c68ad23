package wake

import "github.com/godyy/glog"

// LoopOption Loop 选项.
type LoopOption func(*Loop)

// WithLoopLogger 日志工具选项.
func WithLoopLogger(logger glog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger.Named("wake")
	}
}

// WithErrorHandler 未捕获错误处理函数选项.
// 回调抛出的错误会交给 h 处理, 默认记录错误日志.
func WithErrorHandler(h func(error)) LoopOption {
	return func(l *Loop) {
		l.onError = h
	}
}
