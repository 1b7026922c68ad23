package gtimer

import (
	"math"
	"time"

	"github.com/godyy/glog"
	"github.com/pkg/errors"
)

const (
	// MaxDelay 最大延迟. 唤醒原语以 int32 毫秒设置定时器.
	MaxDelay = time.Duration(math.MaxInt32) * time.Millisecond

	// defaultCompactThreshold 触发堆压缩的最小空桶数量.
	defaultCompactThreshold = 8
)

// options 调度器选项.
type options struct {
	logger           glog.Logger   // 日志工具.
	strictDelay      bool          // 延迟超出范围时是否返回错误.
	maxDelay         time.Duration // 最大延迟.
	compactThreshold int           // 触发堆压缩的最小空桶数量.
}

// Option 调度器选项.
type Option func(*options)

// WithLogger 日志工具选项.
func WithLogger(logger glog.Logger) Option {
	return func(o *options) {
		o.logger = logger.Named("gtimer")
	}
}

// WithStrictDelay 延迟超出 [1ms, maxDelay] 时返回 ErrInvalidDelay, 而不是按 1ms 处理.
func WithStrictDelay() Option {
	return func(o *options) {
		o.strictDelay = true
	}
}

// WithMaxDelay 最大延迟选项, 不能超过 MaxDelay.
func WithMaxDelay(d time.Duration) Option {
	return func(o *options) {
		o.maxDelay = d
	}
}

// WithCompactThreshold 堆压缩阈值选项.
// 空桶数量不少于 n 且不少于堆大小的一半时压缩.
func WithCompactThreshold(n int) Option {
	return func(o *options) {
		o.compactThreshold = n
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		maxDelay:         MaxDelay,
		compactThreshold: defaultCompactThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) init() error {
	if o.maxDelay < time.Millisecond || o.maxDelay > MaxDelay {
		return errors.Errorf("options.maxDelay must >= 1ms and <= %v", MaxDelay)
	}

	if o.compactThreshold <= 0 {
		return errors.New("options.compactThreshold must > 0")
	}

	if o.logger == nil {
		o.logger = createStdLogger().Named("gtimer")
	}

	return nil
}

// delayMillis 将 d 转换为毫秒并检查范围.
func (o *options) delayMillis(d time.Duration) (int64, error) {
	ms := d.Milliseconds()
	if ms < 1 || ms > o.maxDelay.Milliseconds() {
		if o.strictDelay {
			return 0, errors.WithMessagef(ErrInvalidDelay, "delay %v", d)
		}
		ms = 1
	}
	return ms, nil
}
