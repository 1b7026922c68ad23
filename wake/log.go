package wake

import (
	"github.com/godyy/glog"
	"go.uber.org/zap"
)

// createStdLogger 创建面向标准输出的 logger.
func createStdLogger() glog.Logger {
	return glog.NewLogger(&glog.Config{
		Level:        glog.WarnLevel,
		EnableCaller: true,
		CallerSkip:   0,
		Development:  false,
		Cores:        []glog.CoreConfig{glog.NewStdCoreConfig()},
	})
}

func lfdError(err error) zap.Field {
	return zap.NamedError("error", err)
}

func lfdDelay(delay int64) zap.Field {
	return zap.Int64("delay", delay)
}

func lfdRefs(refs int) zap.Field {
	return zap.Int("refs", refs)
}

func lfdPosted(n int) zap.Field {
	return zap.Int("posted", n)
}
