package gtimer

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

func lfdKind(kind TaskKind) zap.Field {
	return zap.Stringer("kind", kind)
}

func lfdGarbage(n int) zap.Field {
	return zap.Int("garbage", n)
}

func lfdHeapSize(n int) zap.Field {
	return zap.Int("heapSize", n)
}

func lfdRefs(refs int) zap.Field {
	return zap.Int("refs", refs)
}

func lfdNextExpiry(expiry int64) zap.Field {
	return zap.Int64("nextExpiry", expiry)
}

func lfdPending(n int) zap.Field {
	return zap.Int("pending", n)
}
