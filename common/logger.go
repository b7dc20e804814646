package common

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnv 日志级别环境变量，取值 debug/info/warn/error
const LogLevelEnv = "REACTOR_LOG_LEVEL"

var (
	loggerOnce sync.Once
	logger     *zap.SugaredLogger
)

// GetLogger 获取进程级日志对象
func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		logger = newLogger(os.Getenv(LogLevelEnv))
	})
	return logger
}

func newLogger(level string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}
