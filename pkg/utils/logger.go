package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger создаёт структурированный zap logger для всего приложения.
//
// Параметры:
//   - level: debug, info, warn, error (LOG_LEVEL)
//   - format: json для production, console для разработки (LOG_FORMAT)
//
// Возвращает SugaredLogger и sync-функцию для вызова при shutdown.
func InitLogger(level, format string) (*zap.SugaredLogger, func(), error) {
	var cfg zap.Config
	if strings.ToLower(format) == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}

	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn", "warning":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, nil, fmt.Errorf("unknown log level: %s", level)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	sugared := logger.Sugar()

	// Sync на stdout может вернуть EBADF/ENOTTY, это не ошибка приложения
	syncFunc := func() {
		_ = sugared.Sync()
	}

	return sugared, syncFunc, nil
}

// NopLogger возвращает logger, отбрасывающий весь вывод. Для тестов.
func NopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
