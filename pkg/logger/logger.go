package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создаёт структурированный zap-логгер для сервиса.
//
// Параметры:
//   - service: имя сервиса, добавляется полем ко всем записям
//   - level: debug | info | warn | error
//   - format: json (для продакшена) | console (для разработки)
func New(service, level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json or console)", format)
	}

	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return log.With(zap.String("service", service)), nil
}

// Must создаёт логгер и паникует при ошибке конфигурации.
// Используется в main, где без логгера продолжать бессмысленно.
func Must(service, level, format string) *zap.Logger {
	log, err := New(service, level, format)
	if err != nil {
		panic(err)
	}
	return log
}
