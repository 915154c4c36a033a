package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var InfoLogger, FatalLogger *zap.Logger

var (
	serviceName = "default"
)

type Config struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Service     string `yaml:"service"`
}

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// New builds the process logger and installs it behind the printf helpers.
func New(cfg Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, fmt.Errorf("logger: level %q: %w", cfg.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	if cfg.Service != "" {
		SetServiceName(cfg.Service)
	}

	l, err := zcfg.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return nil, err
	}
	InfoLogger, FatalLogger = l, l
	zap.ReplaceGlobals(l)
	return l, nil
}

func get(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.L().With(zap.String("service", serviceName))
	}
	return l
}

func Info(format string, args ...interface{}) {
	get(InfoLogger).Info(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	get(InfoLogger).Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	get(FatalLogger).Fatal(fmt.Sprintf(format, args...))
}
