package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Debug bool
}

// NewLogger builds a JSON production logger, switching to debug level when requested.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	mergedConfig := zap.NewProductionConfig()
	mergedConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Debug {
		mergedConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		mergedConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return mergedConfig.Build()
}
