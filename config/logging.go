package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// setLogger picks the zap logger for the running environment. Local runs get debug
// output, development gets the development preset and anything else is production.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	case "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		return cfg.Build()
	default:
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		return cfg.Build()
	}
}
