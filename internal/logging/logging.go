// Package logging builds the zap logger shared by the formflow binaries.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Modes accepted by New.
const (
	ModeDevelopment = "dev"
	ModeProduction  = "prod"
	ModeSilent      = "silent"
)

// New returns a production (JSON) or development (console) logger at debug
// level. The silent mode returns a no-op logger.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeSilent, "off", "none":
		return zap.NewNop(), nil
	case ModeProduction, "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return cfg.Build()
}

// Must is New for main packages.
func Must(mode string) *zap.Logger {
	logger, err := New(mode)
	if err != nil {
		panic(err)
	}
	return logger
}
