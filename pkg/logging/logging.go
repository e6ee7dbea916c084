// Package logging constructs the structured logger threaded through every
// component of the engine. The record store and index provider accept a
// *zap.SugaredLogger via their Config struct, the search coordinator and
// integrity watcher as a constructor argument; the encryption provider and
// atomic file writer do not log. No component logs plaintext or key
// material.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a SugaredLogger for the named component. Development builds get
// human-readable console output at debug level; production builds get JSON
// output at info level. Callers that already have a *zap.Logger of their own
// should use Wrap instead of constructing a second one.
func New(component string, development bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar().Named(component), nil
}

// Wrap adapts a caller-supplied *zap.Logger to the component-scoped
// SugaredLogger shape used throughout this module.
func Wrap(component string, base *zap.Logger) *zap.SugaredLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.Sugar().Named(component)
}

// Noop returns a logger that discards everything, used as a safe default
// when the caller does not supply one.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
