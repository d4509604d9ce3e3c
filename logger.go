package silo

import "go.uber.org/zap"

// Logger is the narrow collaborator interface the engine logs through
// (spec §6.1): side-effecting, structured, and required to tolerate a
// no-op implementation with zero overhead.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// zapLogger adapts a *zap.SugaredLogger to Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps an existing sugared zap logger.
func NewZapLogger(sugar *zap.SugaredLogger) Logger {
	return zapLogger{sugar: sugar}
}

func (l zapLogger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, kv...) }
func (l zapLogger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, kv...) }
func (l zapLogger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, kv...) }
func (l zapLogger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, kv...) }

// NewNopLogger returns the zero-overhead default the engine must run
// with when the host configures nothing (spec §6: "must run with a
// no-op logger").
func NewNopLogger() Logger {
	return NewZapLogger(zap.NewNop().Sugar())
}
