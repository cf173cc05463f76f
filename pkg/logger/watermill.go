package logger

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// WatermillAdapter routes watermill's pub/sub logging into zap.
type WatermillAdapter struct {
	logger *zap.Logger
}

var _ watermill.LoggerAdapter = (*WatermillAdapter)(nil)

// Watermill returns an adapter for the event bus. Watermill is chatty, so its
// info entries are written at debug.
func (l *Logger) Watermill() *WatermillAdapter {
	return &WatermillAdapter{logger: l.Logger.Named("events").WithOptions(zap.AddCallerSkip(1))}
}

func (w *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (w *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, zapFields(fields)...)
}

func (w *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, zapFields(fields)...)
}

// Trace has no zap level of its own.
func (w *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, zapFields(fields)...)
}

func (w *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{logger: w.logger.With(zapFields(fields)...)}
}

func zapFields(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
