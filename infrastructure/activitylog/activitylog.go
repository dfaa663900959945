// Package activitylog appends audit records of data-changing operations to
// a rotated JSON file. Records are fire and forget; a broken log file never
// fails the operation that produced the record.
package activitylog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"taskboard/application/ports"
)

// Logger writes activity records as JSON lines with size-based rotation.
type Logger struct {
	log *zap.Logger
}

// New opens (or creates) the activity log at path.
func New(path string) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
		}),
		zapcore.InfoLevel,
	)
	return &Logger{log: zap.New(core)}
}

var _ ports.ActivityLog = (*Logger)(nil)

// Record appends one activity record. Nil-safe so callers can hold a nil
// *Logger when activity logging is disabled.
func (l *Logger) Record(event string, fields map[string]any) {
	if l == nil {
		return
	}
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	l.log.Info(event, zapFields...)
}

// Close flushes buffered records.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.log.Sync()
}
