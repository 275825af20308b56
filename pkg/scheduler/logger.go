package scheduler

import (
	"strings"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// asynqLogger routes asynq's internal logging through zap.
type asynqLogger struct {
	sugar *zap.SugaredLogger
}

func newAsynqLogger(logger *zap.Logger) asynq.Logger {
	return &asynqLogger{sugar: logger.Named("asynq").Sugar()}
}

var _ asynq.Logger = (*asynqLogger)(nil)

func (l *asynqLogger) Debug(args ...interface{}) { l.sugar.Debug(args...) }
func (l *asynqLogger) Info(args ...interface{})  { l.sugar.Info(args...) }
func (l *asynqLogger) Warn(args ...interface{})  { l.sugar.Warn(args...) }
func (l *asynqLogger) Error(args ...interface{}) { l.sugar.Error(args...) }

// Fatal exits the process, as asynq expects.
func (l *asynqLogger) Fatal(args ...interface{}) { l.sugar.Fatal(args...) }

// asynqLogLevel maps the configured log level; asynq is chatty at debug so it
// only goes down to info unless debug is asked for explicitly.
func asynqLogLevel(level string) asynq.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return asynq.DebugLevel
	case "warn", "warning":
		return asynq.WarnLevel
	case "error":
		return asynq.ErrorLevel
	default:
		return asynq.InfoLevel
	}
}
