package log

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

type Fields = logrus.Fields

var globalLogger *logrus.Logger

func init() {
	globalLogger = logrus.New()
	globalLogger.SetOutput(os.Stdout)
	globalLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	globalLogger.SetLevel(logrus.InfoLevel)
}

// GlobalLogger returns the process-wide logger instance
func GlobalLogger() *logrus.Logger {
	return globalLogger
}

// SetGlobalLogger replaces the process-wide logger, mainly for tests
func SetGlobalLogger(logger *logrus.Logger) {
	globalLogger = logger
}

// SetLevel adjusts the global log level by name; unknown names keep info
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	globalLogger.SetLevel(parsed)
}

// WithContext returns an entry bound to the request context
func WithContext(ctx context.Context) *logrus.Entry {
	return globalLogger.WithContext(ctx)
}

func Info(args ...interface{}) {
	globalLogger.Info(args...)
}

func Infof(template string, args ...interface{}) {
	globalLogger.Infof(template, args...)
}

func Debug(args ...interface{}) {
	globalLogger.Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	globalLogger.Debugf(template, args...)
}

func Warn(args ...interface{}) {
	globalLogger.Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	globalLogger.Warnf(template, args...)
}

func Error(args ...interface{}) {
	globalLogger.Error(args...)
}

func Errorf(template string, args ...interface{}) {
	globalLogger.Errorf(template, args...)
}

func Fatalf(template string, args ...interface{}) {
	globalLogger.Fatalf(template, args...)
}
