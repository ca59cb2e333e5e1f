package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger interface for structured logging
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
	With(fields ...interface{}) Logger
}

// LogrusLogger implements Logger on top of logrus. Fields are passed as
// alternating key/value pairs.
type LogrusLogger struct {
	entry *logrus.Entry
}

// Options controls the logrus backend
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

// New creates a logger writing to opts.Output (stdout when nil)
func New(opts Options) Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	}

	if strings.EqualFold(opts.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// NewSimpleLogger creates an info-level text logger on stdout
func NewSimpleLogger() Logger {
	return New(Options{Level: "info"})
}

// Discard returns a logger that drops everything, for tests
func Discard() Logger {
	return New(Options{Level: "panic", Output: io.Discard})
}

// With returns a child logger carrying the given fields
func (l *LogrusLogger) With(fields ...interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(toFields(fields))}
}

// Info logs an info message
func (l *LogrusLogger) Info(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

// Error logs an error message
func (l *LogrusLogger) Error(msg string, err error, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).WithError(err).Error(msg)
}

// Warn logs a warning message
func (l *LogrusLogger) Warn(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

// Debug logs a debug message
func (l *LogrusLogger) Debug(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

// Fatal logs a fatal error and exits
func (l *LogrusLogger) Fatal(msg string, err error, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).WithError(err).Fatal(msg)
}

func toFields(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			fields["extra"] = kv[i]
			break
		}
		fields[key] = kv[i+1]
	}
	return fields
}
