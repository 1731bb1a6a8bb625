package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New builds the process logger. Production output is JSON, everything else
// is human readable text on stderr so that stdout stays free for command output.
func New(level, env string) Logger {
	return build(level, env == "production", os.Stderr)
}

// NewWithWriter always emits JSON, which keeps assertions in tests simple.
func NewWithWriter(level string, writer io.Writer) Logger {
	return build(level, true, writer)
}

// Nop discards everything.
func Nop() Logger {
	return build("panic", true, io.Discard)
}

func build(level string, asJSON bool, out io.Writer) Logger {
	logger := logrus.New()

	if asJSON {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	logger.SetOutput(out)

	return &logrusLogger{
		entry: logrus.NewEntry(logger),
	}
}

func (l *logrusLogger) Debug(args ...interface{}) {
	l.entry.Debug(args...)
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warn(args ...interface{}) {
	l.entry.Warn(args...)
}

func (l *logrusLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Error(args ...interface{}) {
	l.entry.Error(args...)
}

func (l *logrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{
		entry: l.entry.WithField(key, value),
	}
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &logrusLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}

// SetLevel changes the level of a logger created by this package at runtime.
func SetLevel(logger Logger, level string) error {
	if l, ok := logger.(*logrusLogger); ok {
		logrusLevel, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		l.entry.Logger.SetLevel(logrusLevel)
	}
	return nil
}

func IsDebugEnabled(logger Logger) bool {
	if l, ok := logger.(*logrusLogger); ok {
		return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return false
}
