package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides leveled, printf-style logging throughout the application.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a Logger writing to stdout. The level is read from
// LOG_LEVEL and defaults to info.
func NewLogger() *Logger {
	return newLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NewLoggerWithLevel creates a Logger at an explicit level.
func NewLoggerWithLevel(out io.Writer, level string) *Logger {
	return newLogger(out, level)
}

func newLogger(out io.Writer, level string) *Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
		if level != "" {
			base.Warnf("Invalid LOG_LEVEL %q, defaulting to info", level)
		}
	}
	base.SetLevel(lvl)

	return &Logger{entry: logrus.NewEntry(base)}
}

// With returns a child Logger that attaches key=value to every line.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Info(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

// Printf logs at info level. It lets the Logger stand in where a library
// expects a Printf-style sink, such as the cron scheduler.
func (l *Logger) Printf(format string, args ...any) {
	l.entry.Infof(format, args...)
}

// SetLevel changes the level of the underlying logger and every child
// created with With. Unknown levels are ignored.
func (l *Logger) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return
	}
	l.entry.Logger.SetLevel(lvl)
}
