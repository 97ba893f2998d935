package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process logger. It is usable before Init, at info level.
var Log = newLogger(os.Stderr, "info")

// Init configures Log. level falls back to TALENTPIPE_LOG_LEVEL, then info.
func Init(level string) {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("TALENTPIPE_LOG_LEVEL")
	}
	Log = newLogger(os.Stderr, level)
}

// New returns a logger writing to w, for tests and tools.
func New(w io.Writer, level string) *logrus.Logger {
	return newLogger(w, level)
}

func newLogger(w io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

func WithField(key string, value any) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

// Component tags entries with the subsystem that wrote them.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
