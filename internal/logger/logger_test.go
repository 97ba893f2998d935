package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	l.Info("hidden")
	l.WithField("component", "store").Warn("slow query")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `level=warning msg="slow query" component=store`)
}

func TestNewBadLevelFallsBack(t *testing.T) {
	l := New(&bytes.Buffer{}, "loud")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestInitReadsEnv(t *testing.T) {
	t.Setenv("TALENTPIPE_LOG_LEVEL", "debug")
	prev := Log
	t.Cleanup(func() { Log = prev })

	Init("")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Init("error")
	assert.Equal(t, logrus.ErrorLevel, Log.GetLevel())
}
