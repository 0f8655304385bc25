package oaslog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewSlogAdapter(slog.New(handler))

	logger.With("step", "strip-path-segment").Info("renamed path", "from", "/{apiVersion}/a", "to", "/a")
	logger.Debug("debug message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.Contains(t, out, "step=strip-path-segment")
	assert.Contains(t, out, "from=/{apiVersion}/a")
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
}

func TestNewSlogAdapterNil(t *testing.T) {
	logger := NewSlogAdapter(nil)
	assert.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Debug("ok") })
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	assert.NotPanics(t, func() {
		l.Debug("a", "k", 1)
		l.Info("b")
		l.Warn("c")
		l.Error("d")
	})
	assert.Equal(t, NopLogger{}, l.With("k", "v"))
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, NopLogger{}, OrNop(nil))
	a := NewSlogAdapter(nil)
	assert.Same(t, a, OrNop(a))
}
