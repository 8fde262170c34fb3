package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestLogger_EmitsStructuredFields(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	log.Info("extraction finished",
		String("document_id", "doc-1"),
		Int("lots", 2),
		Float64("confidence", 87.5),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "extraction finished", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "doc-1", ctx["document_id"])
	assert.Equal(t, int64(2), ctx["lots"])
	assert.Equal(t, 87.5, ctx["confidence"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, logs := newObserved(zapcore.WarnLevel)

	log.Debug("noise")
	log.Info("more noise")
	log.Warn("structural anomaly")

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "structural anomaly", logs.All()[0].Message)
}

func TestLogger_WithAddsPersistentFields(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel)

	child := log.With(String("component", "lotseg"))
	child.Info("lot accepted")

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "lotseg", logs.All()[0].ContextMap()["component"])
}

func TestErrField_NilSafe(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestParseLevel_UnknownDefaultsToInfo(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("ERROR"))
}

func TestNopLogger_DoesNotPanic(t *testing.T) {
	log := NewNopLogger()
	log.Debug("a")
	log.Info("b", String("k", "v"))
	log.Warn("c")
	log.Error("d", Err(nil))
	log.With(String("k", "v")).Named("x").Info("e")
}

func TestDefault_ReplaceAndRead(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log, _ := newObserved(zapcore.InfoLevel)
	SetDefault(log)
	assert.Equal(t, log, Default())

	// nil must be ignored
	SetDefault(nil)
	assert.Equal(t, log, Default())
}

//Personal.AI order the ending
