package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init("loud", false)
	require.Error(t, err)
	assert.ErrorContains(t, err, "loud")
}

func TestRequestIDIsAttached(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	ctx := WithRequestID(context.Background(), "req-1")
	With(String("op", "test")).Warn(ctx, "stock short", Int("need", 3))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "test", fields["op"])
	assert.EqualValues(t, 3, fields["need"])
}

func TestRequestIDEmptyContext(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestCallerPointsAtCallSite(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	ctx := context.Background()
	Info(ctx, "package level")
	Error(ctx, "package level error")
	With(String("op", "test")).Warn(ctx, "method")
	L().Debug(ctx, "global method")

	entries := logs.All()
	require.Len(t, entries, 4)
	for _, e := range entries {
		require.True(t, e.Caller.Defined, e.Message)
		assert.Equal(t, "logger_test.go", filepath.Base(e.Caller.File), e.Message)
	}
}
