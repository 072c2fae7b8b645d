// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/research-intel/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestObservedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core).Named("gaps").With(String("paper_id", "W1"))

	log.Warn("query failed",
		Int("attempt", 2),
		Float64("confidence", 0.5),
		Bool("fallback", true),
		Duration("elapsed", time.Second),
		Strings("queries", []string{"a", "b"}),
		Err(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "query failed", entry.Message)
	assert.Equal(t, "gaps", entry.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.Equal(t, "W1", ctx["paper_id"])
	assert.Equal(t, int64(2), ctx["attempt"])
	assert.Equal(t, true, ctx["fallback"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New(types.LogConfig{Level: "debug", Format: format})
		require.NoError(t, err)
		l.Debug("hello")
	}
}

func TestNop(t *testing.T) {
	l := OrNop(nil)
	l.Info("discarded")
	assert.NoError(t, l.With(String("k", "v")).Named("x").Sync())
	assert.Equal(t, NewNop(), OrNop(nil))
}
