// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		level   string
		format  string
		enabled slog.Level
		hidden  slog.Level
	}{
		{"debug", "text", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", "json", slog.LevelInfo, slog.LevelDebug},
		{"warn", "text", slog.LevelWarn, slog.LevelInfo},
		{"error", "json", slog.LevelError, slog.LevelWarn},
		{"bogus", "text", slog.LevelInfo, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			setupLogger(&buf, tt.level, tt.format)

			handler := slog.Default().Handler()
			assert.True(t, handler.Enabled(context.Background(), tt.enabled))
			assert.False(t, handler.Enabled(context.Background(), tt.hidden))
		})
	}
}

func TestSetupLogger_JSONCarriesService(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf bytes.Buffer
	logger := setupLogger(&buf, "info", "json")
	logger.Info("user_registered", "user_id", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "accounts", record["service"])
	assert.Equal(t, "user_registered", record["msg"])
	assert.EqualValues(t, 7, record["user_id"])
}
