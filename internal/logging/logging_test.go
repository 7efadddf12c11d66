package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
	return m
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Defaults", Config{}, false},
		{"JSON", Config{Level: "debug", Format: "json"}, false},
		{"Console", Config{Level: "warn", Format: "console"}, false},
		{"BadLevel", Config{Level: "loud"}, true},
		{"BadFormat", Config{Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Output = &bytes.Buffer{}
			_, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Str("k", "v").Msg("shown")
	m := decode(t, &buf)
	assert.Equal(t, "shown", m["message"])
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "v", m["k"])
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, l)

	l, err = ParseLevel("off")
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, l)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.DebugLevel)
	logger := NewSlogLogger(zl).With("component", "ranker").WithGroup("batch")

	logger.Info("scored",
		"rows", 64,
		"ratio", 0.5,
		"ok", true,
		"took", 2*time.Millisecond,
		"err", errors.New("boom"),
		slog.Group("mem", "bytes", uint64(1024)),
	)

	m := decode(t, &buf)
	assert.Equal(t, "scored", m["message"])
	assert.Equal(t, "info", m["level"])
	assert.Equal(t, "ranker", m["component"])
	assert.Equal(t, 64.0, m["batch.rows"])
	assert.Equal(t, 0.5, m["batch.ratio"])
	assert.Equal(t, true, m["batch.ok"])
	assert.Equal(t, "boom", m["batch.err"])
	assert.Equal(t, 1024.0, m["batch.mem.bytes"])
	assert.Contains(t, m, "batch.took")
}

func TestSlogHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewSlogHandler(zerolog.New(&buf).Level(zerolog.WarnLevel))
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	slog.New(h).Info("dropped")
	assert.Zero(t, buf.Len())
}
