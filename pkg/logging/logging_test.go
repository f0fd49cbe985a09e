package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Stderr: &buf})
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck // nothing to close

	logger.Debug("hidden")
	logger.Info("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "source=")
}

func TestNewDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Stderr: &buf, Debug: true})
	require.NoError(t, err)

	logger.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestNewWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "iconprep.log")

	logger, closeFn, err := New(Options{Stderr: &buf, File: path})
	require.NoError(t, err)
	logger.Info("both places")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "both places")
	assert.Contains(t, buf.String(), "both places")
}

func TestNewWithBadFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Stderr: &buf, File: filepath.Join(blocker, "x.log")})
	assert.Error(t, err)
	require.NotNil(t, logger, "a console logger is still returned")
	assert.NoError(t, closeFn())

	logger.Info("still works")
	assert.Contains(t, buf.String(), "still works")
}

func TestMultiHandlerEnabled(t *testing.T) {
	tests := []struct {
		name     string
		handlers []slog.Handler
		want     bool
	}{
		{"none", nil, false},
		{
			"all above level",
			[]slog.Handler{
				slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
			},
			false,
		},
		{
			"one at level",
			[]slog.Handler{
				slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
				slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo}),
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMultiHandler(tt.handlers...)
			assert.Equal(t, tt.want, h.Enabled(context.Background(), slog.LevelInfo))
		})
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var info, errs bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	logger := slog.New(h).With("step", "icon").WithGroup("result")
	logger.Info("provisioned", "status", "created")

	assert.Contains(t, info.String(), "step=icon")
	assert.Contains(t, info.String(), "result.status=created")
	assert.Empty(t, errs.String())
}
