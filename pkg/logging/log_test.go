package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, out string)
	}{
		{"json", "json", func(t *testing.T, out string) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &m))
			assert.Equal(t, "model loaded", m["msg"])
			assert.Equal(t, "v1", m["version"])
		}},
		{"text", "text", func(t *testing.T, out string) {
			assert.Contains(t, out, "msg=\"model loaded\"")
			assert.Contains(t, out, "version=v1")
		}},
		{"cli", "cli", func(t *testing.T, out string) {
			assert.Contains(t, out, "model loaded: version=v1")
			assert.Contains(t, out, colorGreen)
		}},
		{"unknown falls back to text", "xml", func(t *testing.T, out string) {
			assert.Contains(t, out, "level=INFO")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "info", tt.format)
			logger.Info("model loaded", "version", "v1")
			tt.check(t, buf.String())
		})
	}
}

func TestCLIHandler_ErrorMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.Error("prediction failed")

	output := buf.String()
	assert.Contains(t, output, "prediction failed")
	assert.Contains(t, output, colorRed)
	assert.Contains(t, output, colorReset)
}

func TestCLIHandler_WarnMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.Warn("uncalibrated confidence")
	assert.Contains(t, buf.String(), colorYellow)
}

func TestCLIHandler_LevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		handlerLevel slog.Level
		logFunc      func(*slog.Logger)
		shouldLog    bool
	}{
		{"info handler logs info", slog.LevelInfo, func(l *slog.Logger) { l.Info("test") }, true},
		{"info handler filters debug", slog.LevelInfo, func(l *slog.Logger) { l.Debug("test") }, false},
		{"debug handler logs debug", slog.LevelDebug, func(l *slog.Logger) { l.Debug("test") }, true},
		{"error handler filters info", slog.LevelError, func(l *slog.Logger) { l.Info("test") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(slog.New(NewCLIHandler(&buf, tt.handlerLevel)))
			assert.Equal(t, tt.shouldLog, buf.Len() > 0)
		})
	}
}

func TestCLIHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewCLIHandler(&buf, slog.LevelInfo)
	assert.Equal(t, handler, handler.WithAttrs(nil))

	logger := slog.New(handler).With("request_id", "abc")
	logger.Info("request", "status", 200)

	output := buf.String()
	assert.Contains(t, output, "request_id=abc")
	assert.Contains(t, output, "status=200")
}

func TestCLIHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo)).WithGroup("server")

	logger.Info("hello")

	output := buf.String()
	assert.Contains(t, output, "[server]")
	assert.Contains(t, output, "hello")
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	SetDefault("debug", "json")
	require.NotNil(t, slog.Default())
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"  debug  ", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatCLI, ParseFormat("cli"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}
