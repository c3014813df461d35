package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level   string
		want    level
		wantErr bool
	}{
		{"debug", levelDebug, false},
		{"", levelInfo, false},
		{"INFO", levelInfo, false},
		{"warning", levelWarn, false},
		{"error", levelError, false},
		{"invalid", levelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := parseLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSLog(t *testing.T) {
	t.Run("level filter", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := NewSLogWithWriter(&buf, &Options{Level: "warn"})
		require.NoError(t, err)

		l.Info("hidden")
		l.Warn("affected rows mismatch", "rows", 0)
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "rows=0")
	})

	t.Run("json with fields and group", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := NewSLogWithWriter(&buf, &Options{Format: "json", Fields: map[string]any{"service": "blog"}})
		require.NoError(t, err)

		l.WithGroup("rdb").With("table", "users").InfoContext(context.Background(), "query", "rows", 2)

		var m map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
		assert.Equal(t, "blog", m["service"])
		assert.Equal(t, "query", m["msg"])
		group := m["rdb"].(map[string]any)
		assert.Equal(t, "users", group["table"])
		assert.Equal(t, float64(2), group["rows"])
	})

	t.Run("custom time format", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := NewSLogWithWriter(&buf, &Options{TimeFormat: "2006-01-02"})
		require.NoError(t, err)
		l.Error("boom")
		assert.Regexp(t, `time=\d{4}-\d{2}-\d{2} `, buf.String())
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := NewSLogWithWriter(&bytes.Buffer{}, &Options{Format: "xml"})
		assert.Error(t, err)
	})
}

func TestZeroLog(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := NewZeroLogWithWriter(&buf, &Options{Level: "debug", Fields: map[string]any{"service": "blog"}})
		require.NoError(t, err)

		l.WithGroup("rdb").With("table", "users").Debug("query", "rows", 3)

		var m map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
		assert.Equal(t, "debug", m["level"])
		assert.Equal(t, "query", m["message"])
		assert.Equal(t, "blog", m["service"])
		assert.Equal(t, "users", m["rdb.table"])
		assert.Equal(t, float64(3), m["rdb.rows"])
	})

	t.Run("level filter", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := NewZeroLogWithWriter(&buf, &Options{Level: "error"})
		require.NoError(t, err)
		l.WarnContext(context.Background(), "hidden")
		l.ErrorContext(context.Background(), "shown", "err", "boom")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := NewZeroLogWithWriter(&buf, &Options{Format: "console"})
		require.NoError(t, err)
		l.Info("hello", "k", "v")
		assert.Contains(t, buf.String(), "hello")
		assert.Contains(t, buf.String(), "k=v")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := NewZeroLogWithWriter(&bytes.Buffer{}, &Options{Level: "trace"})
		assert.Error(t, err)
		_, err = NewZeroLogWithOptions(nil)
		assert.Error(t, err)
	})
}
