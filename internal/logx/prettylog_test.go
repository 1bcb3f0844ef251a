package logx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPrettyHandler(t *testing.T) {
	t.Run("creates a non-nil handler with default options", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{}})
		assert.NotNil(t, handler)
		assert.NotNil(t, handler.Handler)
	})

	t.Run("creates a handler with a custom level", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
		})
		assert.NotNil(t, handler)
	})
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	levelCases := []struct {
		level slog.Level
		label string
	}{
		{slog.LevelDebug, "DEBUG:"},
		{slog.LevelInfo, "INFO:"},
		{slog.LevelWarn, "WARN:"},
		{slog.LevelError, "ERROR:"},
	}

	for _, lc := range levelCases {
		t.Run(lc.label, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
				SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
			})

			record := slog.NewRecord(time.Now(), lc.level, "test message", 0)
			record.AddAttrs(slog.String("key", "value"))

			err := handler.Handle(ctx, record)
			assert.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, lc.label)
			assert.Contains(t, output, "test message")
			assert.Contains(t, output, "key")
			assert.Contains(t, output, "value")
		})
	}

	t.Run("formats the timestamp as [HH:MM:SS.mmm]", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{}})

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "time test", 0)
		err := handler.Handle(ctx, record)
		assert.NoError(t, err)

		output := buf.String()
		assert.True(t, strings.Contains(output, "[") && strings.Contains(output, "]"))
		assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, output)
	})

	t.Run("renders an empty attribute object when no attrs are set", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{}})

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "simple message", 0)
		err := handler.Handle(ctx, record)
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "{}")
	})

	t.Run("WithAttrs carries attributes into later records", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{}})
		handler := base.WithAttrs([]slog.Attr{slog.String("service", "kddindex")})

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "scoped message", 0)
		err := handler.Handle(ctx, record)
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "service")
		assert.Contains(t, buf.String(), "kddindex")
	})
}
