package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentIncome)

	logger.InfoContext(context.Background(), "saved", FieldIncomeID, 7)
	out := buf.String()
	assert.Contains(t, out, "component=income")
	assert.Contains(t, out, "income_id=7")

	buf.Reset()
	logger.WithComponent(ComponentReport).Warn("unknown currency")
	assert.Contains(t, buf.String(), "component=report")
	assert.Equal(t, 1, strings.Count(buf.String(), "component="))
}

func TestFromContextFallsBack(t *testing.T) {
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())

	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)
	ctx := context.WithValue(context.Background(), LoggerContextKey, logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentHTTP))
	req := httptest.NewRequest("GET", "/api/incomes?is_template=true", nil)

	sl.LogHTTPEnd(context.Background(), req, 404, 3, "127.0.0.1")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "status_code=404")

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpCreate, nil)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `error="disk full"`)
}
