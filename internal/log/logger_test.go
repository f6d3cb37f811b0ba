package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Format: FormatJSON, Component: component, Output: buf})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	return rec
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, ComponentBill)

	logger.Info("bill saved", FieldBillNumber, "INV-1")

	rec := decodeLine(t, &buf)
	assert.Equal(t, "bill saved", rec["msg"])
	assert.Equal(t, ComponentBill, rec[FieldComponent])
	assert.Equal(t, "INV-1", rec[FieldBillNumber])
}

func TestWithComponentSwapsName(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, ComponentApp).WithComponent(ComponentStorage)

	logger.Warn("slow query")

	rec := decodeLine(t, &buf)
	assert.Equal(t, ComponentStorage, rec[FieldComponent])
	assert.Equal(t, ComponentStorage, logger.Component())
}

func TestNewHandlerFormats(t *testing.T) {
	for _, format := range []string{FormatText, FormatJSON, FormatTint} {
		var buf bytes.Buffer
		New(Config{Level: slog.LevelInfo, Format: format, Component: ComponentApp, Output: &buf}).Info("hello")
		assert.Contains(t, buf.String(), "hello", format)
	}
}

func TestNewContextCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, ComponentHTTP).With(FieldRequestID, "req_abc")

	ctx := NewContext(context.Background(), logger)
	got := FromContext(ctx)
	got.InfoContext(ctx, "inside")

	require.Same(t, logger, got)
	rec := decodeLine(t, &buf)
	assert.Equal(t, "req_abc", rec[FieldRequestID])
	assert.Equal(t, ComponentHTTP, rec[FieldComponent])
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestStructuredLoggerHTTPEndLevel(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf, ComponentHTTP))
	r := httptest.NewRequest(http.MethodGet, "/api/bills", nil)

	sl.LogHTTPEnd(context.Background(), r, http.StatusInternalServerError, 12, "10.0.0.1")

	rec := decodeLine(t, &buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, float64(500), rec[FieldStatusCode])
	assert.Equal(t, false, rec[FieldSuccess])
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf, ComponentStorage))

	sl.LogError(context.Background(), "insert failed", errors.New("disk full"), OpCreate, NewFields().WithErrorType(ErrorTypeDatabase))

	rec := decodeLine(t, &buf)
	assert.Equal(t, "disk full", rec[FieldError])
	assert.Equal(t, OpCreate, rec[FieldOperation])
	assert.Equal(t, ErrorTypeDatabase, rec[FieldErrorType])
}

func TestStructuredLoggerLogBillSaved(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf, ComponentBill))

	sl.LogBillSaved(context.Background(), "u1", "b1", "INV-7", 2, 103.5, "₹")

	rec := decodeLine(t, &buf)
	assert.Equal(t, "Bill saved", rec["msg"])
	assert.Equal(t, "INV-7", rec[FieldBillNumber])
	assert.Equal(t, float64(2), rec[FieldItemCount])
	assert.Equal(t, 103.5, rec[FieldTotal])
	assert.Equal(t, OpCreate, rec[FieldOperation])
	assert.Equal(t, ComponentBill, rec[FieldComponent])
}
