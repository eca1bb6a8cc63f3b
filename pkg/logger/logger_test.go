package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(Config{
		Level:   level,
		Format:  "json",
		Service: "test-service",
		Output:  buf,
	})
	return l, buf
}

func parseLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		logFn     func(l Logger)
		shouldLog bool
	}{
		{
			name:      "info logged at info level",
			level:     InfoLevel,
			logFn:     func(l Logger) { l.Info("hello") },
			shouldLog: true,
		},
		{
			name:      "debug suppressed at info level",
			level:     InfoLevel,
			logFn:     func(l Logger) { l.Debug("hello") },
			shouldLog: false,
		},
		{
			name:      "warn logged at warn level",
			level:     WarnLevel,
			logFn:     func(l Logger) { l.Warn("hello") },
			shouldLog: true,
		},
		{
			name:      "info suppressed at error level",
			level:     ErrorLevel,
			logFn:     func(l Logger) { l.Info("hello") },
			shouldLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newTestLogger(tt.level)
			tt.logFn(l)
			if tt.shouldLog {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLoggerFields(t *testing.T) {
	l, buf := newTestLogger(InfoLevel)

	l.Info("session cleared",
		ChatIDField(555),
		IntField("deleted", 3),
		BoolField("suppressed", true),
	)

	entry := parseLogLine(t, buf)
	assert.Equal(t, "session cleared", entry["msg"])
	assert.Equal(t, "test-service", entry["service"])
	assert.Equal(t, "555", entry["chat_id"])
	assert.Equal(t, "3", entry["deleted"])
	assert.Equal(t, "true", entry["suppressed"])
}

func TestWithFieldsImmutable(t *testing.T) {
	l, buf := newTestLogger(InfoLevel)

	derived := l.WithFields(StringField("component", "ledger"))
	l.Info("base message")

	entry := parseLogLine(t, buf)
	_, hasComponent := entry["component"]
	assert.False(t, hasComponent, "base logger should not carry derived fields")

	buf.Reset()
	derived.Info("derived message")
	entry = parseLogLine(t, buf)
	assert.Equal(t, "ledger", entry["component"])
}

func TestErrorField(t *testing.T) {
	assert.Equal(t, "<nil>", ErrorField(nil).Value)
	assert.Equal(t, "boom", ErrorField(errors.New("boom")).Value)
}

func TestFieldConversion(t *testing.T) {
	assert.Equal(t, "42", Field("k", 42).Value)
	assert.Equal(t, "42", Field("k", int64(42)).Value)
	assert.Equal(t, "true", Field("k", true).Value)
	assert.Equal(t, "1.5", Field("k", 1.5).Value)
	assert.Equal(t, "3m0s", Field("k", 3*time.Minute).Value)
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetCorrelationIDFromContext(ctx))

	ctx, id := EnsureCorrelationID(ctx)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetCorrelationIDFromContext(ctx))

	// Idempotent: a second call keeps the existing ID
	_, id2 := EnsureCorrelationID(ctx)
	assert.Equal(t, id, id2)
}

func TestHTTPMiddleware(t *testing.T) {
	l, buf := newTestLogger(InfoLevel)

	handler := l.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, GetCorrelationIDFromContext(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "HTTP request received")
	assert.Contains(t, buf.String(), "418")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, "error", ErrorLevel.String())
}
