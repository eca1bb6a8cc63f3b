package health

import (
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

func TestNoChecksIsHealthy(t *testing.T) {
	h := New()

	status, err := h.CheckReadiness(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Checks)
}

func TestFailingCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck(NewCheckFunc("backend", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))
	h.AddReadinessCheck(NewCheckFunc("storage", func(ctx context.Context) error {
		return nil
	}))

	status, err := h.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
	assert.Len(t, status.Checks, 2)
}

func TestCheckTimeout(t *testing.T) {
	h := New(WithTimeout(20 * time.Millisecond))
	h.AddLivenessCheck(NewCheckFunc("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}))

	status, err := h.CheckLiveness(context.Background())
	assert.Error(t, err)
	assert.False(t, status.Healthy)
}

func TestHandlers(t *testing.T) {
	h := New()
	h.AddReadinessCheck(NewCheckFunc("always-down", func(ctx context.Context) error {
		return errors.New("down")
	}))

	t.Run("liveness healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Status)
	})

	t.Run("readiness unhealthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "error", resp.Checks["always-down"].Status)
	})
}
