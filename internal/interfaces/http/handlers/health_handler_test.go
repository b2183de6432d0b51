package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okCheck(context.Context) error { return nil }

func TestLiveness(t *testing.T) {
	h := NewHealthHandler("v1.2.3", Checker("postgres", func(context.Context) error { return stderrors.New("down") }))
	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
}

func TestReadiness_NoCheckers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("dev").Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHealthHandler("dev", Checker("postgres", okCheck), Checker("redis", okCheck))
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Len(t, resp.Components, 2)
	assert.Equal(t, "healthy", resp.Components["redis"].Status)
}

func TestReadiness_OneUnhealthy(t *testing.T) {
	h := NewHealthHandler("dev",
		Checker("postgres", okCheck),
		Checker("minio", func(context.Context) error { return stderrors.New("bucket missing") }),
	)
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["minio"].Status)
	assert.Equal(t, "bucket missing", resp.Components["minio"].Error)
	assert.Equal(t, "healthy", resp.Components["postgres"].Status)
}

func TestDetailed(t *testing.T) {
	h := NewHealthHandler("dev", Checker("kafka", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		if !ok {
			return stderrors.New("no deadline")
		}
		return nil
	}))
	rec := httptest.NewRecorder()
	h.Detailed(rec, httptest.NewRequest(http.MethodGet, "/healthz/detail", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DetailedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "dev", resp.Version)
	assert.Equal(t, "healthy", resp.Components["kafka"].Status)

	h = NewHealthHandler("dev", Checker("kafka", func(context.Context) error { return stderrors.New("no brokers") }))
	rec = httptest.NewRecorder()
	h.Detailed(rec, httptest.NewRequest(http.MethodGet, "/healthz/detail", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

//Personal.AI order the ending
