package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readinessBody struct {
	Status string                    `json:"status"`
	Checks map[string]readinessCheck `json:"checks"`
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	h := NewHealthHandlers(WithHealthVersion("1.2.0"), WithHealthClock(func() time.Time { return now }))
	now = start.Add(30 * time.Second)

	r := chi.NewRouter()
	h.Routes(r)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.0", body["version"])
	assert.Equal(t, "30s", body["uptime"])
}

func TestReadyz(t *testing.T) {
	s := newTestStack(t)

	ok := NewHealthHandlers(WithHealthCheck("sqlite", s.store))
	rec := serve(http.HandlerFunc(ok.Readyz), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	degraded := NewHealthHandlers(
		WithHealthCheck("sqlite", s.store),
		WithHealthCheck("firestore", pingFunc(func(context.Context) error { return errors.New("deadline exceeded") })),
	)
	rec = serve(http.HandlerFunc(degraded.Readyz), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode[readinessBody](t, rec)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["sqlite"].Status)
	assert.Equal(t, "deadline exceeded", body.Checks["firestore"].Error)
}
