package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-buddy-core/server/internal/adapter/metrics"
)

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func TestHandleReadiness(t *testing.T) {
	srv := newTestServer(t, nil, nil, withHealthChecks(
		HealthCheck{Name: "redis", Check: healthOK},
		HealthCheck{Name: HealthCheckPostgres, Check: healthOK},
	))

	rec := do(t, srv, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHandleReadiness_RedisDown(t *testing.T) {
	srv := newTestServer(t, nil, nil, withHealthChecks(
		HealthCheck{Name: "redis", Check: healthErr("connection refused")},
		HealthCheck{Name: HealthCheckPostgres, Check: healthOK},
	))

	rec := do(t, srv, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"failed_check":"redis"`)
}

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"uptime"`)
}

func TestHandleAPIHealth(t *testing.T) {
	tests := []struct {
		name     string
		checks   []HealthCheck
		gemini   bool
		database bool
	}{
		{"no database configured", nil, true, false},
		{"database up", []HealthCheck{{Name: HealthCheckPostgres, Check: healthOK}}, true, true},
		{"database down", []HealthCheck{{Name: HealthCheckPostgres, Check: healthErr("down")}}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil, nil,
				withHealthChecks(tt.checks...),
				withDeps(func(d *Deps) { d.GeminiConfigured = tt.gemini }),
			)
			rec := do(t, srv, http.MethodGet, "/api/health", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode[apiHealthResponse](t, rec)
			assert.Equal(t, "ok", body.Status)
			assert.Equal(t, tt.gemini, body.Gemini)
			assert.Equal(t, tt.database, body.Database)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)
	srv := newTestServer(t, nil, nil, withDeps(func(d *Deps) {
		d.Metrics = metrics.Handler(reg)
		d.HTTPMetrics = httpMetrics
	}))

	rec := do(t, srv, http.MethodGet, "/api/personality-modes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `study_buddy_http_requests_total{method="GET",route="/api/personality-modes",status_code="200"} 1`)
}

func TestMetricsEndpoint_Absent(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
