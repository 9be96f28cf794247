package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/config"
)

type stubHealthChecker struct{ err error }

func (s stubHealthChecker) Healthy(ctx context.Context) error { return s.err }

func newHealthMux() *http.ServeMux {
	return newHealthMuxWith(nil)
}

func newHealthMuxWith(db HealthChecker) *http.ServeMux {
	cfg := &config.Config{
		Version: "test-version",
		Env:     "test",
		Oracle:  config.OracleConfig{Provider: "anthropic"},
		Refresh: config.RefreshConfig{Enabled: true},
		Auth:    config.AuthConfig{PIN: "1234"},
	}
	mux := http.NewServeMux()
	NewHealthHandler(cfg, db, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestHealthHandler_Health(t *testing.T) {
	rec := serve(newHealthMux(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHealthHandler_HealthChecksDatabase(t *testing.T) {
	rec := serve(newHealthMuxWith(stubHealthChecker{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newHealthMuxWith(stubHealthChecker{err: errors.New("connection refused")}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database unavailable")
}

func TestHealthHandler_Ping(t *testing.T) {
	rec := serve(newHealthMux(), http.MethodGet, "/ping", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var response PingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "test-version", response.Version)
	assert.Equal(t, "ekaya-tracker", response.Service)
	assert.Equal(t, "anthropic", response.OracleProvider)
	assert.True(t, response.AIUpdateEnabled)
	assert.True(t, response.PINGatingEnabled)
	assert.NotEmpty(t, response.GoVersion)
}

func TestHealthHandler_Metrics(t *testing.T) {
	rec := serve(newHealthMux(), http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
