package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-converter/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OCR_ENABLED", "false")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.LoggingConfig
		want   string
		hidden bool
	}{
		{"json", config.LoggingConfig{Level: "info", Format: "json"}, `"msg":"hello"`, false},
		{"text", config.LoggingConfig{Level: "info", Format: "text"}, "msg=hello", false},
		{"level filters", config.LoggingConfig{Level: "error", Format: "json"}, "hello", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newLogger(tt.cfg, &buf).Info("hello")
			if tt.hidden {
				assert.NotContains(t, buf.String(), tt.want)
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestInitDependencies(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Dir = t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, err := InitDependencies(t.Context(), cfg, logger)
	require.NoError(t, err)
	defer deps.Cleanup()

	assert.NotNil(t, deps.Service)
	assert.NotNil(t, deps.Store)
	assert.NotNil(t, deps.Scheduler)

	srv := newAPIServer(deps)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodOptions, "/api/convert", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsServer(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, err := InitDependencies(t.Context(), cfg, logger)
	require.NoError(t, err)
	defer deps.Cleanup()
	assert.Nil(t, deps.Store)

	rec := httptest.NewRecorder()
	newMetricsServer(deps).Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "statement_converter_")
}
