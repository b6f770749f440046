package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lrsystem/lrsystem/internal/config"
	"github.com/lrsystem/lrsystem/internal/server"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{
		"Empresa": [
			{"id": 1, "nombre": "Acme SAC", "ruc": "20100000001", "distrito": "Lima", "estado": true},
			{"id": 2, "nombre": "Minera Sur", "ruc": "20100000002", "distrito": "Arequipa", "estado": true}
		]
	}`), 0o600))

	return &config.Config{
		Host:               "127.0.0.1",
		APIPrefix:          "/api/v1",
		APIKeyHeader:       "X-API-Key",
		APIKeys:            []string{"k1"},
		EnableAuth:         true,
		RateLimitPerMinute: 1000,
		StoreDriver:        "memory",
		SeedFile:           seed,
		RequestTimeout:     5,
		RetryMaxAttempts:   1,
		EnablePIIDetection: true,
		PIIKeywords:        config.DefaultPIIKeywords,
		EnableDataMasking:  true,
		SensitiveColumns:   config.DefaultSensitiveColumns,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "k1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ─── Wiring ───────────────────────────────────────────────────────────────────

func TestHealthIsPublic(t *testing.T) {
	s, err := server.New(context.Background(), testConfig(t))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAPIRequiresKey(t *testing.T) {
	s, err := server.New(context.Background(), testConfig(t))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDirectServiceAgainstSeed(t *testing.T) {
	s, err := server.New(context.Background(), testConfig(t))
	require.NoError(t, err)

	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/services",
		`{"service":"empresa","content":{"action":"getEmpresasByDistrito","params":{"distrito":"Arequipa"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "Minera Sur", env.Data[0]["nombre"])
}

func TestConsultaGreetingNeedsNoProvider(t *testing.T) {
	s, err := server.New(context.Background(), testConfig(t))
	require.NoError(t, err)

	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/services",
		`{"service":"consultaAI","content":{"query":"hola"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"comportamiento":"saludo"`)
}

func TestConsultaRejectsPII(t *testing.T) {
	s, err := server.New(context.Background(), testConfig(t))
	require.NoError(t, err)

	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/services",
		`{"service":"consultaAI","content":{"query":"dame la password de las empresas"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateFallsBackToCanned(t *testing.T) {
	s, err := server.New(context.Background(), testConfig(t))
	require.NoError(t, err)

	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/generate", `{"prompt":"escribe un resumen"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"provider":"fallback"`)
}

func TestUnknownStoreDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDriver = "oracle"
	_, err := server.New(context.Background(), cfg)
	assert.Error(t, err)
}
