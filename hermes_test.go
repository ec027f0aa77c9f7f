package hermes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "Hermes", cfg.App.Title)
	assert.Equal(t, "hermes", cfg.DeepLink.Scheme)
	assert.Equal(t, "hermes-server", cfg.Sidecar.Name)
}

func TestFacadeDiagnostics(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Store.Path = ":memory:"

	a := New(cfg, NewHeadlessHost(nil))
	require.NoError(t, a.Initialize(context.Background()))
	t.Cleanup(func() { _ = a.Plugins().CloseAll() })

	h := DiagnosticsHandler(a, "/debug")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/plugins", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["store","shell","os","deep-link"]`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/healthz", nil))
	assert.JSONEq(t, `{"ok":true,"sidecar":false}`, rec.Body.String())
}

func TestRegisterMetrics(t *testing.T) {
	require.NoError(t, RegisterMetrics(prometheus.NewRegistry()))
	// second call is a no-op
	require.NoError(t, RegisterMetrics(prometheus.NewRegistry()))
}

func TestDiagnosticsBeforeInitialize(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	h := DiagnosticsHandler(New(cfg, NewHeadlessHost(nil)), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sidecar", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"hermes-server","running":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/store/hermes-settings.json/keys", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
