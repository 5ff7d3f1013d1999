package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoknowsbruh3425/BDA/pkg/logger"
)

func TestEndpoints(t *testing.T) {
	var loaded atomic.Bool
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("api:" + r.URL.Path))
	})
	s := New(":0", logger.NewNop(), api, loaded.Load)

	get := func(path string) (int, string) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		return rec.Code, string(body)
	}

	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, _ = get("/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	loaded.Store(true)
	code, body = get("/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body)

	_, body = get("/api/scenarios")
	assert.Equal(t, "api:/api/scenarios", body)

	code, _ = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
}

func TestNilReadyIsAlwaysReady(t *testing.T) {
	s := New(":0", logger.NewNop(), nil, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
