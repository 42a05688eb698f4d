/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()

	cfg := &Config{port: 5000, corsOrigin: "*"}
	require.NoError(t, cfg.validate())

	return cfg
}

func newTestRouter(t *testing.T, cfg *Config) http.Handler {
	t.Helper()

	errs := make(chan error, 64)
	t.Cleanup(func() {
		for {
			select {
			case err := <-errs:
				t.Logf("handler error: %v", err)
			default:
				return
			}
		}
	})

	mux, err := newRouter(cfg, errs)
	require.NoError(t, err)

	return mux
}

func doRequest(t *testing.T, h http.Handler, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestAmbientEndpoints(t *testing.T) {
	mux := newTestRouter(t, newTestConfig(t))

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/healthz", "text/plain; charset=utf-8", "Ok"},
		{"/version", "text/plain; charset=utf-8", "flamesbox v" + releaseVersion},
		{"/robots.txt", "text/plain; charset=utf-8", "Disallow: /api/"},
		{"/favicons/favicon.svg", "image/svg+xml", "<svg"},
		{"/favicons/site.webmanifest", "application/manifest+json", `"FLAMES"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodGet, tt.path, nil, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestMissingFavicon(t *testing.T) {
	mux := newTestRouter(t, newTestConfig(t))

	rec := doRequest(t, mux, http.MethodGet, "/favicons/../web.go", nil, nil)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/favicons/nope.png", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmbeddedFrontend(t *testing.T) {
	mux := newTestRouter(t, newTestConfig(t))

	rec := doRequest(t, mux, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "F L A M E S")

	rec = doRequest(t, mux, http.MethodGet, "/app.js", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/javascript; charset=utf-8", rec.Header().Get("Content-Type"))

	// Unknown frontend paths belong to the client-side router.
	rec = doRequest(t, mux, http.MethodGet, "/results/alice-and-bob", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "F L A M E S")
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static", "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<div id=root></div>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "js", "main.js"), []byte("render()"), 0o644))

	cfg := newTestConfig(t)
	cfg.staticDir = dir
	mux := newTestRouter(t, cfg)

	rec := doRequest(t, mux, http.MethodGet, "/static/js/main.js", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "render()", rec.Body.String())
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	for _, path := range []string{"/", "/static", "/about", "/static/js/missing.js"} {
		rec = doRequest(t, mux, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "<div id=root></div>", rec.Body.String(), path)
	}
}

func TestStaticDirWithoutBuild(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.staticDir = t.TempDir()
	mux := newTestRouter(t, cfg)

	rec := doRequest(t, mux, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Frontend build not found. Run frontend build (npm run build)")
}

func TestNotFound(t *testing.T) {
	mux := newTestRouter(t, newTestConfig(t))

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/api/nope"},
		{http.MethodGet, "/api"},
		{http.MethodPost, "/somewhere"},
	} {
		rec := doRequest(t, mux, tt.method, tt.path, nil, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code, tt.path)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"error":"Route not found","message":"🥺 Love got lost. Use the calculator at /"}`, rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestRouter(t, newTestConfig(t))

	rec := doRequest(t, mux, http.MethodDelete, "/api/calculate", nil, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}

func TestPanicHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	servePanic(newTestConfig(t))(rec, httptest.NewRequest(http.MethodGet, "/api/calculate", nil), "boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Server error","message":"😵 Something went wrong. Try again later."}`, rec.Body.String())
}

func TestPrefix(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.prefix = "/love"
	require.NoError(t, cfg.validate())
	mux := newTestRouter(t, cfg)

	rec := doRequest(t, mux, http.MethodGet, "/love/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodPost, "/love/api/calculate", strings.NewReader(`{"name1":"Alice","name2":"Bob"}`), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/love/")
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "10.0.0.1:4321", realIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7:4321", realIP(req))

	req.Header.Set("CF-Connecting-IP", "2001:db8::1")
	assert.Equal(t, "[2001:db8::1]:4321", realIP(req))
}

func TestSecurityHeadersOverTLS(t *testing.T) {
	rec := httptest.NewRecorder()
	securityHeaders(&Config{tlsCert: "c", tlsKey: "k"}, rec)

	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "default-src 'self'; img-src 'self' data:", rec.Header().Get("Content-Security-Policy"))
}
