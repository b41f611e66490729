package web_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, newGenerator())

	resp := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestServer_SecurityHeaders(t *testing.T) {
	srv := newTestServer(t, newGenerator())

	resp := doJSON(t, http.MethodGet, srv.URL+"/plants", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'none'")
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, newGenerator())

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/conversations", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://phone.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_UnknownRoute(t *testing.T) {
	srv := newTestServer(t, newGenerator())

	resp := doJSON(t, http.MethodGet, srv.URL+"/areas", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
