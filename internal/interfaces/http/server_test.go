package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer builds a server on an ephemeral port with one echo route.
// Requests are driven through the router directly, never a live listener.
func newTestServer(t *testing.T, config ServerConfig) *Server {
	t.Helper()
	config.Host = "127.0.0.1"
	config.Port = 0 // ephemeral, availability check only

	server, err := NewServer(config, func(r *mux.Router) {
		r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		}).Methods(http.MethodGet, http.MethodOptions)
	})
	require.NoError(t, err)
	return server
}

func TestDefaultServerConfigPortOverride(t *testing.T) {
	t.Setenv("HTTP_PORT", "9191")

	config := DefaultServerConfig()
	assert.Equal(t, 9191, config.Port)
	assert.Equal(t, "127.0.0.1", config.Host)
}

func TestServerAssignsRequestID(t *testing.T) {
	server := newTestServer(t, ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServerCORSAllowsLocalhostOnly(t *testing.T) {
	server := newTestServer(t, ServerConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerRateLimitSheds(t *testing.T) {
	server := newTestServer(t, ServerConfig{RateLimitRPS: 1})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	// Burst of 2x the rate passes, the next request is shed.
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestServerAddress(t *testing.T) {
	server := newTestServer(t, ServerConfig{})
	assert.Equal(t, "127.0.0.1:0", server.Address())
}
