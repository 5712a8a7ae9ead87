package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type ctxKey int

// requestIDKey carries the per-request correlation id through the context.
const requestIDKey ctxKey = iota

// RequestIDFromContext returns the request id set by the server middleware,
// or "unknown" for requests that bypassed it.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// Server is the read-only HTTP API over the derived tables. Routes are
// supplied by an installer so the handler set stays decoupled from the
// server plumbing.
type Server struct {
	router  *mux.Router
	server  *http.Server
	config  ServerConfig
	limiter *rate.Limiter
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS float64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	port := 8080
	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	return ServerConfig{
		Host:         "127.0.0.1", // Local-only by default
		Port:         port,
		RateLimitRPS: 20,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// RouteInstaller registers endpoint handlers on the server's router.
type RouteInstaller func(r *mux.Router)

// NewServer creates a new HTTP server instance. The installer runs after the
// middleware chain is in place, so every registered route inherits it.
func NewServer(config ServerConfig, install RouteInstaller) (*Server, error) {
	if config.ReadTimeout == 0 {
		def := DefaultServerConfig()
		config.ReadTimeout = def.ReadTimeout
		config.WriteTimeout = def.WriteTimeout
		config.IdleTimeout = def.IdleTimeout
	}

	// Check if port is available
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d is busy or unavailable: %w", config.Port, err)
	}
	listener.Close()

	server := &Server{
		router: mux.NewRouter(),
		config: config,
	}
	if config.RateLimitRPS > 0 {
		burst := int(config.RateLimitRPS) * 2
		if burst < 1 {
			burst = 1
		}
		server.limiter = rate.NewLimiter(rate.Limit(config.RateLimitRPS), burst)
	}

	// Middleware for all routes
	server.router.Use(server.requestIDMiddleware)
	server.router.Use(server.requestLoggingMiddleware)
	server.router.Use(server.rateLimitMiddleware)
	server.router.Use(server.timeoutMiddleware)
	server.router.Use(server.corsMiddleware)

	if install != nil {
		install(server.router)
	}

	server.server = &http.Server{
		Addr:         addr,
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return server, nil
}

// requestIDMiddleware adds unique request ID to each request
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs all requests with structured format
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Capture response status
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		if DefaultMetrics != nil {
			DefaultMetrics.RecordHTTPRequest(r.URL.Path, wrapper.statusCode)
		}

		log.Info().
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// rateLimitMiddleware sheds load beyond the configured request rate
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error":"Too Many Requests","message":"rate limit exceeded","request_id":%q}`,
				RequestIDFromContext(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// timeoutMiddleware enforces request timeouts
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware adds CORS headers for local development
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allow localhost origins
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().
		Str("host", s.config.Host).
		Int("port", s.config.Port).
		Float64("rate_limit_rps", s.config.RateLimitRPS).
		Msg("Starting HTTP server (local-only, read-only)")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
