// Package http exposes the engine over a JSON API: categorization edits,
// mapping import/export, budget configuration, analytics reads and recompute
// triggers.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pennyflow/internal/cache"
	"pennyflow/internal/core"
	applog "pennyflow/internal/log"
	"pennyflow/internal/services"
)

type Server struct {
	http.Server
	service     *services.FinanceService
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// analyticsCache keeps hot aggregate reads off SQLite. The short TTL
	// bounds staleness from worker-side publishes; local writes invalidate
	// eagerly.
	analyticsCache *cache.LRUCache[core.AnalyticsSnapshot]
	cacheManager   *cache.Manager

	requestLog   *applog.StructuredLogger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, service *services.FinanceService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		service:        service,
		rateLimiter:    newRateLimiter(),
		metrics:        &securityMetrics{},
		analyticsCache: cache.NewLRUCache[core.AnalyticsSnapshot](500, 30*time.Second),
		cacheManager:   cache.NewManager(),
		requestLog: applog.NewStructuredLogger(
			applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)),
	}

	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleIngestTransactions))
	mux.HandleFunc("POST /api/transactions/{id}/category", s.withMiddleware(s.handleSetOverride))
	mux.HandleFunc("POST /api/mappings", s.withMiddleware(s.handleSetMapping))
	mux.HandleFunc("POST /api/mappings/import", s.withMiddleware(s.handleImportMappings))
	mux.HandleFunc("GET /api/mappings/export", s.withMiddleware(s.handleExportMappings))
	mux.HandleFunc("POST /api/mappings/export-sheet", s.withMiddleware(s.handleExportMappingsToSheet))
	mux.HandleFunc("GET /api/budget", s.withMiddleware(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budget", s.withMiddleware(s.handleSaveBudget))
	mux.HandleFunc("GET /api/analytics", s.withMiddleware(s.handleGetAnalytics))
	mux.HandleFunc("POST /api/analytics/recompute", s.withMiddleware(s.handleRecompute))
	mux.HandleFunc("GET /api/goals/progress", s.withMiddleware(s.handleGoalProgress))

	return s
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		clientIP := extractClientIP(r)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request detected",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.requestLog.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stopCleanup()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
