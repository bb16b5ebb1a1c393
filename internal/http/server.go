package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financy/internal/cache"
	"financy/internal/log"
	"financy/internal/middleware/ratelimit"
	"financy/internal/middleware/security"
	"financy/internal/middleware/trace"
	"financy/internal/services"
)

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

// Config holds the listener settings.
type Config struct {
	Addr         string
	RateLimitRPM int
	// TrustedProxies are extra CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
	Logger         *log.Logger
}

// Dependencies are the services behind the routes. Reports and Rates are
// required; a nil Editor or Exporter disables their routes with 503.
type Dependencies struct {
	Reports     *services.ReportService
	Rates       *services.RateService
	Editor      *services.BudgetEditor
	Exporter    *services.ExportService
	Caches      *cache.Manager
	ReadyChecks map[string]ReadyCheck
}

type Server struct {
	http.Server
	deps   Dependencies
	logger *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s := &Server{
		deps:             deps,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitRPM}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		started:          time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("GET /api/period", s.api(s.handlePeriod))
	mux.Handle("GET /api/convert", s.api(s.handleConvert))
	mux.Handle("GET /api/reports/budget", s.api(s.handleBudgetPlan))
	mux.Handle("GET /api/reports/budget-status", s.api(s.handleBudgetStatus))
	mux.Handle("GET /api/reports/breakdown", s.api(s.handleBreakdown))
	mux.Handle("GET /api/reports/comparison", s.api(s.handleComparison))
	mux.Handle("GET /api/reports/cumulative", s.api(s.handleCumulative))
	mux.Handle("GET /api/reports/trips", s.api(s.handleTrips))
	mux.Handle("GET /api/reports/summary", s.api(s.handleSummary))
	mux.Handle("POST /api/reports/export", s.api(s.handleExport))
	mux.Handle("PUT /api/budgets/{id}/draft", s.api(s.handlePutDraft))
	mux.Handle("GET /api/budgets/{id}/draft", s.api(s.handleGetDraft))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// api applies per-client rate limiting to a report route.
func (s *Server) api(h http.HandlerFunc) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}
	return s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, onLimit)(h)
}

// Shutdown stops the rate limiter and cache cleanup, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		if s.deps.Caches != nil {
			s.deps.Caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
