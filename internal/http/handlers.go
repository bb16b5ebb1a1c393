package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"financy/internal/core"
	"financy/internal/log"
	"financy/internal/services"
)

// readyTimeout bounds each readiness check.
const readyTimeout = 5 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady runs every registered dependency check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.deps.ReadyChecks)+1)

	if s.deps.Reports == nil || s.deps.Rates == nil {
		checks["services"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["services"] = "ok"
	}

	names := make([]string, 0, len(s.deps.ReadyChecks))
	for name := range s.deps.ReadyChecks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := s.deps.ReadyChecks[name](ctx)
		cancel()
		if err != nil {
			checks[name] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				"check", name, log.FieldError, err)
			continue
		}
		checks[name] = "ok"
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request, security and cache counters in plain text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	w.WriteHeader(http.StatusOK)
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	if s.deps.Rates != nil {
		stats := s.deps.Rates.Cache().Stats()
		metric("rates_cache_entries", "gauge", "Cached exchange-rate tables", stats.Size)
		metric("rates_cache_hits_total", "counter", "Exchange-rate cache hits", stats.Hits)
		metric("rates_cache_misses_total", "counter", "Exchange-rate cache misses", stats.Misses)
	}
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}

// respond writes v, or the mapped error when err is set.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(v).Write(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := StatusFor(err)
	logger := log.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, log.ComponentHTTP, log.OpRead,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
	} else {
		logger.DebugContext(ctx, "Request rejected", log.FieldStatusCode, status, log.FieldError, err)
	}
	ErrorFrom(err).Write(w)
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	req, err := ParseReportRequest(r.URL.Query())
	if err == nil {
		req, err = s.deps.Reports.Normalize(req)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info, err := services.DescribePeriod(req.Month, req.Frequency, req.StartDay)
	s.respond(w, r, info, err)
}

type convertResponse struct {
	Amount        decimal.Decimal `json:"amount"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Converted     decimal.Decimal `json:"converted"`
	Formatted     string          `json:"formatted"`
	RatesFallback bool            `json:"rates_fallback,omitempty"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	p, err := ParseConvertParams(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	converted, fallback := s.deps.Rates.Convert(r.Context(), p.Amount, p.From, p.To)
	converted = converted.Round(2)
	s.respond(w, r, convertResponse{
		Amount:        p.Amount,
		From:          p.From,
		To:            p.To,
		Converted:     converted,
		Formatted:     core.FormatCurrency(converted, p.To),
		RatesFallback: fallback,
	}, nil)
}

// reportHandler parses the report query and passes it to fn.
func reportHandler[T any](s *Server, fn func(ctx context.Context, req services.ReportRequest) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := ParseReportRequest(r.URL.Query())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		v, err := fn(r.Context(), req)
		s.respond(w, r, v, err)
	}
}

func (s *Server) handleBudgetPlan(w http.ResponseWriter, r *http.Request) {
	req, err := ParseReportRequest(r.URL.Query())
	if err == nil && req.BudgetID == 0 {
		err = services.ErrBudgetRequired
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	totals, err := s.deps.Reports.BudgetPlan(r.Context(), req.BudgetID)
	s.respond(w, r, totals, err)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.deps.Reports.BudgetStatus)(w, r)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.deps.Reports.Breakdown)(w, r)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.deps.Reports.Comparison)(w, r)
}

func (s *Server) handleCumulative(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.deps.Reports.Cumulative)(w, r)
}

func (s *Server) handleTrips(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.deps.Reports.Trips)(w, r)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	reportHandler(s, s.deps.Reports.Summary)(w, r)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		ErrorResponse(http.StatusServiceUnavailable, "report export is not configured").Write(w)
		return
	}
	kind, err := services.ParseExportKind(r.URL.Query().Get("kind"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errInvalidParam, err))
		return
	}
	req, err := ParseReportRequest(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.Exporter.Export(r.Context(), kind, req)
	s.respond(w, r, res, err)
}
