// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	applog "finanzas/internal/log"
	"finanzas/internal/metrics"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
)

// Options carries the request defaults and limits of the API.
type Options struct {
	Addr               string
	ClosingDay         int
	Horizon            int
	PersonAName        string
	PersonBName        string
	Backend            string
	RateLimitPerMinute int
}

// Pinger is implemented by stores that can report their readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API. Handler holds the full middleware chain.
type Server struct {
	http.Server

	opts      Options
	ledger    *services.LedgerService
	projector *services.Projector
	settler   *services.Settler
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	now       func() time.Time
}

// NewServer wires routes and middleware around the services.
func NewServer(opts Options, ledgerSvc *services.LedgerService, projector *services.Projector, settler *services.Settler, m *metrics.Metrics, logger *applog.Logger) *Server {
	s := &Server{
		opts:      opts,
		ledger:    ledgerSvc,
		projector: projector,
		settler:   settler,
		metrics:   m,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", m.Handler())

	mux.HandleFunc("GET /api/installments", s.handleListInstallments)
	mux.HandleFunc("POST /api/installments", s.handleCreateInstallment)
	mux.HandleFunc("GET /api/installments/{id}", s.handleGetInstallment)
	mux.HandleFunc("PATCH /api/installments/{id}", s.handleUpdateInstallment)
	mux.HandleFunc("DELETE /api/installments/{id}", s.handleDeleteInstallment)

	mux.HandleFunc("GET /api/fixed", s.handleListFixed)
	mux.HandleFunc("POST /api/fixed", s.handleCreateFixed)
	mux.HandleFunc("GET /api/fixed/{id}", s.handleGetFixed)
	mux.HandleFunc("PATCH /api/fixed/{id}", s.handleUpdateFixed)
	mux.HandleFunc("DELETE /api/fixed/{id}", s.handleDeleteFixed)
	mux.HandleFunc("PUT /api/fixed/{id}/overrides", s.handleSetOverride)
	mux.HandleFunc("DELETE /api/fixed/{id}/overrides/{month}", s.handleClearOverride)

	mux.HandleFunc("GET /api/projection", s.handleProjection)
	mux.HandleFunc("GET /api/balances", s.handleBalances)
	mux.HandleFunc("POST /api/settlements", s.handleSettle)
	mux.HandleFunc("GET /api/format", handleFormat)

	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	// Outermost first. trace must wrap the mux directly to see r.Pattern.
	var h http.Handler = mux
	h = trace.NewMiddleware(s.detector.ExtractClientIP, m).Middleware(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, handleRateLimited)(h)
	h = applog.Middleware(logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter cleanup and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func handleRateLimited(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", "60")
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ready", "store": s.opts.Backend}
	if p, ok := s.ledger.Store().(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			body["status"] = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}
