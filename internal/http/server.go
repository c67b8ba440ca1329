package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/auth"
	"kakeibo/internal/log"
	"kakeibo/internal/metrics"
	"kakeibo/internal/middleware/authn"
	"kakeibo/internal/middleware/ratelimit"
	"kakeibo/internal/middleware/security"
	"kakeibo/internal/middleware/trace"
	"kakeibo/internal/services"
	"kakeibo/internal/storage"
)

// Services groups the application services behind the API.
type Services struct {
	Accounts     *services.AccountService
	Couples      *services.CoupleService
	Transactions *services.TransactionService
	Settlement   *services.SettlementService
	Recurring    *services.RecurringProcessor
	Budgets      *services.BudgetService
	Assets       *services.AssetService
	Dashboard    *services.DashboardService
	Analytics    *services.AnalyticsService
}

// ServerConfig holds the HTTP settings taken from the application config.
type ServerConfig struct {
	Addr            string
	RateLimitPerMin int
	Currency        string
	Logger          *log.Logger // request-scoped logger base; stderr when nil
}

type Server struct {
	http.Server
	svc      Services
	repo     *storage.SQLiteRepository
	tokens   *auth.JWTManager
	metrics  *metrics.Metrics
	currency string

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	started      time.Time
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg ServerConfig, repo *storage.SQLiteRepository, tokens *auth.JWTManager, svc Services, m *metrics.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:              svc,
		repo:             repo,
		tokens:           tokens,
		metrics:          m,
		currency:         cfg.Currency,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMin}),
		securityDetector: security.NewDetector(),
		started:          time.Now(),
		now:              time.Now,
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(handler)
	handler = s.securityDetector.Middleware(false)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger.WithComponent(log.ComponentHTTP))(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", s.handleHealth, false)
	s.handle(mux, "GET /readyz", s.handleReady, false)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.handle(mux, "POST /api/v1/auth/register", s.handleRegister, false)
	s.handle(mux, "POST /api/v1/auth/login", s.handleLogin, false)
	s.handle(mux, "GET /api/v1/me", s.handleMe, true)
	s.handle(mux, "GET /api/v1/notifications", s.handleNotifications, true)

	s.handle(mux, "POST /api/v1/couple/invite", s.handleCreateInvite, true)
	s.handle(mux, "POST /api/v1/couple/join", s.handleJoinCouple, true)
	s.handle(mux, "GET /api/v1/couple", s.handleGetCouple, true)
	s.handle(mux, "DELETE /api/v1/couple", s.handleLeaveCouple, true)

	s.handle(mux, "POST /api/v1/transactions", s.handleCreateTransaction, true)
	s.handle(mux, "GET /api/v1/transactions", s.handleListTransactions, true)
	s.handle(mux, "GET /api/v1/transactions/summary", s.handleTransactionSummary, true)
	s.handle(mux, "GET /api/v1/transactions/{id}", s.handleGetTransaction, true)
	s.handle(mux, "PATCH /api/v1/transactions/{id}", s.handleUpdateTransaction, true)
	s.handle(mux, "DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction, true)

	s.handle(mux, "GET /api/v1/settlement", s.handleSettlement, true)

	s.handle(mux, "POST /api/v1/recurring", s.handleCreateTemplate, true)
	s.handle(mux, "GET /api/v1/recurring", s.handleListTemplates, true)
	s.handle(mux, "GET /api/v1/recurring/{id}", s.handleGetTemplate, true)
	s.handle(mux, "PATCH /api/v1/recurring/{id}", s.handleUpdateTemplate, true)
	s.handle(mux, "DELETE /api/v1/recurring/{id}", s.handleDeleteTemplate, true)
	s.handle(mux, "POST /api/v1/recurring/{id}/execute", s.handleExecuteTemplate, true)

	s.handle(mux, "POST /api/v1/budgets", s.handleCreateBudget, true)
	s.handle(mux, "GET /api/v1/budgets", s.handleListBudgets, true)
	s.handle(mux, "GET /api/v1/budgets/current", s.handleCurrentBudgets, true)
	s.handle(mux, "GET /api/v1/budgets/{id}", s.handleGetBudget, true)
	s.handle(mux, "PATCH /api/v1/budgets/{id}", s.handleUpdateBudget, true)
	s.handle(mux, "DELETE /api/v1/budgets/{id}", s.handleDeleteBudget, true)

	s.handle(mux, "POST /api/v1/assets", s.handleCreateAsset, true)
	s.handle(mux, "GET /api/v1/assets", s.handleListAssets, true)
	s.handle(mux, "GET /api/v1/assets/totals", s.handleAssetTotals, true)
	s.handle(mux, "GET /api/v1/assets/{id}", s.handleGetAsset, true)
	s.handle(mux, "PUT /api/v1/assets/{id}", s.handleUpdateAsset, true)
	s.handle(mux, "DELETE /api/v1/assets/{id}", s.handleDeleteAsset, true)

	s.handle(mux, "GET /api/v1/dashboard", s.handleDashboard, true)

	s.handle(mux, "GET /api/v1/analytics/category-analysis", s.handleCategoryAnalysis, true)
	s.handle(mux, "GET /api/v1/analytics/monthly-trends", s.handleMonthlyTrends, true)
	s.handle(mux, "GET /api/v1/analytics/yearly-trends", s.handleYearlyTrends, true)
	s.handle(mux, "GET /api/v1/analytics/report/monthly", s.handleMonthlyReport, true)
	s.handle(mux, "GET /api/v1/analytics/report/yearly", s.handleYearlyReport, true)
}

// handle registers h under pattern, behind authentication when authed is
// set, and records request metrics labelled with the pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc, authed bool) {
	var next http.Handler = h
	if authed {
		next = authn.RequireAuth(s.tokens)(next)
	}
	mux.Handle(pattern, s.instrument(pattern, next))
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
