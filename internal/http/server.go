package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"budgetbook/internal/cache"
	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/services"
	"budgetbook/internal/store"
	appweb "budgetbook/web"
)

// Server wraps http.Server with the command handlers, reporting engine and
// per-view caches.
type Server struct {
	http.Server
	templates *template.Template
	commands  *services.Commands
	reports   *services.Reports
	store     store.Store

	limiter   *postLimiter
	metrics   *securityMetrics
	accessLog *applog.StructuredLogger

	// Report and expense-list views are cached per user with a short TTL
	// and invalidated on any mutation for that user.
	reportCache   *cache.LRUCache[core.MonthlyReport]
	expensesCache *cache.LRUCache[[]core.Expense]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, st store.Store, commands *services.Commands, reports *services.Reports) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		commands:      commands,
		reports:       reports,
		store:         st,
		limiter:       newPostLimiter(),
		metrics:       &securityMetrics{},
		accessLog:     applog.NewStructuredLogger(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)),
		reportCache:   cache.NewLRUCache[core.MonthlyReport](200, 5*time.Minute),
		expensesCache: cache.NewLRUCache[[]core.Expense](200, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.Register(s.expensesCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("POST /users", s.withSecurityHeaders(s.handleCreateUser))
	mux.HandleFunc("POST /users/{id}/delete", s.withSecurityHeaders(s.handleDeleteUser))
	mux.HandleFunc("GET /users/{id}/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("GET /users/{id}/categories", s.withSecurityHeaders(s.handleCategoriesPage))
	mux.HandleFunc("POST /users/{id}/categories", s.withSecurityHeaders(s.handleCreateCategory))
	mux.HandleFunc("GET /users/{id}/budgets", s.withSecurityHeaders(s.handleBudgetsPage))
	mux.HandleFunc("POST /users/{id}/budgets", s.withSecurityHeaders(s.handleSaveBudgets))
	mux.HandleFunc("GET /users/{id}/expenses", s.withSecurityHeaders(s.handleExpensesPage))
	mux.HandleFunc("POST /users/{id}/expenses", s.withSecurityHeaders(s.handleCreateExpense))
	mux.HandleFunc("GET /users/{id}/report", s.withSecurityHeaders(s.handleReport))

	return s
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.accessLog.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request pattern",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.String())
		}

		// Rate limiting applies to mutations only.
		if r.Method == http.MethodPost && !s.limiter.allow(clientIP) {
			s.metrics.rateLimitHits.Add(1)
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.accessLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	if _, err := s.store.ListUsers(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness store check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) reportKey(userID int64, month core.Month) string {
	return fmt.Sprintf("report:%d:%s", userID, month)
}

func (s *Server) expensesKey(userID int64) string {
	return fmt.Sprintf("expenses:%d", userID)
}

// invalidateUser drops every cached view for the user. Any mutation in the
// user's data goes through here.
func (s *Server) invalidateUser(userID int64) {
	s.reportCache.DeletePrefix(fmt.Sprintf("report:%d:", userID))
	s.expensesCache.Delete(s.expensesKey(userID))
}

func (s *Server) getReport(ctx context.Context, userID int64, month core.Month) (core.MonthlyReport, error) {
	key := s.reportKey(userID, month)
	if report, found := s.reportCache.Get(key); found {
		slog.DebugContext(ctx, "Report cache hit", "user_id", userID, "month", month.String())
		return report, nil
	}

	// Small timeout so a slow store never hangs a page render.
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	report, err := s.reports.MonthlyReport(cctx, userID, month)
	if err != nil {
		return core.MonthlyReport{}, err
	}

	s.reportCache.Set(key, report)
	return report, nil
}

func (s *Server) getExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	key := s.expensesKey(userID)
	if items, found := s.expensesCache.Get(key); found {
		result := make([]core.Expense, len(items))
		copy(result, items)
		return result, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	items, err := s.store.ListExpenses(cctx, userID, expenseListLimit)
	if err != nil {
		return nil, fmt.Errorf("list expenses (user=%d): %w", userID, err)
	}

	s.expensesCache.Set(key, items)
	return items, nil
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.limiter != nil {
			s.limiter.shutdown()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
