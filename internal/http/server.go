package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	applog "eixo/internal/log"
	"eixo/internal/services"
	"eixo/internal/session"
)

const (
	sessionCookieName = "eixo_session"
	quizCookieName    = "eixo_quiz"

	defaultSessionTTL = 24 * time.Hour
	quizCookieTTL     = 7 * 24 * time.Hour
)

type requestIDKey struct{}

type sessionKey struct{}

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr         string
	Accounts     *services.AccountService
	Finance      *services.FinanceService
	Exports      *services.ExportService
	Storage      Pinger
	Logger       *applog.Logger
	CookieSecure bool
	SessionTTL   time.Duration
	// RateLimit is the number of mutating requests allowed per client IP per
	// minute. Zero means 60.
	RateLimit int
}

type Server struct {
	http.Server
	accounts     *services.AccountService
	finance      *services.FinanceService
	exports      *services.ExportService
	storage      Pinger
	logger       *applog.Logger
	events       *applog.StructuredLogger
	rateLimiter  *rateLimiter
	metrics      *metrics
	cookieSecure bool
	sessionTTL   time.Duration
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		accounts:     opts.Accounts,
		finance:      opts.Finance,
		exports:      opts.Exports,
		storage:      opts.Storage,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		events:       applog.NewStructuredLogger(logger),
		rateLimiter:  newRateLimiter(opts.RateLimit),
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
		started:      time.Now(),
	}
	s.metrics = newMetrics(s)
	s.routes(mux)

	var h http.Handler = mux
	h = applog.RequestIDMiddleware(requestIDFrom)(h)
	h = applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(h)
	s.Handler = s.withSecurity(h)
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())

	mux.HandleFunc("GET /api/quiz", s.handleQuizQuestions)
	mux.HandleFunc("POST /api/quiz", s.handleQuizSubmit)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.requireSession(s.handleMe))
	mux.HandleFunc("PUT /api/me", s.requireSession(s.handleUpdateMe))
	mux.HandleFunc("POST /api/premium", s.requireSession(s.handlePremium))

	mux.HandleFunc("GET /api/dashboard", s.requireSession(s.handleDashboard))
	mux.HandleFunc("GET /api/transactions", s.requireSession(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.requireSession(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireSession(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/statement", s.requireSession(s.handleStatement))

	mux.HandleFunc("GET /api/categories", s.requireSession(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.requireSession(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}/budget", s.requireSession(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/categories/{id}", s.requireSession(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/goals", s.requireSession(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.requireSession(s.handleCreateGoal))
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.requireSession(s.handleContribute))
	mux.HandleFunc("DELETE /api/goals/{id}", s.requireSession(s.handleDeleteGoal))

	mux.HandleFunc("POST /api/affordability", s.requireSession(s.handleAffordability))
	mux.HandleFunc("GET /api/affordability/history", s.requireSession(s.handleHistory))

	mux.HandleFunc("GET /api/export", s.requireSession(s.handleExport))
	mux.HandleFunc("POST /api/export", s.requireSession(s.handleExport))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// withSecurity adds the request ID, security headers, rate limiting on
// mutating methods, suspicious request detection and request logging.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.requests.Inc()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w)

		s.events.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r) {
			s.metrics.suspicious.Inc()
			s.logger.WarnContext(ctx, "Suspicious request",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.metrics.rateLimited.Inc()
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "Muitas requisições, tente novamente em instantes").
				Header("Retry-After", "60").
				Write(w)
			s.events.LogHTTPEnd(ctx, r, http.StatusTooManyRequests, time.Since(start).Milliseconds(), clientIP)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.events.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// requireSession resolves the session cookie and rejects anonymous callers.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessionFrom(r)
		if !ok {
			UnauthorizedError(msgLoginRequired).Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next(w, r.WithContext(ctx), sess)
	}
}

func (s *Server) sessionFrom(r *http.Request) (*session.Session, bool) {
	if sess, ok := r.Context().Value(sessionKey{}).(*session.Session); ok {
		return sess, true
	}
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	return s.accounts.Session(c.Value)
}

func (s *Server) newSessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) newQuizCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     quizCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(quizCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// expiredCookie clears name on the client.
func (s *Server) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
