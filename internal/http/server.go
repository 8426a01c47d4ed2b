package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gofinances/internal/auth"
	applog "gofinances/internal/log"
	"gofinances/internal/services"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Transactions *services.TransactionService
	Loader       *services.Loader
	Session      *auth.Session
	OAuthState   string
	Logger       *applog.Logger

	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	loader       *services.Loader
	session      *auth.Session
	oauthState   string
	logger       *applog.Logger
	now          func() time.Time

	rateLimiter *rateLimiter
	metrics     securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		transactions: deps.Transactions,
		loader:       deps.Loader,
		session:      deps.Session,
		oauthState:   deps.OAuthState,
		logger:       deps.Logger.WithComponent(applog.ComponentHTTP),
		now:          time.Now,
		rateLimiter:  newRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst),
	}
	if s.loader == nil {
		s.loader = services.NewLoader(s.transactions.Summary, deps.Logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.AccessLog)
	r.Use(s.withSecurityHeaders)

	r.Get("/healthz", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.withRateLimit)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/google/login", s.handleGoogleLogin)
			r.Get("/google/callback", s.handleGoogleCallback)
			r.Post("/google/token", s.handleGoogleToken)
			r.Post("/apple", s.handleAppleSignIn)
			r.Post("/signout", s.handleSignOut)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/me", s.handleMe)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/resume", s.handleResume)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Put("/transactions", s.handleImportTransactions)
			r.Delete("/transactions", s.handleClearTransactions)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers and flags suspicious requests.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if detectSuspiciousRequest(r, &s.metrics) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, extractClientIP(r),
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.rateLimiter.allow(clientIP, &s.metrics) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
				"Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(s.rateLimiter.retryAfter()))
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userContextKey struct{}

// requireUser rejects requests without a signed-in user.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.session.Current()
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		ctx = applog.ToContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
