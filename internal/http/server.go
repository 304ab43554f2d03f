// Package http wires the web surface: routing, session-based authentication,
// template rendering and the handlers for expenses, analytics and account
// lifecycle.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/web"
)

// Store is the slice of the storage layer the web surface depends on.
type Store interface {
	ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
	GetExpense(ctx context.Context, userID, expenseID int64) (core.Expense, error)
	CreateExpense(ctx context.Context, userID int64, e core.Expense) (int64, error)
	UpdateExpense(ctx context.Context, userID, expenseID int64, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, expenseID int64) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	CategoryExists(ctx context.Context, categoryID int64) (bool, error)

	GroupedTotals(ctx context.Context, userID int64, grouping core.Grouping, from, to *time.Time) ([]core.PeriodTotals, error)

	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	SessionUser(ctx context.Context, token string) (core.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID int64) error
}

// Options configures a Server.
type Options struct {
	Addr               string
	SessionTTL         time.Duration
	SecureCookies      bool
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	store         Store
	templates     *template.Template
	limiter       *ratelimit.Limiter
	sessionTTL    time.Duration
	secureCookies bool

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(store Store, opts Options) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 720 * time.Hour
	}

	mux := http.NewServeMux()

	s := &Server{
		store:         store,
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		sessionTTL:    opts.SessionTTL,
		secureCookies: opts.SecureCookies,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(web.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /expenses", s.requireUser(s.handleExpenseList))
	mux.HandleFunc("GET /expenses/new", s.requireUser(s.handleNewExpenseForm))
	mux.HandleFunc("POST /expenses", s.requireUser(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses/{id}/edit", s.requireUser(s.handleEditExpenseForm))
	mux.HandleFunc("POST /expenses/{id}/edit", s.requireUser(s.handleUpdateExpense))
	mux.HandleFunc("POST /expenses/{id}/delete", s.requireUser(s.handleDeleteExpense))
	mux.HandleFunc("GET /analytics", s.requireUser(s.handleAnalytics))

	mux.HandleFunc("GET /sign_up", s.handleSignUpForm)
	mux.HandleFunc("POST /sign_up", s.handleSignUp)
	mux.HandleFunc("GET /sign_in", s.handleSignInForm)
	mux.HandleFunc("POST /sign_in", s.handleSignIn)
	mux.HandleFunc("GET /sign_out", s.handleSignOut)

	var handler http.Handler = mux
	handler = s.withRateLimit(handler)
	handler = security.Middleware(security.DefaultHeadersConfig())(handler)
	handler = trace.Middleware(trace.ClientIP)(handler)

	s.Server = http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}

	return s
}

// withRateLimit applies the per-client budget to mutating requests.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.limiter.Allow(trace.ClientIP(r)) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", trace.ClientIP(r), "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser guards a route behind sign-in. Unauthenticated access always
// redirects to the sign-in page with a notice; this is a browser-facing app,
// never a hard 401.
func (s *Server) requireUser(next func(http.ResponseWriter, *http.Request, core.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			s.redirectToSignIn(w, r)
			return
		}

		user, err := s.store.SessionUser(r.Context(), cookie.Value)
		if err != nil {
			// A transient store failure must not sign the user out; only
			// an unknown or expired token invalidates the cookie.
			if !errors.Is(err, core.ErrNotFound) {
				slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			s.clearSessionCookie(w)
			s.redirectToSignIn(w, r)
			return
		}

		next(w, r, user)
	}
}

func (s *Server) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	s.setFlash(w, "You must be signed in")
	http.Redirect(w, r, "/sign_in", http.StatusFound)
}

// Shutdown stops the rate limiter's cleanup goroutine and then the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/expenses", http.StatusFound)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
