package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	applog "palestra/internal/log"
	"palestra/internal/middleware/auth"
	"palestra/internal/middleware/ratelimit"
	"palestra/internal/middleware/security"
	"palestra/internal/middleware/trace"
	"palestra/internal/services"
)

// Pinger reports whether a dependency is reachable. *storage.SQLiteRepository
// implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config configures the API server.
type Config struct {
	Addr string
	// JWTSecret enables bearer-token auth on /rpc and /reports when set.
	JWTSecret          string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	service    *services.GymService
	ready      Pinger
	procedures map[string]procedure

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	procLog  *applog.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config, svc *services.GymService, ready Pinger) *Server {
	detector := security.NewDetector()
	s := &Server{
		service:    svc,
		ready:      ready,
		procedures: newRegistry(svc),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:   detector,
		tracer:     trace.NewMiddleware(detector.ExtractClientIP),
		procLog: applog.NewStructuredLogger(applog.New(applog.Config{
			Component: applog.ComponentRPC,
			Handler:   slog.Default().Handler(),
		})),
	}

	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(applog.Middleware(applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.Default().Handler(),
	})))
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware(false))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(applog.ComponentMiddleware(applog.ComponentRPC))
		r.Use(s.limiter.Middleware(detector.ExtractClientIP, onRateLimited, http.MethodPost))
		if cfg.JWTSecret != "" {
			r.Use(auth.NewVerifier(cfg.JWTSecret).Middleware(onUnauthorized))
		}
		r.Get("/rpc/{procedure}", s.handleRPC)
		r.Post("/rpc/{procedure}", s.handleRPC)
		r.Get("/reports/revenue.xlsx", s.handleRevenueExport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				applog.FromContext(r.Context()).ErrorContext(r.Context(), "Panic recovered",
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path,
					"panic", rec)
				writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please try again later.")
}

func onUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="palestra"`)
	writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, err.Error())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
