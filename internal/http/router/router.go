package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Shalbulov/zentro-risk-prediction/internal/health"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/handler"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/middleware"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/response"
	"github.com/Shalbulov/zentro-risk-prediction/internal/security"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	JWTManager       *security.JWTManager
	Logger           *slog.Logger
	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int

	// Overrides for the default in-memory limiters; wiring installs the
	// Redis-backed ones here for multi-replica deployments.
	GlobalRateLimiter middleware.Limiter
	AuthRateLimiter   middleware.Limiter

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogging(dep.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))

	global := dep.GlobalRateLimiter
	if global == nil {
		global = middleware.NewLocalLimiter(dep.APIRateLimitRPM, time.Minute)
	}
	r.Use(middleware.RateLimit(global))

	// Code-issuing endpoints cost an outbound email each, so they get a
	// separate tighter window.
	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewLocalLimiter(dep.AuthRateLimitRPM, time.Minute)
	}
	tight := middleware.RateLimit(authLimiter)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, http.StatusServiceUnavailable, "dependencies are not ready")
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(tight).Post("/send-code", dep.AuthHandler.SendCode)
		r.With(tight).Post("/verify-code", dep.AuthHandler.VerifyCode)
		r.With(tight).Post("/send-login-code", dep.AuthHandler.SendLoginCode)
		r.With(tight).Post("/verify-login", dep.AuthHandler.VerifyLogin)
		r.With(tight).Post("/signin", dep.AuthHandler.Signin)
		r.With(middleware.RequireAuth(dep.JWTManager)).Get("/me", dep.AuthHandler.Me)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
