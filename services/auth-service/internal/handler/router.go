package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/teon-auth-api/shared/auth"
	"github.com/vasapolrittideah/teon-auth-api/shared/middleware"
)

const HealthPath = "/healthz"

// NewRouter mounts the auth endpoints, the health check and the metrics endpoint.
// sessionIssuer validates tokens on protected routes.
func NewRouter(
	authHandler *AuthHTTPHandler,
	sessionIssuer auth.TokenIssuer,
	metrics http.Handler,
	logger *zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Welcome to Teon Suites Auth Service"))
	})
	r.Get(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(middleware.Authenticate(sessionIssuer)).Post("/logout", authHandler.Logout)
		r.Post("/verify-user/{confirmationCode}", authHandler.VerifyUser)
		r.Post("/resend-verification", authHandler.ResendVerification)
	})

	return r
}
