package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/oauthflow/internal/rate"
	"github.com/dropDatabas3/oauthflow/internal/session"
)

// RouterDeps contiene las dependencias del router.
type RouterDeps struct {
	Auth     *AuthHandler
	Sessions *session.Store
	Limiter  rate.Limiter    // Opcional: rate limiter por IP sobre /auth/*
	Metrics  stdhttp.Handler // Opcional: /metrics
}

// NewRouter arma el mux del servicio.
func NewRouter(deps RouterDeps) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(WithRecover, WithRequestID, WithLogging)

	// ─── Flujo OAuth ───
	r.Route("/auth", func(r chi.Router) {
		r.Use(WithRateLimit(deps.Limiter))
		r.Get("/login", deps.Auth.Login)
		r.Get("/callback", deps.Auth.Callback)
		r.Get("/me", deps.Auth.Me)
		r.Post("/refresh", deps.Auth.Refresh)
		r.Post("/logout", deps.Auth.Logout)
	})

	// ─── Health / métricas ───
	r.Get("/readyz", readyz(deps.Sessions))
	if deps.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", deps.Metrics)
	}
	return r
}

// readyz responde 200 si el store de sesiones contesta.
func readyz(s *session.Store) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if err := s.Ping(r.Context()); err != nil {
			WriteJSON(w, stdhttp.StatusServiceUnavailable, map[string]string{"status": "degraded", "cache": err.Error()})
			return
		}
		WriteJSON(w, stdhttp.StatusOK, map[string]string{"status": "ok"})
	}
}
