package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/cinesearch/internal/metrics"
)

// Router assembles the middleware stack and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(s.Recoverer)
	r.Use(metrics.Middleware("/metrics"))
	r.Use(SecurityHeaders)

	r.NotFound(s.NotFound)
	r.MethodNotAllowed(s.MethodNotAllowed)

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/login", s.LoginPage)
	r.Post("/login", s.Login)
	r.Get("/register", s.RegisterPage)
	r.Post("/register", s.Register)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireSession)
		r.Get("/", s.Home)
		r.Get("/logout", s.Logout)
		r.Post("/search", s.Search)
	})

	return r
}
