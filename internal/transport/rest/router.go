package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/accendhq/accend/internal/auth"
	"github.com/accendhq/accend/internal/booking"
	"github.com/accendhq/accend/internal/catalog"
	"github.com/accendhq/accend/internal/request"
	"github.com/accendhq/accend/internal/stats"
	"github.com/accendhq/accend/internal/transport/middleware"
	"github.com/accendhq/accend/internal/transport/swagger"
	"github.com/accendhq/accend/internal/user"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Catalog *catalog.Handler
	Request *request.Handler
	Booking *booking.Handler
	Stats   *stats.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, registry *prometheus.Registry, allowedOrigins []string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if registry != nil {
		httpMetrics := middleware.NewHTTPMetrics(registry)
		router.Use(httpMetrics.Middleware)
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/signup", h.Auth.Signup)
			sr.Post("/login", h.Auth.Login)
			sr.Post("/logout", h.Auth.Logout)
			sr.Get("/me", h.Auth.Me)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Patch("/users/me/name", h.User.UpdateName)

			pr.Get("/resources", h.Catalog.GetResources)

			pr.Route("/requests", func(rr chi.Router) {
				rr.Post("/", h.Request.CreateRequest)
				rr.Get("/", h.Request.GetMyRequests)

				rr.Group(func(ar chi.Router) {
					ar.Use(h.Auth.RequireAdmin)
					ar.Post("/{id}/decision", h.Request.DecideRequest)
				})
			})

			pr.Get("/environments", h.Booking.GetEnvironments)

			pr.Route("/bookings", func(br chi.Router) {
				br.Post("/", h.Booking.CreateBooking)
				br.Get("/", h.Booking.GetMyBookings)
				br.Get("/active", h.Booking.GetActiveBooking)
				br.Get("/{id}", h.Booking.GetBooking)
				br.Post("/{id}/extend", h.Booking.ExtendBooking)
				br.Post("/{id}/release", h.Booking.ReleaseBooking)
			})

			// Admin surfaces
			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(h.Auth.RequireAdmin)
				ar.Get("/requests", h.Request.GetAllRequests)
				ar.Get("/requests/pending", h.Request.GetPendingRequests)
				ar.Get("/bookings", h.Booking.GetAllBookings)
			})

			pr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.RequireAdmin)
				ar.Get("/stats/summary", h.Stats.GetSummary)
			})
		})
	})
}
