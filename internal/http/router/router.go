package router

import (
	"encoding/json"
	"net/http"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/concesionario/backoffice-api/internal/database"
	"github.com/concesionario/backoffice-api/internal/http/handler"
	"github.com/concesionario/backoffice-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/concesionario/backoffice-api/docs" // Import generated swagger docs
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Profile *handler.ProfileHandler
	Client  *handler.ClientHandler
	Event   *handler.EventHandler
	Lead    *handler.LeadHandler
	Audit   *handler.AuditHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	r.Use(middleware.RequestMetadata)
	if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health with pool statistics
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeHealth(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Readiness probe
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]interface{}{}
		status := http.StatusOK
		overall := "healthy"

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		} else {
			checks["database"] = map[string]interface{}{"status": "healthy"}
		}

		writeHealth(w, status, map[string]interface{}{
			"status": overall,
			"checks": checks,
		})
	})

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.With(rt.rateLimiter.LimitLogin).Post("/auth/login", h.Auth.Login)
		r.Post("/auth/register", h.Auth.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.LimitByUser)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/logout", h.Auth.Logout)
				r.Post("/password", h.Auth.ChangePassword)
				r.Get("/me", h.Auth.Me)
			})

			r.Route("/me", func(r chi.Router) {
				r.Get("/profile", h.Profile.Get)
				r.Put("/profile", h.Profile.Update)
				r.Get("/theme", h.Profile.GetTheme)
				r.Post("/theme/toggle", h.Profile.ToggleTheme)
			})

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.Client.List)
				r.Post("/", h.Client.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Client.Get)
					r.Put("/", h.Client.Update)
					r.Delete("/", h.Client.Delete)
					r.Put("/owner", h.Client.AssignOwner)
					r.Get("/notes", h.Client.ListNotes)
					r.Post("/notes", h.Client.AddNote)
				})
			})

			r.Route("/events", func(r chi.Router) {
				r.Get("/", h.Event.List)
				r.Post("/", h.Event.Create)
				r.Put("/{id}", h.Event.Update)
				r.Delete("/{id}", h.Event.Delete)
			})

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", h.Lead.List)
				r.Post("/", h.Lead.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Lead.Get)
					r.Delete("/", h.Lead.Delete)
					r.Get("/notes", h.Lead.ListNotes)
					r.Post("/notes", h.Lead.AddNote)
					r.Post("/interview", h.Lead.ScheduleInterview)
				})
			})

			// Administration
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", h.User.List)
					r.Post("/", h.User.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", h.User.Get)
						r.Put("/", h.User.Update)
						r.Delete("/", h.User.Delete)
						r.Put("/role", h.User.SetRole)
						r.Post("/toggle-staff", h.User.ToggleStaff)
						r.Post("/password", h.User.ResetPassword)
					})
				})

				r.Route("/audit", func(r chi.Router) {
					r.Get("/", h.Audit.List)
					r.Get("/export", h.Audit.Export)
					r.Delete("/", h.Audit.Purge)
				})
			})
		})
	})

	return r
}
