package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calm-red-fox/siteops/internal/api/auth"
	"github.com/calm-red-fox/siteops/internal/api/costs"
	"github.com/calm-red-fox/siteops/internal/api/dashboard"
	"github.com/calm-red-fox/siteops/internal/api/docs"
	"github.com/calm-red-fox/siteops/internal/api/fleet"
	"github.com/calm-red-fox/siteops/internal/api/middleware"
	"github.com/calm-red-fox/siteops/internal/api/photos"
	"github.com/calm-red-fox/siteops/internal/api/projects"
	"github.com/calm-red-fox/siteops/internal/api/respond"
	"github.com/calm-red-fox/siteops/internal/api/timesessions"
	"github.com/calm-red-fox/siteops/internal/api/users"
	"github.com/calm-red-fox/siteops/internal/api/workitems"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.AccessTokenTTL)
	lockoutTracker := auth.NewLockoutTracker(s.config.LockoutThreshold, s.config.LockoutDuration)

	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	userLimiter := middleware.NewRateLimiter(s.config.RateLimitPerUser)

	// Global middleware
	r.Use(middleware.RequestLogger(s.log, s.config.Verbose))
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer(s.log))

	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public, IP rate limited)
		r.Route("/auth", func(r chi.Router) {
			authHandler := auth.NewHandler(s.storage, jwtService, lockoutTracker, s.log)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(ipLimiter))
				r.Post("/login", authHandler.Login)
			})
		})

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			dashboardHandler := dashboard.NewHandler(s.storage, s.log)
			r.Get("/dashboard", dashboardHandler.Get)

			projectHandler := projects.NewHandler(s.storage, s.log)
			workItemHandler := workitems.NewHandler(s.storage, s.log)
			photoHandler := photos.NewHandler(s.storage, s.log)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.With(middleware.RequireStaff).Post("/", projectHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", projectHandler.GetByID)
					r.With(middleware.RequireStaff).Put("/", projectHandler.Update)
					r.With(middleware.RequireStaff).Delete("/", projectHandler.Delete)

					r.Get("/work-items", workItemHandler.ListByProject)
					r.Get("/work-items/tree", workItemHandler.Tree)
					r.Post("/work-items", workItemHandler.Create)

					r.Get("/photos", photoHandler.ListByProject)
					r.Post("/photos", photoHandler.Create)
				})
			})

			r.Route("/work-items/{id}", func(r chi.Router) {
				r.Put("/", workItemHandler.Update)
				r.Delete("/", workItemHandler.Delete)
				r.Post("/status/{status}", workItemHandler.SetStatus)
				r.Post("/progress/{value}", workItemHandler.SetProgress)
			})

			sessionHandler := timesessions.NewHandler(s.storage, s.log)
			r.Route("/time-sessions", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Post("/", sessionHandler.Start)
				r.Get("/active", sessionHandler.Active)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", sessionHandler.GetByID)
					r.Post("/stop", sessionHandler.Stop)
					r.Post("/allocations", sessionHandler.AddAllocation)
				})
			})
			r.Delete("/allocations/{id}", sessionHandler.DeleteAllocation)

			costHandler := costs.NewHandler(s.storage, s.log)
			r.Route("/costs", func(r chi.Router) {
				r.Get("/", costHandler.List)
				r.Post("/", costHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", costHandler.GetByID)
					r.Delete("/", costHandler.Delete)
					r.With(middleware.RequireStaff).Post("/approve", costHandler.Approve)
					r.With(middleware.RequireStaff).Post("/reject", costHandler.Reject)
				})
			})

			fleetHandler := fleet.NewHandler(s.storage, s.log)
			r.Route("/fleet", func(r chi.Router) {
				r.Get("/", fleetHandler.List)
				r.With(middleware.RequireStaff).Post("/", fleetHandler.Create)
				r.Get("/{id}", fleetHandler.GetByID)
				r.Post("/{id}/checkout", fleetHandler.Checkout)
				r.Post("/sessions/{id}/checkin", fleetHandler.Checkin)
			})

			docsHandler := docs.NewHandler(s.storage, s.log)
			r.Route("/docs", func(r chi.Router) {
				r.Route("/folders", func(r chi.Router) {
					r.Get("/", docsHandler.ListRootFolders)
					r.Post("/", docsHandler.CreateFolder)
					r.Get("/{id}", docsHandler.GetFolder)
				})
				r.Route("/files/{id}", func(r chi.Router) {
					r.Get("/", docsHandler.GetFile)
					r.Post("/ack", docsHandler.Acknowledge)
				})
				r.Route("/broadcasts", func(r chi.Router) {
					r.Get("/", docsHandler.ListBroadcasts)
					r.With(middleware.RequireStaff).Post("/", docsHandler.CreateBroadcast)
				})
			})

			userHandler := users.NewHandler(s.storage, s.log)
			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.GetCurrentUser)
				r.Put("/me/password", userHandler.ChangePassword)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Use(middleware.RequireAdminOrSelf)
					r.Get("/", userHandler.GetByID)
					r.Put("/", userHandler.Update)

					r.With(middleware.RequireAdmin).Delete("/", userHandler.Delete)
				})
			})
		})
	})

	// Health check (public, no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, map[string]string{"status": "ok"})
	})

	// Unknown routes still answer JSON
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.NotFound(w, "not found")
	})

	return r
}
