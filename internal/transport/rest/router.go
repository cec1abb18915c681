package rest

import (
	"log/slog"

	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/client"
	"github.com/a1media/agency-dashboard/internal/lead"
	"github.com/a1media/agency-dashboard/internal/metrics"
	"github.com/a1media/agency-dashboard/internal/transport/middleware"
	"github.com/a1media/agency-dashboard/internal/transport/swagger"
	"github.com/a1media/agency-dashboard/internal/user"
	"github.com/go-chi/chi"
)

const APIPrefix = "/api/v1"

type Handlers struct {
	Auth   *auth.Handler
	User   *user.Handler
	Lead   *lead.Handler
	Client *client.Handler
	Health *HealthHandler
}

type Options struct {
	AllowedOrigins string
	// MetricsPath is left empty to disable /metrics.
	MetricsPath string
}

func RegisterAllRoutes(router chi.Router, h Handlers, rbac *auth.RBACAuthorization, opts Options, logger *slog.Logger) {
	// session resolution runs before logging so responses carry the actor
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(rbac.Session)
	router.Use(middleware.ActorContext)
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())
	if opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, metrics.Handler())
	}

	router.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", h.Health.Check)
		r.Get("/ping", h.Health.Ping)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.With(rbac.RequireAuthenticated()).Post("/logout", h.Auth.Logout)
		})

		// website enquiry form, no session
		r.Post("/public/leads", h.Lead.CapturePublicLead)

		// always answers 200 with the decision, signed in or not
		r.Get("/navigation/authorize", h.Auth.Authorize)

		r.Group(func(pr chi.Router) {
			pr.Use(rbac.RequireAuthenticated())

			pr.Get("/navigation/modules", h.Auth.AllowedModules)
			pr.Get("/users/me", h.User.GetCurrentUser)
		})

		r.Route("/roles", func(rr chi.Router) {
			rr.Use(rbac.RequireRole(auth.RoleAdmin))

			rr.Get("/permissions", h.Auth.GetPermissions)
			rr.Put("/{role}/modules/{module}", h.Auth.GrantPermission)
			rr.Delete("/{role}/modules/{module}", h.Auth.RevokePermission)
			rr.Post("/{role}/modules/{module}/toggle", h.Auth.TogglePermission)
		})

		r.With(rbac.RequireModule(auth.ModuleUsers)).Get("/users", h.User.ListUsers)

		r.Route("/leads", func(lr chi.Router) {
			lr.Use(rbac.RequireModule(auth.ModuleLeads))

			lr.Get("/", h.Lead.ListLeads)
			lr.Post("/", h.Lead.CreateLead)
			lr.Get("/board", h.Lead.Board)
			lr.Get("/stats", h.Lead.Stats)
			lr.Get("/follow-ups", h.Lead.PendingFollowUps)
			lr.Get("/export", h.Lead.Export)
			lr.Post("/reconcile", h.Lead.Reconcile)
			lr.Post("/drop", h.Lead.Drop)
			lr.Get("/{id}", h.Lead.GetLead)
			lr.Patch("/{id}", h.Lead.UpdateLead)
			lr.Delete("/{id}", h.Lead.DeleteLead)
			lr.Put("/{id}/stage", h.Lead.ChangeStage)
			lr.Post("/{id}/drag", h.Lead.ArmDrag)
		})

		// clients are managed from the leads screen
		r.Route("/clients", func(cr chi.Router) {
			cr.Use(rbac.RequireModule(auth.ModuleLeads))

			cr.Get("/", h.Client.ListClients)
			cr.Post("/", h.Client.CreateClient)
			cr.Get("/{id}", h.Client.GetClient)
			cr.Patch("/{id}", h.Client.UpdateClient)
			cr.Delete("/{id}", h.Client.DeleteClient)
		})
	})
}
