// Package server assembles the HTTP router: middleware chain, public auth
// routes, and the authenticated /api/v1 surface with its role allowlists.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	otelmetric "go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	authhandler "ticketdesk/backend/internal/auth/handler"
	categoryhandler "ticketdesk/backend/internal/category/handler"
	commenthandler "ticketdesk/backend/internal/comment/handler"
	"ticketdesk/backend/internal/events"
	"ticketdesk/backend/internal/platform/web"
	"ticketdesk/backend/internal/security"
	"ticketdesk/backend/internal/server/middleware"
	tickethandler "ticketdesk/backend/internal/ticket/handler"
	userdomain "ticketdesk/backend/internal/user/domain"
	userhandler "ticketdesk/backend/internal/user/handler"
)

// Handlers groups the per-module HTTP handlers mounted on the router.
type Handlers struct {
	Auth       *authhandler.Handler
	Users      *userhandler.Handler
	Tickets    *tickethandler.Handler
	Categories *categoryhandler.Handler
	Comments   *commenthandler.Handler
}

// NewRouter builds the full route tree. producer may be nil to disable
// request events; tracer and meter may be no-ops.
func NewRouter(
	tokens *security.TokenProvider,
	producer events.Producer,
	tracer oteltrace.Tracer,
	meter otelmetric.Meter,
	h Handlers,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.ClientIPMiddleware)
	r.Use(middleware.Telemetry(tracer, meter))
	r.Use(middleware.RequestEvents(producer))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		// Refresh and logout authenticate with the refresh token itself.
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)
	})

	authenticate := middleware.Authenticate(tokens)
	adminOnly := middleware.RequireRoles(userdomain.RoleAdmin)
	adminOrAgent := middleware.RequireRoles(userdomain.RoleAdmin, userdomain.RoleAgent)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", h.Users.Me)
			r.With(adminOnly).Get("/", h.Users.List)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", h.Tickets.Create)
			r.With(adminOnly).Get("/all", h.Tickets.ListAll)
			r.With(adminOrAgent).Get("/assigned", h.Tickets.ListAssigned)
			r.Get("/me", h.Tickets.ListMine)
			r.With(adminOnly).Post("/assign", h.Tickets.Assign)
			r.Get("/{id}", h.Tickets.Get)
			r.With(adminOrAgent).Patch("/{id}", h.Tickets.Update)
			r.With(adminOnly).Delete("/{id}", h.Tickets.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.Categories.Create)
			r.Get("/", h.Categories.List)
			r.Get("/{id}", h.Categories.Get)
			r.With(adminOnly).Patch("/{id}", h.Categories.Update)
			r.With(adminOnly).Delete("/{id}", h.Categories.Delete)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Post("/", h.Comments.Create)
			r.Get("/", h.Comments.List)
			r.Get("/{id}", h.Comments.Get)
			// Author-or-admin rules are enforced by the access policy inside
			// the handler, not by a role allowlist.
			r.Patch("/{id}", h.Comments.Update)
			r.Delete("/{id}", h.Comments.Delete)
		})
	})

	return r
}
