// internal/app/features/invites/routes.go
package invites

import (
	"time"

	"github.com/dalemusser/quorum/internal/app/system/actor"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// WorkspaceRoutes mounts the manager-facing invite endpoints under
// /workspaces/{slug}/invites. The parent router enforces sign-in.
func WorkspaceRoutes(h *Handler, g *guard.Guardrails) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", g.Wrap(guard.Options{
		RouteID: "invites.create",
		Limit:   20,
		Window:  time.Minute,
	}, h.HandleCreate))
	r.Post("/import", g.Wrap(guard.Options{
		RouteID: "invites.import",
		Limit:   5,
		Window:  time.Minute,
	}, h.HandleImport))
	r.Delete("/{id}", g.Wrap(guard.Options{
		RouteID: "invites.revoke",
	}, h.HandleRevoke))

	return r
}

// PublicRoutes mounts the token-facing endpoints at /invites. Lookup is
// unauthenticated and keyed by IP so token-guessing cannot be spread
// across accounts; accept carries a tight cap for the same reason.
func PublicRoutes(h *Handler, sm *auth.SessionManager, g *guard.Guardrails) chi.Router {
	r := chi.NewRouter()

	r.Get("/{token}", g.Wrap(guard.Options{
		RouteID: "invites.lookup",
		Limit:   30,
		Window:  time.Minute,
		Scope:   actor.ScopeIP,
	}, h.ServeGet))

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Post("/{token}/accept", g.Wrap(guard.Options{
			RouteID: "invites.accept",
			Limit:   10,
			Window:  time.Minute,
		}, h.HandleAccept))
		r.Post("/{token}/reject", g.Wrap(guard.Options{
			RouteID: "invites.reject",
			Limit:   10,
			Window:  time.Minute,
		}, h.HandleReject))
	})

	return r
}
