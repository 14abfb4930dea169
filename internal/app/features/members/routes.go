// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/quorum/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the membership endpoints under /workspaces/{slug}/members.
// The parent router enforces sign-in.
func Routes(h *Handler, g *guard.Guardrails) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Put("/{uid}/role", g.Wrap(guard.Options{
		RouteID: "members.role",
	}, h.HandleSetRole))
	r.Delete("/{uid}", g.Wrap(guard.Options{
		RouteID: "members.remove",
	}, h.HandleRemove))

	return r
}
