// internal/app/features/actions/routes.go
package actions

import (
	"github.com/dalemusser/quorum/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the action-item endpoints under /workspaces/{slug}/actions.
// The parent router enforces sign-in.
func Routes(h *Handler, g *guard.Guardrails) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Post("/", g.Wrap(guard.Options{RouteID: "actions.create"}, h.HandleCreate))
	r.Put("/{id}", g.Wrap(guard.Options{RouteID: "actions.update"}, h.HandleUpdate))
	r.Post("/{id}/status", g.Wrap(guard.Options{RouteID: "actions.status"}, h.HandleSetStatus))

	return r
}
