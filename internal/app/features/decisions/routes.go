// internal/app/features/decisions/routes.go
package decisions

import (
	"github.com/dalemusser/quorum/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the decision endpoints under /workspaces/{slug}/decisions.
// The parent router enforces sign-in.
func Routes(h *Handler, g *guard.Guardrails) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Post("/", g.Wrap(guard.Options{RouteID: "decisions.create"}, h.HandleCreate))
	r.Put("/{id}", g.Wrap(guard.Options{RouteID: "decisions.update"}, h.HandleUpdate))
	r.Post("/{id}/status", g.Wrap(guard.Options{RouteID: "decisions.status"}, h.HandleSetStatus))

	return r
}
