// internal/app/features/meetings/routes.go
package meetings

import (
	"github.com/dalemusser/quorum/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the meeting endpoints under /workspaces/{slug}/meetings.
// The parent router enforces sign-in.
func Routes(h *Handler, g *guard.Guardrails) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Post("/", g.Wrap(guard.Options{RouteID: "meetings.create"}, h.HandleCreate))
	r.Put("/{id}", g.Wrap(guard.Options{RouteID: "meetings.update"}, h.HandleUpdate))
	r.Post("/{id}/status", g.Wrap(guard.Options{RouteID: "meetings.status"}, h.HandleSetStatus))

	return r
}
