// internal/app/features/workspaces/routes.go
package workspaces

import (
	"time"

	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Subroutes are the workspace-scoped feature routers nested under
// /workspaces/{slug}. They inherit RequireSignedIn from this router.
type Subroutes struct {
	Members   chi.Router
	Invites   chi.Router
	Meetings  chi.Router
	Decisions chi.Router
	Actions   chi.Router
}

// Routes mounts the workspace endpoints and the nested feature routers.
// Rename claims a slug, so it shares provisioning's tight cap.
func Routes(h *Handler, sm *auth.SessionManager, g *guard.Guardrails, sub Subroutes) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Route("/{slug}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Post("/rename", g.Wrap(guard.Options{
			RouteID: "workspaces.rename",
			Limit:   10,
			Window:  time.Minute,
		}, h.HandleRename))

		r.Mount("/members", sub.Members)
		r.Mount("/invites", sub.Invites)
		r.Mount("/meetings", sub.Meetings)
		r.Mount("/decisions", sub.Decisions)
		r.Mount("/actions", sub.Actions)
	})

	return r
}
