// internal/app/features/onboarding/routes.go
package onboarding

import (
	"time"

	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/guard"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the onboarding endpoints. Provisioning carries a tight
// per-actor cap: slug claiming is the cheapest way to squat names.
func Routes(h *Handler, sm *auth.SessionManager, g *guard.Guardrails) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeStatus)
	r.Post("/workspace", g.Wrap(guard.Options{
		RouteID: "onboarding.provision",
		Limit:   10,
		Window:  time.Minute,
	}, h.HandleProvision))

	return r
}
