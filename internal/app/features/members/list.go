// internal/app/features/members/list.go
package members

import (
	"context"
	"net/http"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type memberEntry struct {
	Membership models.Membership `json:"membership"`
	Email      string            `json:"email,omitempty"`
}

type listResponse struct {
	Members []memberEntry `json:"members"`
}

// ServeList handles GET /workspaces/{slug}/members. Any member may see
// the roster; emails come from profiles, best-effort.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, _, err := h.Resolver.ResolveAccessibleForUser(ctx, chi.URLParam(r, "slug"), uid)
	if err != nil {
		apierr.WriteError(w, workspace.AsAPIError(err))
		return
	}

	members, err := h.Memberships.ListByWorkspace(ctx, ws.ID)
	if err != nil {
		h.Log.Error("member list failed", zap.String("slug", ws.Slug), zap.Error(err))
		apierr.WriteError(w, err)
		return
	}

	resp := listResponse{Members: make([]memberEntry, 0, len(members))}
	for _, m := range members {
		entry := memberEntry{Membership: m}
		if p, err := h.Profiles.Get(ctx, m.UserID); err == nil {
			entry.Email = p.Email
		}
		resp.Members = append(resp.Members, entry)
	}
	apierr.WriteJSON(w, http.StatusOK, resp)
}
