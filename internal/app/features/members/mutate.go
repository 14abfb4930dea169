// internal/app/features/members/mutate.go
package members

import (
	"context"
	"net/http"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/reqjson"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type roleRequest struct {
	Role string `json:"role"`
}

// HandleSetRole handles PUT /workspaces/{slug}/members/{uid}/role.
// memberpolicy re-reads both memberships and the owner count inside its
// transaction, so the decision cannot go stale between read and write.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	actorUID, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, _, err := h.Resolver.ResolveAccessibleForUser(ctx, chi.URLParam(r, "slug"), actorUID)
	if err != nil {
		apierr.WriteError(w, workspace.AsAPIError(err))
		return
	}
	targetUID, err := uidParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req roleRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	role, err := models.ParseMemberRole(req.Role)
	if err != nil {
		apierr.WriteError(w, apierr.Validation(err.Error()))
		return
	}

	m, err := h.Guard.ChangeRole(ctx, ws.ID, actorUID, targetUID, role)
	if err != nil {
		apierr.WriteError(w, translatePolicyErr(err))
		return
	}

	h.Log.Info("member role changed",
		zap.String("slug", ws.Slug),
		zap.String("target", targetUID.Hex()),
		zap.String("role", string(role)))
	apierr.WriteJSON(w, http.StatusOK, m)
}

// HandleRemove handles DELETE /workspaces/{slug}/members/{uid}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	actorUID, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, _, err := h.Resolver.ResolveAccessibleForUser(ctx, chi.URLParam(r, "slug"), actorUID)
	if err != nil {
		apierr.WriteError(w, workspace.AsAPIError(err))
		return
	}
	targetUID, err := uidParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := h.Guard.Remove(ctx, ws.ID, ws.Slug, actorUID, targetUID); err != nil {
		apierr.WriteError(w, translatePolicyErr(err))
		return
	}

	h.Log.Info("member removed",
		zap.String("slug", ws.Slug),
		zap.String("target", targetUID.Hex()))
	apierr.WriteJSON(w, http.StatusOK, map[string]bool{"removed": true})
}
