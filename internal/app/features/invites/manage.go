// internal/app/features/invites/manage.go
package invites

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/authz"
	"github.com/dalemusser/quorum/internal/app/system/inputval"
	"github.com/dalemusser/quorum/internal/app/system/normalize"
	"github.com/dalemusser/quorum/internal/app/system/reqjson"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
	Role  string `json:"role" validate:"required" label:"Role"`
	// TTLDays overrides the default expiry when positive.
	TTLDays int `json:"ttl_days"`
}

type inviteResponse struct {
	Invite models.Invite `json:"invite"`
	// Token is only returned to the creator, once. The store never
	// serializes it in listings.
	Token string `json:"token,omitempty"`
}

// HandleCreate handles POST /workspaces/{slug}/invites. Manager tier only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, m, err := h.Resolver.ResolveAccessibleForUser(ctx, chi.URLParam(r, "slug"), uid)
	if err != nil {
		apierr.WriteError(w, workspace.AsAPIError(err))
		return
	}
	if !authz.CanManageMembers(m.Role) {
		apierr.WriteError(w, apierr.Forbidden("requires owner or admin role"))
		return
	}

	var req createRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if v := inputval.Validate(req); v.HasErrors() {
		apierr.WriteError(w, apierr.Validation(v.First()))
		return
	}
	role, err := models.ParseMemberRole(req.Role)
	if err != nil {
		apierr.WriteError(w, apierr.Validation(err.Error()))
		return
	}

	var ttl time.Duration
	if req.TTLDays > 0 {
		ttl = time.Duration(req.TTLDays) * 24 * time.Hour
	}

	inv, err := h.Invites.Create(ctx, ws, normalize.Email(req.Email), role, uid, ttl)
	if err != nil {
		apierr.WriteError(w, translateInviteErr(err))
		return
	}

	h.sendInviteEmail(ctx, inv)

	h.Log.Info("invite created",
		zap.String("slug", ws.Slug),
		zap.String("invite_id", inv.ID.Hex()),
		zap.String("role", string(role)))
	apierr.WriteJSON(w, http.StatusCreated, inviteResponse{Invite: inv, Token: inv.Token})
}

// ServeList handles GET /workspaces/{slug}/invites. Manager tier only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, m, err := h.Resolver.ResolveAccessibleForUser(ctx, chi.URLParam(r, "slug"), uid)
	if err != nil {
		apierr.WriteError(w, workspace.AsAPIError(err))
		return
	}
	if !authz.CanManageMembers(m.Role) {
		apierr.WriteError(w, apierr.Forbidden("requires owner or admin role"))
		return
	}

	invs, err := h.Invites.ListByWorkspace(ctx, ws.ID)
	if err != nil {
		h.Log.Error("invite list failed", zap.String("slug", ws.Slug), zap.Error(err))
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string][]models.Invite{"invites": invs})
}

// HandleRevoke handles DELETE /workspaces/{slug}/invites/{id}. Manager
// tier only; revocation only applies to pending invites.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, m, err := h.Resolver.ResolveAccessibleForUser(ctx, chi.URLParam(r, "slug"), uid)
	if err != nil {
		apierr.WriteError(w, workspace.AsAPIError(err))
		return
	}
	if !authz.CanManageMembers(m.Role) {
		apierr.WriteError(w, apierr.Forbidden("requires owner or admin role"))
		return
	}

	inviteID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.WriteError(w, apierr.Validation("invalid invite id"))
		return
	}

	inv, err := h.Invites.Revoke(ctx, ws.ID, inviteID, uid)
	if err != nil {
		apierr.WriteError(w, translateInviteErr(err))
		return
	}

	h.Log.Info("invite revoked",
		zap.String("slug", ws.Slug),
		zap.String("invite_id", inv.ID.Hex()))
	apierr.WriteJSON(w, http.StatusOK, inviteResponse{Invite: inv})
}
