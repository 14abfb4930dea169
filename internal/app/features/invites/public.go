// internal/app/features/invites/public.go
package invites

import (
	"context"
	"net/http"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// publicInvite is the token-lookup view: enough for the invited party to
// decide, nothing a third party could abuse. The token itself is never
// echoed back.
type publicInvite struct {
	WorkspaceSlug string              `json:"workspace_slug"`
	WorkspaceName string              `json:"workspace_name"`
	Email         string              `json:"email"`
	Role          models.Role         `json:"role"`
	Status        models.InviteStatus `json:"status"`
}

// ServeGet handles GET /invites/{token}. The reported status is computed:
// a stored-pending invite past expiry reads as expired.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inv, err := h.Invites.GetByToken(ctx, chi.URLParam(r, "token"))
	if err != nil {
		apierr.WriteError(w, translateInviteErr(err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, publicInvite{
		WorkspaceSlug: inv.WorkspaceSlug,
		WorkspaceName: inv.WorkspaceName,
		Email:         inv.Email,
		Role:          inv.Role,
		Status:        inv.Status,
	})
}

type acceptResponse struct {
	Membership    models.Membership `json:"membership"`
	WorkspaceSlug string            `json:"workspace_slug"`
	AlreadyMember bool              `json:"already_member"`
}

// HandleAccept handles POST /invites/{token}/accept. Safe to retry: a
// second accept by the now-member identity succeeds with
// already_member=true.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	uid, uidOK := auth.UserID(r)
	if !ok || !uidOK {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Invites.Accept(ctx, chi.URLParam(r, "token"), uid, u.Email)
	if err != nil {
		apierr.WriteError(w, translateInviteErr(err))
		return
	}

	h.Log.Info("invite accepted",
		zap.String("slug", res.Invite.WorkspaceSlug),
		zap.String("uid", uid.Hex()),
		zap.Bool("already_member", res.AlreadyMember))
	apierr.WriteJSON(w, http.StatusOK, acceptResponse{
		Membership:    res.Membership,
		WorkspaceSlug: res.Invite.WorkspaceSlug,
		AlreadyMember: res.AlreadyMember,
	})
}

// HandleReject handles POST /invites/{token}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	uid, uidOK := auth.UserID(r)
	if !ok || !uidOK {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inv, err := h.Invites.Reject(ctx, chi.URLParam(r, "token"), uid, u.Email)
	if err != nil {
		apierr.WriteError(w, translateInviteErr(err))
		return
	}

	h.Log.Info("invite rejected",
		zap.String("slug", inv.WorkspaceSlug),
		zap.String("uid", uid.Hex()))
	apierr.WriteJSON(w, http.StatusOK, map[string]models.InviteStatus{"status": inv.Status})
}
