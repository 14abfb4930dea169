// internal/app/features/invites/handler.go

// Package invites serves the invite lifecycle over HTTP: managers create,
// list, and revoke invites inside their workspace; the invited party
// looks up, accepts, or rejects by token on the public routes.
package invites

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	invitesvc "github.com/dalemusser/quorum/internal/app/system/invites"
	"github.com/dalemusser/quorum/internal/app/system/mailer"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/dalemusser/quorum/internal/domain/models"
	"go.uber.org/zap"
)

const siteName = "Quorum"

// Handler provides invite HTTP handlers.
type Handler struct {
	Resolver *workspace.Resolver
	Invites  *invitesvc.Service
	Mail     *mailer.Mailer
	BaseURL  string
	Log      *zap.Logger
}

// NewHandler creates an invites Handler.
func NewHandler(resolver *workspace.Resolver, svc *invitesvc.Service, mail *mailer.Mailer, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{Resolver: resolver, Invites: svc, Mail: mail, BaseURL: baseURL, Log: logger}
}

// sendInviteEmail delivers the invite link to the invited address.
// Best-effort: the invite is already persisted and its token works
// whether or not this email lands.
func (h *Handler) sendInviteEmail(ctx context.Context, inv models.Invite) {
	if !h.Mail.Enabled() {
		return
	}

	days := int(time.Until(inv.ExpiresAt).Hours() / 24)
	if days < 1 {
		days = 1
	}
	e := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:      siteName,
		WorkspaceName: inv.WorkspaceName,
		Role:          string(inv.Role),
		InviteLink:    fmt.Sprintf("%s/invites/%s", h.BaseURL, inv.Token),
		ExpiresIn:     fmt.Sprintf("%d days", days),
	})
	e.To = inv.Email

	if err := h.Mail.Send(ctx, e); err != nil {
		h.Log.Warn("invite email delivery failed",
			zap.String("invite_id", inv.ID.Hex()),
			zap.Error(err))
	}
}

// translateInviteErr maps invite service sentinels to typed API errors.
// Expired gets its own 410 so clients can distinguish "ask for a new
// invite" from "this invite was spent or revoked".
func translateInviteErr(err error) error {
	switch err {
	case invitesvc.ErrNotFound:
		return apierr.Wrap(apierr.KindNotFound, "invite not found", err)
	case invitesvc.ErrNotActive:
		return apierr.Wrap(apierr.KindConflict, "invite is no longer pending", err)
	case invitesvc.ErrExpired:
		return apierr.Wrap(apierr.KindGone, "invite has expired", err)
	case invitesvc.ErrEmailMismatch:
		return apierr.Wrap(apierr.KindAuthorization, "invite was issued to a different email", err)
	case invitesvc.ErrOwnerInvite:
		return apierr.Wrap(apierr.KindValidation, "invites cannot carry the owner role", err)
	case invitesvc.ErrMemberLimit:
		return apierr.Wrap(apierr.KindAuthorization, "workspace member limit reached", err)
	case invitesvc.ErrJoinLimit:
		return apierr.Wrap(apierr.KindAuthorization, "workspace membership limit reached", err)
	}
	return err
}
