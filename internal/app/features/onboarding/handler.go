// internal/app/features/onboarding/handler.go

// Package onboarding takes a freshly authenticated user to their first
// workspace: claim a slug, provision the workspace, and report onboarding
// state.
package onboarding

import (
	"context"
	"net/http"

	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/inputval"
	"github.com/dalemusser/quorum/internal/app/system/normalize"
	"github.com/dalemusser/quorum/internal/app/system/provision"
	"github.com/dalemusser/quorum/internal/app/system/reqjson"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/domain/models"
	"go.uber.org/zap"
)

// Handler provides onboarding HTTP handlers.
type Handler struct {
	Provisioner *provision.Provisioner
	Profiles    *profilestore.Store
	Log         *zap.Logger
}

// NewHandler creates an onboarding Handler.
func NewHandler(p *provision.Provisioner, profiles *profilestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Provisioner: p, Profiles: profiles, Log: logger}
}

type provisionRequest struct {
	Slug     string `json:"slug" validate:"required,max=48" label:"Workspace slug"`
	Name     string `json:"name" validate:"required,max=80" label:"Workspace name"`
	PlanTier string `json:"plan_tier"`
}

type provisionResponse struct {
	Workspace models.Workspace `json:"workspace"`
	Created   bool             `json:"created"`
}

// HandleProvision handles POST /onboarding/workspace.
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	var req provisionRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if v := inputval.Validate(req); v.HasErrors() {
		apierr.WriteError(w, apierr.Validation(v.First()))
		return
	}

	slug, err := normalize.Slug(req.Slug)
	if err != nil {
		apierr.WriteError(w, apierr.Validation(err.Error()))
		return
	}
	name := normalize.Name(req.Name)

	planTier := models.PlanTierBasic
	if req.PlanTier != "" {
		planTier, err = models.ParsePlanTier(req.PlanTier)
		if err != nil {
			apierr.WriteError(w, apierr.Validation(err.Error()))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Provisioner.Provision(ctx, uid, slug, name, planTier)
	if err != nil {
		apierr.WriteError(w, translateProvisionErr(err))
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	h.Log.Info("workspace provisioned",
		zap.String("slug", slug),
		zap.String("uid", uid.Hex()),
		zap.Bool("created", res.Created))
	apierr.WriteJSON(w, status, provisionResponse{Workspace: res.Workspace, Created: res.Created})
}

type statusResponse struct {
	OnboardingCompleted bool     `json:"onboarding_completed"`
	WorkspaceSlugs      []string `json:"workspace_slugs"`
	DefaultWorkspaceID  string   `json:"default_workspace_id,omitempty"`
}

// ServeStatus handles GET /onboarding. A user with no profile yet simply
// has not onboarded.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		if err == profilestore.ErrNotFound {
			apierr.WriteJSON(w, http.StatusOK, statusResponse{})
			return
		}
		h.Log.Error("onboarding status read failed", zap.Error(err))
		apierr.WriteError(w, err)
		return
	}

	resp := statusResponse{
		OnboardingCompleted: p.OnboardingCompleted,
		WorkspaceSlugs:      p.WorkspaceSlugs,
	}
	if p.DefaultWorkspaceID != nil {
		resp.DefaultWorkspaceID = p.DefaultWorkspaceID.Hex()
	}
	apierr.WriteJSON(w, http.StatusOK, resp)
}

// translateProvisionErr maps provisioning sentinels to typed API errors.
func translateProvisionErr(err error) error {
	switch err {
	case provision.ErrSlugTaken:
		return apierr.Wrap(apierr.KindConflict, "workspace slug is already taken", err)
	case provision.ErrMembershipLimit:
		return apierr.Wrap(apierr.KindAuthorization, "workspace membership limit reached", err)
	case provision.ErrOwnedLimit:
		return apierr.Wrap(apierr.KindAuthorization, "owned workspace limit reached", err)
	}
	return err
}
