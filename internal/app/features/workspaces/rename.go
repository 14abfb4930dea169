// internal/app/features/workspaces/rename.go
package workspaces

import (
	"context"
	"net/http"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/normalize"
	"github.com/dalemusser/quorum/internal/app/system/provision"
	"github.com/dalemusser/quorum/internal/app/system/reqjson"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type renameRequest struct {
	Slug string `json:"slug"`
}

// HandleRename handles POST /workspaces/{slug}/rename. The old slug is
// released only if it still points at this workspace, and member
// profiles are updated best-effort after the commit.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	ws, _, err := h.Resolver.ResolveAccessibleForUser(ctx, slugParam(r), uid)
	if err != nil {
		apierr.WriteError(w, workspace.AsAPIError(err))
		return
	}

	var req renameRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	newSlug, err := normalize.Slug(req.Slug)
	if err != nil {
		apierr.WriteError(w, apierr.Validation(err.Error()))
		return
	}

	renamed, err := h.Provisioner.Rename(ctx, uid, ws, newSlug)
	if err != nil {
		switch err {
		case provision.ErrSlugTaken:
			apierr.WriteError(w, apierr.Wrap(apierr.KindConflict, "workspace slug is already taken", err))
		case provision.ErrNotOwner:
			apierr.WriteError(w, apierr.Wrap(apierr.KindAuthorization, "only an owner may rename a workspace", err))
		default:
			h.Log.Error("workspace rename failed",
				zap.String("slug", ws.Slug), zap.Error(err))
			apierr.WriteError(w, err)
		}
		return
	}

	h.Log.Info("workspace renamed",
		zap.String("old_slug", ws.Slug),
		zap.String("new_slug", newSlug),
		zap.String("uid", uid.Hex()))
	apierr.WriteJSON(w, http.StatusOK, renamed)
}

// slugParam reads the {slug} URL parameter.
func slugParam(r *http.Request) string {
	return chi.URLParam(r, "slug")
}
