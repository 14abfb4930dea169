// internal/app/features/workspaces/list.go
package workspaces

import (
	"context"
	"net/http"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/dalemusser/quorum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type workspaceEntry struct {
	Workspace models.Workspace `json:"workspace"`
	Role      models.Role      `json:"role"`
}

type listResponse struct {
	Workspaces []workspaceEntry `json:"workspaces"`
}

// ServeList handles GET /workspaces: every workspace the caller belongs
// to, with their role in each. Memberships are authoritative here, not
// the profile's cached slug set.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Memberships.ListForUser(ctx, uid)
	if err != nil {
		h.Log.Error("workspace list: memberships read failed", zap.Error(err))
		apierr.WriteError(w, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	roleByWorkspace := make(map[primitive.ObjectID]models.Role, len(members))
	for _, m := range members {
		ids = append(ids, m.WorkspaceID)
		roleByWorkspace[m.WorkspaceID] = m.Role
	}

	workspaces, err := h.Workspaces.FindByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("workspace list: workspaces read failed", zap.Error(err))
		apierr.WriteError(w, err)
		return
	}

	resp := listResponse{Workspaces: make([]workspaceEntry, 0, len(workspaces))}
	for _, ws := range workspaces {
		resp.Workspaces = append(resp.Workspaces, workspaceEntry{
			Workspace: ws,
			Role:      roleByWorkspace[ws.ID],
		})
	}
	apierr.WriteJSON(w, http.StatusOK, resp)
}

// ServeGet handles GET /workspaces/{slug}: resolve through the registry
// and require membership.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ws, m, err := h.Resolver.ResolveAccessibleForUser(ctx, slugParam(r), uid)
	if err != nil {
		apierr.WriteError(w, workspace.AsAPIError(err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, workspaceEntry{Workspace: ws, Role: m.Role})
}
