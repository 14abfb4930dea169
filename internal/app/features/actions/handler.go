// internal/app/features/actions/handler.go

// Package actions serves workspace action-item CRUD: follow-up tasks with
// an assignee, a due date, and an open/done state. Notes are user-authored
// rich text, sanitized before storage.
package actions

import (
	"context"
	"net/http"
	"time"

	actionstore "github.com/dalemusser/quorum/internal/app/store/actions"
	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/authz"
	"github.com/dalemusser/quorum/internal/app/system/htmlsanitize"
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

// Handler provides action-item HTTP handlers.
type Handler struct {
	Resolver    *workspace.Resolver
	Actions     *actionstore.Store
	Memberships *membershipstore.Store
	Log         *zap.Logger
}

// NewHandler creates an actions Handler.
func NewHandler(resolver *workspace.Resolver, actions *actionstore.Store, memberships *membershipstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Resolver: resolver, Actions: actions, Memberships: memberships, Log: logger}
}

type actionRequest struct {
	Title      string     `json:"title" validate:"required,max=160" label:"Title"`
	Notes      string     `json:"notes"`
	AssigneeID string     `json:"assignee_id"`
	DueAt      *time.Time `json:"due_at"`
	State      string     `json:"state"`
}

// resolveAssignee validates an optional assignee against the workspace
// roster: only current members can carry action items.
func (h *Handler) resolveAssignee(ctx context.Context, workspaceID primitive.ObjectID, raw string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	uid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apierr.Validation("invalid assignee id")
	}
	if _, err := h.Memberships.Get(ctx, workspaceID, uid); err != nil {
		if err == membershipstore.ErrNotFound {
			return nil, apierr.Validation("assignee is not a member of this workspace")
		}
		return nil, err
	}
	return &uid, nil
}

func parseState(raw string) (string, error) {
	switch normalize.Status(raw) {
	case "":
		return "", nil
	case models.ActionOpen:
		return models.ActionOpen, nil
	case models.ActionDone:
		return models.ActionDone, nil
	}
	return "", apierr.Validation(`state must be "open" or "done"`)
}

// HandleCreate handles POST /workspaces/{slug}/actions.
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
	if !authz.CanEditContent(m.Role) {
		apierr.WriteError(w, apierr.Forbidden("viewers cannot create action items"))
		return
	}

	var req actionRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if v := inputval.Validate(req); v.HasErrors() {
		apierr.WriteError(w, apierr.Validation(v.First()))
		return
	}
	assignee, err := h.resolveAssignee(ctx, ws.ID, req.AssigneeID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	state, err := parseState(req.State)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	item, err := h.Actions.Create(ctx, models.ActionItem{
		WorkspaceID: ws.ID,
		Title:       normalize.Name(req.Title),
		Notes:       htmlsanitize.Sanitize(req.Notes),
		AssigneeID:  assignee,
		DueAt:       req.DueAt,
		State:       state,
		CreatedBy:   uid,
	})
	if err != nil {
		h.Log.Error("action create failed", zap.String("slug", ws.Slug), zap.Error(err))
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, item)
}

// ServeList handles GET /workspaces/{slug}/actions with an optional
// ?status= filter.
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

	status := normalize.Status(r.URL.Query().Get("status"))
	items, err := h.Actions.ListByWorkspace(ctx, ws.ID, status)
	if err != nil {
		h.Log.Error("action list failed", zap.String("slug", ws.Slug), zap.Error(err))
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string][]models.ActionItem{"actions": items})
}

// ServeGet handles GET /workspaces/{slug}/actions/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
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
	id, err := idParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	item, err := h.Actions.GetByID(ctx, ws.ID, id)
	if err != nil {
		if err == actionstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("action item not found"))
			return
		}
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, item)
}

// HandleUpdate handles PUT /workspaces/{slug}/actions/{id}. Closing or
// reopening an item rides through the state field here.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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
	if !authz.CanEditContent(m.Role) {
		apierr.WriteError(w, apierr.Forbidden("viewers cannot edit action items"))
		return
	}
	id, err := idParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req actionRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	assignee, err := h.resolveAssignee(ctx, ws.ID, req.AssigneeID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	state, err := parseState(req.State)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	err = h.Actions.Update(ctx, ws.ID, id, models.ActionItem{
		Title:      normalize.Name(req.Title),
		Notes:      htmlsanitize.Sanitize(req.Notes),
		AssigneeID: assignee,
		DueAt:      req.DueAt,
		State:      state,
	})
	if err != nil {
		if err == actionstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("action item not found"))
			return
		}
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// HandleSetStatus handles POST /workspaces/{slug}/actions/{id}/status.
// Manager tier only.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
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
	if !authz.CanArchiveRestore(m.Role) {
		apierr.WriteError(w, apierr.Forbidden("requires owner or admin role"))
		return
	}
	id, err := idParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	status := normalize.Status(req.Status)
	if status != models.EntityActive && status != models.EntityArchived {
		apierr.WriteError(w, apierr.Validation(`status must be "active" or "archived"`))
		return
	}

	if err := h.Actions.SetStatus(ctx, ws.ID, id, status); err != nil {
		if err == actionstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("action item not found"))
			return
		}
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apierr.Validation("invalid action item id")
	}
	return id, nil
}
