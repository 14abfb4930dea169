// internal/app/features/decisions/handler.go

// Package decisions serves workspace decision CRUD. A decision may link
// back to the meeting it was made in; the context field is user-authored
// rich text, sanitized before storage.
package decisions

import (
	"context"
	"net/http"

	decisionstore "github.com/dalemusser/quorum/internal/app/store/decisions"
	meetingstore "github.com/dalemusser/quorum/internal/app/store/meetings"
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

// Handler provides decision HTTP handlers.
type Handler struct {
	Resolver  *workspace.Resolver
	Decisions *decisionstore.Store
	Meetings  *meetingstore.Store
	Log       *zap.Logger
}

// NewHandler creates a decisions Handler.
func NewHandler(resolver *workspace.Resolver, decisions *decisionstore.Store, meetings *meetingstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Resolver: resolver, Decisions: decisions, Meetings: meetings, Log: logger}
}

type decisionRequest struct {
	Title     string `json:"title" validate:"required,max=160" label:"Title"`
	Context   string `json:"context"`
	MeetingID string `json:"meeting_id"`
}

// resolveMeetingRef validates an optional meeting reference against this
// workspace, so a decision can never point into another tenant.
func (h *Handler) resolveMeetingRef(ctx context.Context, workspaceID primitive.ObjectID, raw string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apierr.Validation("invalid meeting id")
	}
	if _, err := h.Meetings.GetByID(ctx, workspaceID, id); err != nil {
		if err == meetingstore.ErrNotFound {
			return nil, apierr.Validation("meeting not found in this workspace")
		}
		return nil, err
	}
	return &id, nil
}

// HandleCreate handles POST /workspaces/{slug}/decisions.
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
		apierr.WriteError(w, apierr.Forbidden("viewers cannot create decisions"))
		return
	}

	var req decisionRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if v := inputval.Validate(req); v.HasErrors() {
		apierr.WriteError(w, apierr.Validation(v.First()))
		return
	}
	meetingID, err := h.resolveMeetingRef(ctx, ws.ID, req.MeetingID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	d, err := h.Decisions.Create(ctx, models.Decision{
		WorkspaceID: ws.ID,
		Title:       normalize.Name(req.Title),
		Context:     htmlsanitize.Sanitize(req.Context),
		MeetingID:   meetingID,
		CreatedBy:   uid,
	})
	if err != nil {
		h.Log.Error("decision create failed", zap.String("slug", ws.Slug), zap.Error(err))
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, d)
}

// ServeList handles GET /workspaces/{slug}/decisions with an optional
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
	decisions, err := h.Decisions.ListByWorkspace(ctx, ws.ID, status)
	if err != nil {
		h.Log.Error("decision list failed", zap.String("slug", ws.Slug), zap.Error(err))
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string][]models.Decision{"decisions": decisions})
}

// ServeGet handles GET /workspaces/{slug}/decisions/{id}.
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

	d, err := h.Decisions.GetByID(ctx, ws.ID, id)
	if err != nil {
		if err == decisionstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("decision not found"))
			return
		}
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, d)
}

// HandleUpdate handles PUT /workspaces/{slug}/decisions/{id}.
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
		apierr.WriteError(w, apierr.Forbidden("viewers cannot edit decisions"))
		return
	}
	id, err := idParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req decisionRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	meetingID, err := h.resolveMeetingRef(ctx, ws.ID, req.MeetingID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	err = h.Decisions.Update(ctx, ws.ID, id, models.Decision{
		Title:     normalize.Name(req.Title),
		Context:   htmlsanitize.Sanitize(req.Context),
		MeetingID: meetingID,
	})
	if err != nil {
		if err == decisionstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("decision not found"))
			return
		}
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// HandleSetStatus handles POST /workspaces/{slug}/decisions/{id}/status.
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

	if err := h.Decisions.SetStatus(ctx, ws.ID, id, status); err != nil {
		if err == decisionstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("decision not found"))
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
		return primitive.NilObjectID, apierr.Validation("invalid decision id")
	}
	return id, nil
}
