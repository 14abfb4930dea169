// internal/app/features/meetings/handler.go

// Package meetings serves workspace meeting CRUD. Minutes are
// user-authored rich text, sanitized before storage.
package meetings

import (
	"context"
	"net/http"
	"time"

	meetingstore "github.com/dalemusser/quorum/internal/app/store/meetings"
	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/authz"
	"github.com/dalemusser/quorum/internal/app/system/htmlsanitize"
	"github.com/dalemusser/quorum/internal/app/system/inputval"
	"github.com/dalemusser/quorum/internal/app/system/normalize"
	"github.com/dalemusser/quorum/internal/app/system/paging"
	"github.com/dalemusser/quorum/internal/app/system/reqjson"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/timezones"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Handler provides meeting HTTP handlers.
type Handler struct {
	Resolver *workspace.Resolver
	Meetings *meetingstore.Store
	Log      *zap.Logger
}

// NewHandler creates a meetings Handler.
func NewHandler(resolver *workspace.Resolver, meetings *meetingstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Resolver: resolver, Meetings: meetings, Log: logger}
}

type meetingRequest struct {
	Title        string     `json:"title" validate:"required,max=160" label:"Title"`
	Minutes      string     `json:"minutes"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	TimeZone     string     `json:"time_zone"`
}

// validTimeZone accepts an empty zone or one from the curated list.
func validTimeZone(tz string) error {
	if tz != "" && !timezones.Valid(tz) {
		return apierr.Validation("unknown time zone")
	}
	return nil
}

// HandleCreate handles POST /workspaces/{slug}/meetings.
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
		apierr.WriteError(w, apierr.Forbidden("viewers cannot create meetings"))
		return
	}

	var req meetingRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if v := inputval.Validate(req); v.HasErrors() {
		apierr.WriteError(w, apierr.Validation(v.First()))
		return
	}
	if err := validTimeZone(req.TimeZone); err != nil {
		apierr.WriteError(w, err)
		return
	}

	meeting, err := h.Meetings.Create(ctx, models.Meeting{
		WorkspaceID:  ws.ID,
		Title:        normalize.Name(req.Title),
		Minutes:      htmlsanitize.Sanitize(req.Minutes),
		ScheduledFor: req.ScheduledFor,
		TimeZone:     req.TimeZone,
		CreatedBy:    uid,
	})
	if err != nil {
		h.Log.Error("meeting create failed", zap.String("slug", ws.Slug), zap.Error(err))
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, meeting)
}

type listResponse struct {
	Meetings   []models.Meeting `json:"meetings"`
	HasPrev    bool             `json:"has_prev"`
	HasNext    bool             `json:"has_next"`
	PrevCursor string           `json:"prev_cursor,omitempty"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ServeList handles GET /workspaces/{slug}/meetings with an optional
// ?status= filter. Results are keyset-paged over title: pass the
// returned next_cursor as ?after= (or prev_cursor as ?before=) to walk
// the list.
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

	before := r.URL.Query().Get("before")
	after := r.URL.Query().Get("after")

	filter := bson.M{"workspace_id": ws.ID}
	if status := normalize.Status(r.URL.Query().Get("status")); status != "" {
		filter["status"] = status
	}

	findOpts := options.Find()
	cfg := paging.ConfigureKeyset(before, after)
	cfg.ApplyToFind(findOpts, "title_ci")
	if window := cfg.KeysetWindow("title_ci"); window != nil {
		filter["$or"] = window["$or"]
	}

	meetings, err := h.Meetings.Find(ctx, filter, findOpts)
	if err != nil {
		h.Log.Error("meeting list failed", zap.String("slug", ws.Slug), zap.Error(err))
		apierr.WriteError(w, err)
		return
	}

	page := paging.TrimPage(&meetings, before, after)
	if before != "" {
		paging.Reverse(meetings)
	}
	prev, next := paging.BuildCursors(meetings,
		func(m models.Meeting) string { return m.TitleCI },
		func(m models.Meeting) primitive.ObjectID { return m.ID })

	apierr.WriteJSON(w, http.StatusOK, listResponse{
		Meetings:   meetings,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		PrevCursor: prev,
		NextCursor: next,
	})
}

// ServeGet handles GET /workspaces/{slug}/meetings/{id}.
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

	meeting, err := h.Meetings.GetByID(ctx, ws.ID, id)
	if err != nil {
		if err == meetingstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("meeting not found"))
			return
		}
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, meeting)
}

// HandleUpdate handles PUT /workspaces/{slug}/meetings/{id}.
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
		apierr.WriteError(w, apierr.Forbidden("viewers cannot edit meetings"))
		return
	}
	id, err := idParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req meetingRequest
	if err := reqjson.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if err := validTimeZone(req.TimeZone); err != nil {
		apierr.WriteError(w, err)
		return
	}

	err = h.Meetings.Update(ctx, ws.ID, id, models.Meeting{
		Title:        normalize.Name(req.Title),
		Minutes:      htmlsanitize.Sanitize(req.Minutes),
		ScheduledFor: req.ScheduledFor,
		TimeZone:     req.TimeZone,
	})
	if err != nil {
		if err == meetingstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("meeting not found"))
			return
		}
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// HandleSetStatus handles POST /workspaces/{slug}/meetings/{id}/status:
// archive or restore. Manager tier only.
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

	if err := h.Meetings.SetStatus(ctx, ws.ID, id, status); err != nil {
		if err == meetingstore.ErrNotFound {
			apierr.WriteError(w, apierr.NotFound("meeting not found"))
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
		return primitive.NilObjectID, apierr.Validation("invalid meeting id")
	}
	return id, nil
}
