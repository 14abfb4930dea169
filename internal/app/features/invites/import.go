// internal/app/features/invites/import.go
package invites

import (
	"context"
	"net/http"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auth"
	"github.com/dalemusser/quorum/internal/app/system/authz"
	"github.com/dalemusser/quorum/internal/app/system/csvutil"
	"github.com/dalemusser/quorum/internal/app/system/normalize"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type importSkip struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type importResponse struct {
	Created int          `json:"created"`
	Skipped []importSkip `json:"skipped,omitempty"`
}

// HandleImport handles POST /workspaces/{slug}/invites/import. The body
// is a multipart upload with a "file" field of "full name,email,role"
// rows. The file is pre-scanned in full before any invite is created, so
// a bad row rejects the whole upload instead of half-applying it.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r)
	if !ok {
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
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

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		apierr.WriteError(w, apierr.Validation("upload must be a multipart form with a csv file"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		apierr.WriteError(w, apierr.Validation(`upload is missing the "file" field`))
		return
	}
	defer file.Close()

	result, err := csvutil.ParseInviteCSV(file, csvutil.ParseOptions{MaxRows: csvutil.MaxRows})
	if err != nil {
		if err == csvutil.ErrTooManyRows {
			apierr.WriteError(w, apierr.Validation("csv has too many rows"))
			return
		}
		apierr.WriteError(w, err)
		return
	}
	if result.HasErrors() {
		apierr.WriteError(w, apierr.Validation(result.FormatErrors(5)))
		return
	}

	// Rows are valid; create invites one at a time. Per-row refusals
	// (already invited, member cap) skip the row rather than failing the
	// batch, since the pre-scan cannot see DB state.
	resp := importResponse{}
	for _, row := range result.Rows {
		inv, err := h.Invites.Create(ctx, ws, normalize.Email(row.Email), row.Role, uid, 0)
		if err != nil {
			resp.Skipped = append(resp.Skipped, importSkip{
				Email:  normalize.Email(row.Email),
				Reason: translateInviteErr(err).Error(),
			})
			continue
		}
		resp.Created++
		h.sendInviteEmail(ctx, inv)
	}

	h.Log.Info("invite import",
		zap.String("slug", ws.Slug),
		zap.Int("created", resp.Created),
		zap.Int("skipped", len(resp.Skipped)))
	apierr.WriteJSON(w, http.StatusOK, resp)
}
