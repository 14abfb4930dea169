// internal/app/system/workspace/workspace.go

// Package workspace resolves slugs to workspaces and answers access
// questions for signed-in users.
//
// The workspace_slugs registry is the source of truth for slug ownership;
// the slug field on the workspace document is a denormalized convenience.
// Resolution goes through the registry so a stale denormalized slug can
// never grant access under a name the registry has reassigned.
package workspace

import (
	"context"
	"errors"
	"fmt"

	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	slugstore "github.com/dalemusser/quorum/internal/app/store/slugs"
	workspacestore "github.com/dalemusser/quorum/internal/app/store/workspaces"
	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("workspace not found")
	ErrNoAccess = errors.New("user is not a member of this workspace")
)

// AsAPIError maps resolver sentinels to typed API errors; other errors
// pass through unchanged.
func AsAPIError(err error) error {
	switch err {
	case ErrNotFound:
		return apierr.Wrap(apierr.KindNotFound, "workspace not found", err)
	case ErrNoAccess:
		return apierr.Wrap(apierr.KindAuthorization, "not a member of this workspace", err)
	}
	return err
}

// Resolver turns slugs into workspaces and checks membership.
type Resolver struct {
	slugs       *slugstore.Store
	workspaces  *workspacestore.Store
	memberships *membershipstore.Store
	log         *zap.Logger
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(slugs *slugstore.Store, workspaces *workspacestore.Store, memberships *membershipstore.Store, log *zap.Logger) *Resolver {
	return &Resolver{slugs: slugs, workspaces: workspaces, memberships: memberships, log: log}
}

// ResolveBySlug returns the workspace the registry maps the slug to.
//
// A mapping that points at a missing workspace is a dangling reference:
// two documents that must agree no longer do. That is reported as a data
// integrity fault, not a not-found, so it surfaces as a 500 and gets
// operator attention instead of silently looking like deleted data.
func (r *Resolver) ResolveBySlug(ctx context.Context, slug string) (models.Workspace, error) {
	m, err := r.slugs.Get(ctx, slug)
	if err != nil {
		if err == slugstore.ErrNotFound {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}

	ws, err := r.workspaces.GetByID(ctx, m.WorkspaceID)
	if err != nil {
		if err == workspacestore.ErrNotFound {
			r.log.Error("slug mapping points at missing workspace",
				zap.String("slug", slug),
				zap.String("workspace_id", m.WorkspaceID.Hex()))
			return models.Workspace{}, apierr.New(apierr.KindIntegrity,
				fmt.Sprintf("slug %q maps to a missing workspace", slug))
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// UserCanAccess reports whether uid holds an active membership in the
// workspace, returning the membership for role checks.
func (r *Resolver) UserCanAccess(ctx context.Context, workspaceID, uid primitive.ObjectID) (models.Membership, error) {
	m, err := r.memberships.Get(ctx, workspaceID, uid)
	if err != nil {
		if err == membershipstore.ErrNotFound {
			return models.Membership{}, ErrNoAccess
		}
		return models.Membership{}, err
	}
	if m.Status != models.MembershipActive {
		return models.Membership{}, ErrNoAccess
	}
	return m, nil
}

// ResolveAccessibleForUser resolves the slug and verifies the user's
// membership in one call. This is the standard entry point for
// workspace-scoped handlers.
func (r *Resolver) ResolveAccessibleForUser(ctx context.Context, slug string, uid primitive.ObjectID) (models.Workspace, models.Membership, error) {
	ws, err := r.ResolveBySlug(ctx, slug)
	if err != nil {
		return models.Workspace{}, models.Membership{}, err
	}
	m, err := r.UserCanAccess(ctx, ws.ID, uid)
	if err != nil {
		return models.Workspace{}, models.Membership{}, err
	}
	return ws, m, nil
}
