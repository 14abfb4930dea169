// internal/app/system/provision/provision.go

// Package provision allocates workspace slugs and creates workspace,
// membership, and profile state atomically.
//
// The store has no native unique index across collections, so uniqueness
// is the workspace_slugs registry document itself: the normalized slug is
// the document key, and claiming it happens inside a read-before-write
// transaction. Two concurrent claims contend on the same document and
// commit-time validation lets exactly one through; the loser surfaces
// ErrSlugTaken rather than retrying with the same slug.
package provision

import (
	"context"
	"errors"
	"fmt"

	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	slugstore "github.com/dalemusser/quorum/internal/app/store/slugs"
	workspacestore "github.com/dalemusser/quorum/internal/app/store/workspaces"
	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/limits"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/txn"
	"github.com/dalemusser/quorum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrSlugTaken       = errors.New("workspace slug is already taken")
	ErrMembershipLimit = errors.New("workspace membership limit reached")
	ErrOwnedLimit      = errors.New("owned workspace limit reached")
	ErrNotOwner        = errors.New("only an owner may rename a workspace")
)

// Provisioner creates and renames workspaces.
type Provisioner struct {
	client      *mongo.Client
	slugs       *slugstore.Store
	workspaces  *workspacestore.Store
	memberships *membershipstore.Store
	profiles    *profilestore.Store
	log         *zap.Logger
}

// New creates a Provisioner.
func New(client *mongo.Client, slugs *slugstore.Store, workspaces *workspacestore.Store, memberships *membershipstore.Store, profiles *profilestore.Store, log *zap.Logger) *Provisioner {
	return &Provisioner{
		client:      client,
		slugs:       slugs,
		workspaces:  workspaces,
		memberships: memberships,
		profiles:    profiles,
		log:         log,
	}
}

// Result reports what Provision produced.
type Result struct {
	Workspace models.Workspace
	Created   bool // false when an existing workspace was reused or adopted
}

// Provision gives uid a workspace under the normalized slug. Callers
// normalize and validate the slug first.
//
// Inside one transaction, all reads happen before any write:
//  1. the slug mapping, the requester's profile, the requester's
//     membership and workspace counts, and any legacy workspace carrying
//     the slug as a plain field;
//  2. branch on ownership: reuse a mapping the requester owns, adopt a
//     legacy collision the requester owns (backfilling the mapping),
//     create fresh when the slug is free, fail ErrSlugTaken otherwise;
//  3. quotas checked before any write;
//  4. merge-write workspace, owner membership, mapping, and profile.
func (p *Provisioner) Provision(ctx context.Context, uid primitive.ObjectID, slug, name, planTier string) (Result, error) {
	out, err := txn.WithTransaction(ctx, p.client, func(sc mongo.SessionContext) (interface{}, error) {
		// Reads.
		mapping, err := p.slugs.Get(sc, slug)
		haveMapping := err == nil
		if err != nil && err != slugstore.ErrNotFound {
			return nil, err
		}

		var target models.Workspace
		created := false

		switch {
		case haveMapping:
			target, err = p.workspaces.GetByID(sc, mapping.WorkspaceID)
			if err != nil {
				if err == workspacestore.ErrNotFound {
					// dangling mapping: two documents that must agree no
					// longer do, so surface it, never repair over it
					p.log.Error("slug mapping points at missing workspace",
						zap.String("slug", slug),
						zap.String("workspace_id", mapping.WorkspaceID.Hex()))
					return nil, apierr.New(apierr.KindIntegrity,
						fmt.Sprintf("slug %q maps to a missing workspace", slug))
				}
				return nil, err
			}
			if target.CreatedBy != uid {
				return nil, ErrSlugTaken
			}

		default:
			// Legacy-data collision: a workspace may carry the slug as a
			// plain field without a registry document.
			legacy, err := p.workspaces.GetBySlugField(sc, slug)
			switch {
			case err == nil && legacy.CreatedBy == uid:
				target = legacy
			case err == nil:
				return nil, ErrSlugTaken
			case err == workspacestore.ErrNotFound:
				target = models.Workspace{
					ID:        primitive.NewObjectID(),
					Name:      name,
					Slug:      slug,
					CreatedBy: uid,
					PlanTier:  planTier,
				}
				created = true
			default:
				return nil, err
			}
		}

		_, memberErr := p.memberships.Get(sc, target.ID, uid)
		isMember := memberErr == nil
		if memberErr != nil && memberErr != membershipstore.ErrNotFound {
			return nil, memberErr
		}

		profile, err := p.profiles.Get(sc, uid)
		if err != nil && err != profilestore.ErrNotFound {
			return nil, err
		}

		// Quotas, before any write.
		if !isMember {
			n, err := p.memberships.CountForUser(sc, uid)
			if err != nil {
				return nil, err
			}
			if n >= limits.MaxWorkspacesPerUser {
				return nil, ErrMembershipLimit
			}
		}
		if created {
			owned, err := p.workspaces.CountOwnedBasic(sc, uid)
			if err != nil {
				return nil, err
			}
			if owned >= limits.MaxOwnedBasicWorkspaces {
				return nil, ErrOwnedLimit
			}
		}

		// Writes.
		target.Name = name
		target.Slug = slug
		if planTier != "" {
			target.PlanTier = planTier
		}
		if err := p.workspaces.Upsert(sc, target); err != nil {
			return nil, err
		}
		if !isMember {
			if _, err := p.memberships.Create(sc, models.Membership{
				WorkspaceID: target.ID,
				UserID:      uid,
				Role:        models.RoleOwner,
			}); err != nil && err != membershipstore.ErrDuplicate {
				return nil, err
			}
		}
		if err := p.slugs.Put(sc, models.SlugMapping{
			Slug:        slug,
			WorkspaceID: target.ID,
			CreatedBy:   uid,
		}); err != nil {
			return nil, err
		}
		if err := p.profiles.JoinWorkspace(sc, uid, target.ID, slug, profile.DefaultWorkspaceID != nil); err != nil {
			return nil, err
		}

		return Result{Workspace: target, Created: created}, nil
	})
	if err != nil {
		if txn.IsConflict(err) {
			// lost the race for the mapping document
			return Result{}, ErrSlugTaken
		}
		return Result{}, err
	}
	return out.(Result), nil
}

// Rename moves a workspace to a new normalized slug. Owner only.
//
// The transaction claims the new mapping, updates the denormalized slug,
// and deletes the old mapping only if it still points at this workspace.
// The profile fan-out runs after commit, best-effort and non-transactional:
// a workspace can have more members than fit in one bounded transaction,
// so stale cached slugs heal on the next authoritative lookup instead.
func (p *Provisioner) Rename(ctx context.Context, uid primitive.ObjectID, ws models.Workspace, newSlug string) (models.Workspace, error) {
	oldSlug := ws.Slug

	out, err := txn.WithTransaction(ctx, p.client, func(sc mongo.SessionContext) (interface{}, error) {
		m, err := p.memberships.Get(sc, ws.ID, uid)
		if err != nil {
			if err == membershipstore.ErrNotFound {
				return nil, ErrNotOwner
			}
			return nil, err
		}
		if m.Role != models.RoleOwner {
			return nil, ErrNotOwner
		}

		existing, err := p.slugs.Get(sc, newSlug)
		if err == nil && existing.WorkspaceID != ws.ID {
			return nil, ErrSlugTaken
		}
		if err != nil && err != slugstore.ErrNotFound {
			return nil, err
		}

		if err := p.slugs.Put(sc, models.SlugMapping{
			Slug:        newSlug,
			WorkspaceID: ws.ID,
			CreatedBy:   uid,
		}); err != nil {
			return nil, err
		}
		if err := p.workspaces.SetSlug(sc, ws.ID, newSlug); err != nil {
			return nil, err
		}
		if oldSlug != "" && oldSlug != newSlug {
			if err := p.slugs.DeleteIfOwnedBy(sc, oldSlug, ws.ID); err != nil {
				return nil, err
			}
		}

		ws.Slug = newSlug
		return ws, nil
	})
	if err != nil {
		if txn.IsConflict(err) {
			return models.Workspace{}, ErrSlugTaken
		}
		return models.Workspace{}, err
	}
	renamed := out.(models.Workspace)

	p.fanOutSlugChange(ctx, ws.ID, oldSlug, newSlug)
	return renamed, nil
}

// fanOutSlugChange rewrites the cached slug in every member's profile.
// Failures are logged, never surfaced: the rename already committed.
func (p *Provisioner) fanOutSlugChange(ctx context.Context, workspaceID primitive.ObjectID, oldSlug, newSlug string) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), p.log, "slug fan-out")
	defer cancel()

	members, err := p.memberships.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		p.log.Warn("slug fan-out: listing members failed",
			zap.String("workspace_id", workspaceID.Hex()),
			zap.Error(err))
		return
	}
	uids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		uids = append(uids, m.UserID)
	}
	if err := p.profiles.ReplaceSlugForMembers(ctx, uids, oldSlug, newSlug); err != nil {
		p.log.Warn("slug fan-out: profile update failed",
			zap.String("workspace_id", workspaceID.Hex()),
			zap.String("new_slug", newSlug),
			zap.Error(err))
	}
}
