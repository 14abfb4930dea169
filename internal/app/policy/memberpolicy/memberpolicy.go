// internal/app/policy/memberpolicy/memberpolicy.go

// Package memberpolicy guards every role change and removal so that a
// workspace never loses its last owner.
//
// The pure Check functions decide from counts the caller already read;
// the Guard re-reads those counts inside a transaction before writing,
// because a decision made from a stale owner count is exactly the race
// this package exists to prevent.
package memberpolicy

import (
	"context"
	"errors"

	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	"github.com/dalemusser/quorum/internal/app/system/authz"
	"github.com/dalemusser/quorum/internal/app/system/txn"
	"github.com/dalemusser/quorum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("membership not found")
	ErrSelfChange    = errors.New("cannot modify your own membership")
	ErrNotManager    = errors.New("requires owner or admin role")
	ErrOwnerRequired = errors.New("only an owner may grant or revoke ownership")
	ErrLastOwner     = errors.New("workspace must keep at least one owner")
)

// CheckRoleChange validates changing target's role to newRole, requested
// by an actor holding actorRole. ownerCount is the current number of
// owner memberships in the workspace.
func CheckRoleChange(actorRole models.Role, actorIsTarget bool, target models.Membership, newRole models.Role, ownerCount int64) error {
	if actorIsTarget {
		return ErrSelfChange
	}
	if !authz.IsManager(actorRole) {
		return ErrNotManager
	}
	touchesOwner := target.Role == models.RoleOwner || newRole == models.RoleOwner
	if touchesOwner && actorRole != models.RoleOwner {
		return ErrOwnerRequired
	}
	if target.Role == models.RoleOwner && newRole != models.RoleOwner && ownerCount <= 1 {
		return ErrLastOwner
	}
	return nil
}

// CheckRemoval validates removing target, requested by an actor holding
// actorRole.
func CheckRemoval(actorRole models.Role, actorIsTarget bool, target models.Membership, ownerCount int64) error {
	if actorIsTarget {
		return ErrSelfChange
	}
	if !authz.IsManager(actorRole) {
		return ErrNotManager
	}
	if target.Role == models.RoleOwner {
		if actorRole != models.RoleOwner {
			return ErrOwnerRequired
		}
		if ownerCount <= 1 {
			return ErrLastOwner
		}
	}
	return nil
}

// Guard applies membership mutations transactionally.
type Guard struct {
	client      *mongo.Client
	memberships *membershipstore.Store
	profiles    *profilestore.Store
	log         *zap.Logger
}

// NewGuard creates a Guard.
func NewGuard(client *mongo.Client, memberships *membershipstore.Store, profiles *profilestore.Store, log *zap.Logger) *Guard {
	return &Guard{client: client, memberships: memberships, profiles: profiles, log: log}
}

// ChangeRole sets targetUID's role in the workspace to newRole, requested
// by actorUID. All reads (both memberships, the owner count) happen
// before the single write.
func (g *Guard) ChangeRole(ctx context.Context, workspaceID, actorUID, targetUID primitive.ObjectID, newRole models.Role) (models.Membership, error) {
	out, err := txn.WithTransaction(ctx, g.client, func(sc mongo.SessionContext) (interface{}, error) {
		actor, err := g.memberships.Get(sc, workspaceID, actorUID)
		if err != nil {
			if err == membershipstore.ErrNotFound {
				return nil, ErrNotManager
			}
			return nil, err
		}
		target, err := g.memberships.Get(sc, workspaceID, targetUID)
		if err != nil {
			if err == membershipstore.ErrNotFound {
				return nil, ErrNotFound
			}
			return nil, err
		}
		owners, err := g.memberships.CountOwners(sc, workspaceID)
		if err != nil {
			return nil, err
		}

		if err := CheckRoleChange(actor.Role, actorUID == targetUID, target, newRole, owners); err != nil {
			return nil, err
		}

		if err := g.memberships.SetRole(sc, workspaceID, targetUID, newRole); err != nil {
			return nil, err
		}
		target.Role = newRole
		return target, nil
	})
	if err != nil {
		return models.Membership{}, err
	}
	return out.(models.Membership), nil
}

// Remove deletes targetUID's membership, requested by actorUID, and
// cleans up the removed user's profile. The default-workspace repointing
// is best-effort: it must never fail the removal itself.
func (g *Guard) Remove(ctx context.Context, workspaceID primitive.ObjectID, workspaceSlug string, actorUID, targetUID primitive.ObjectID) error {
	_, err := txn.WithTransaction(ctx, g.client, func(sc mongo.SessionContext) (interface{}, error) {
		actor, err := g.memberships.Get(sc, workspaceID, actorUID)
		if err != nil {
			if err == membershipstore.ErrNotFound {
				return nil, ErrNotManager
			}
			return nil, err
		}
		target, err := g.memberships.Get(sc, workspaceID, targetUID)
		if err != nil {
			if err == membershipstore.ErrNotFound {
				return nil, ErrNotFound
			}
			return nil, err
		}
		owners, err := g.memberships.CountOwners(sc, workspaceID)
		if err != nil {
			return nil, err
		}

		if err := CheckRemoval(actor.Role, actorUID == targetUID, target, owners); err != nil {
			return nil, err
		}

		if err := g.memberships.Delete(sc, workspaceID, targetUID); err != nil {
			return nil, err
		}
		if err := g.profiles.LeaveWorkspace(sc, targetUID, workspaceSlug); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	g.repointDefault(ctx, targetUID, workspaceID)
	return nil
}

// repointDefault moves the removed user's default workspace off the one
// they just left: to another workspace they still belong to, else
// cleared. Runs after commit; failures are logged and dropped.
func (g *Guard) repointDefault(ctx context.Context, uid, removedWorkspaceID primitive.ObjectID) {
	profile, err := g.profiles.Get(ctx, uid)
	if err != nil {
		if err != profilestore.ErrNotFound {
			g.log.Warn("default workspace repoint: profile read failed",
				zap.String("uid", uid.Hex()), zap.Error(err))
		}
		return
	}
	if profile.DefaultWorkspaceID == nil || *profile.DefaultWorkspaceID != removedWorkspaceID {
		return
	}

	next, err := g.memberships.FindAnotherForUser(ctx, uid, removedWorkspaceID)
	switch {
	case err == nil:
		if err := g.profiles.SetDefaultWorkspace(ctx, uid, &next.WorkspaceID); err != nil {
			g.log.Warn("default workspace repoint failed",
				zap.String("uid", uid.Hex()), zap.Error(err))
		}
	case err == membershipstore.ErrNotFound:
		if err := g.profiles.SetDefaultWorkspace(ctx, uid, nil); err != nil {
			g.log.Warn("default workspace clear failed",
				zap.String("uid", uid.Hex()), zap.Error(err))
		}
	default:
		// lookup unavailable: clear rather than leave a dangling default
		if err := g.profiles.SetDefaultWorkspace(ctx, uid, nil); err != nil {
			g.log.Warn("default workspace clear failed",
				zap.String("uid", uid.Hex()), zap.Error(err))
		}
	}
}
