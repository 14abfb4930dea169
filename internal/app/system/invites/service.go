// internal/app/system/invites/service.go

// Package invites runs the invite lifecycle: pending is the only
// non-terminal state, transitions are validated against the stored status
// inside the acting transaction, and expiry is computed on read and
// lazily persisted rather than swept by a background job.
package invites

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	invitestore "github.com/dalemusser/quorum/internal/app/store/invites"
	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	"github.com/dalemusser/quorum/internal/app/system/limits"
	"github.com/dalemusser/quorum/internal/app/system/txn"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/quorum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("invite not found")
	ErrNotActive     = errors.New("invite is no longer pending")
	ErrExpired       = errors.New("invite has expired")
	ErrEmailMismatch = errors.New("invite was issued to a different email")
	ErrOwnerInvite   = errors.New("invites cannot carry the owner role")
	ErrMemberLimit   = errors.New("workspace member limit reached")
	ErrJoinLimit     = errors.New("workspace membership limit reached")
)

// Service manages invites for a workspace.
type Service struct {
	client      *mongo.Client
	invites     *invitestore.Store
	memberships *membershipstore.Store
	profiles    *profilestore.Store
	log         *zap.Logger
	now         func() time.Time
}

// New creates the invite Service.
func New(client *mongo.Client, invites *invitestore.Store, memberships *membershipstore.Store, profiles *profilestore.Store, log *zap.Logger) *Service {
	return &Service{
		client:      client,
		invites:     invites,
		memberships: memberships,
		profiles:    profiles,
		log:         log,
		now:         time.Now,
	}
}

// SetClock overrides the service clock. For use in tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// NewToken generates an invite token: 32 bytes of entropy, URL-safe.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create issues an invite for email to join ws with the given role.
// Authorization (manager tier) is the caller's job; the owner-role
// restriction is enforced here because ownership is only ever granted by
// provisioning or an explicit promotion by another owner.
func (s *Service) Create(ctx context.Context, ws models.Workspace, email string, role models.Role, createdBy primitive.ObjectID, ttl time.Duration) (models.Invite, error) {
	if role == models.RoleOwner {
		return models.Invite{}, ErrOwnerInvite
	}
	if ttl <= 0 {
		ttl = limits.DefaultInviteTTL
	}

	n, err := s.memberships.CountMembers(ctx, ws.ID)
	if err != nil {
		return models.Invite{}, err
	}
	if n >= limits.MaxMembersPerWorkspace {
		return models.Invite{}, ErrMemberLimit
	}

	token, err := NewToken()
	if err != nil {
		return models.Invite{}, err
	}

	return s.invites.Create(ctx, models.Invite{
		WorkspaceID:   ws.ID,
		WorkspaceSlug: ws.Slug,
		WorkspaceName: ws.Name,
		Email:         email,
		EmailCI:       text.Fold(email),
		Role:          role,
		Token:         token,
		ExpiresAt:     s.now().UTC().Add(ttl),
		CreatedBy:     createdBy,
	})
}

// GetByToken looks up an invite by its public token, reporting the
// effective status. A pending invite found past its expiry is lazily
// flipped to expired in both documents; the flip is best-effort, since
// the computed status already tells the caller the truth.
func (s *Service) GetByToken(ctx context.Context, token string) (models.Invite, error) {
	inv, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if err == invitestore.ErrNotFound {
			return models.Invite{}, ErrNotFound
		}
		return models.Invite{}, err
	}
	return s.applyLazyExpiry(ctx, inv), nil
}

// ListByWorkspace returns a workspace's invites with effective statuses,
// lazily flipping any that expired while stored pending.
func (s *Service) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Invite, error) {
	invs, err := s.invites.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for i := range invs {
		invs[i] = s.applyLazyExpiry(ctx, invs[i])
	}
	return invs, nil
}

func (s *Service) applyLazyExpiry(ctx context.Context, inv models.Invite) models.Invite {
	now := s.now().UTC()
	if inv.EffectiveStatus(now) != models.InviteExpired || inv.Status == models.InviteExpired {
		return inv
	}
	if err := s.invites.SetStatus(ctx, inv, models.InviteExpired, inv.CreatedBy); err != nil {
		s.log.Warn("lazy invite expiry flip failed",
			zap.String("invite_id", inv.ID.Hex()),
			zap.Error(err))
	}
	inv.Status = models.InviteExpired
	return inv
}

// AcceptResult reports the outcome of Accept.
type AcceptResult struct {
	Invite        models.Invite
	Membership    models.Membership
	AlreadyMember bool
}

// Accept joins uid (whose verified email is email) to the inviting
// workspace. Transactional: the status is re-validated against the stored
// document so a stale read cannot resurrect a revoked or spent invite.
//
// Idempotent for retries: an invite already accepted, presented again by
// the same already-member identity with the matching email, succeeds with
// AlreadyMember=true and no writes. The existing membership's role is
// never changed by a re-accept.
func (s *Service) Accept(ctx context.Context, token string, uid primitive.ObjectID, email string) (AcceptResult, error) {
	emailCI := text.Fold(email)

	out, err := txn.WithTransaction(ctx, s.client, func(sc mongo.SessionContext) (interface{}, error) {
		inv, err := s.invites.GetByToken(sc, token)
		if err != nil {
			if err == invitestore.ErrNotFound {
				return nil, ErrNotFound
			}
			return nil, err
		}

		now := s.now().UTC()
		existing, memberErr := s.memberships.Get(sc, inv.WorkspaceID, uid)
		isMember := memberErr == nil
		if memberErr != nil && memberErr != membershipstore.ErrNotFound {
			return nil, memberErr
		}

		switch inv.EffectiveStatus(now) {
		case models.InvitePending:
			// proceed
		case models.InviteExpired:
			return nil, ErrExpired
		case models.InviteAccepted:
			if isMember && inv.EmailCI == emailCI {
				return AcceptResult{Invite: inv, Membership: existing, AlreadyMember: true}, nil
			}
			return nil, ErrNotActive
		default:
			return nil, ErrNotActive
		}

		if inv.EmailCI != emailCI {
			return nil, ErrEmailMismatch
		}

		profile, err := s.profiles.Get(sc, uid)
		if err != nil && err != profilestore.ErrNotFound {
			return nil, err
		}

		if isMember {
			if !inv.Status.CanTransition(models.InviteAccepted) {
				return nil, ErrNotActive
			}
			if err := s.invites.SetStatus(sc, inv, models.InviteAccepted, uid); err != nil {
				return nil, err
			}
			return AcceptResult{Invite: inv, Membership: existing, AlreadyMember: true}, nil
		}

		// Quotas before any write.
		if !profile.HasSlug(inv.WorkspaceSlug) {
			joined, err := s.memberships.CountForUser(sc, uid)
			if err != nil {
				return nil, err
			}
			if joined >= limits.MaxWorkspacesPerUser {
				return nil, ErrJoinLimit
			}
		}
		total, err := s.memberships.CountMembers(sc, inv.WorkspaceID)
		if err != nil {
			return nil, err
		}
		if total >= limits.MaxMembersPerWorkspace {
			return nil, ErrMemberLimit
		}

		m, err := s.memberships.Create(sc, models.Membership{
			WorkspaceID: inv.WorkspaceID,
			UserID:      uid,
			Role:        inv.Role,
		})
		if err != nil {
			return nil, err
		}
		if err := s.profiles.JoinWorkspace(sc, uid, inv.WorkspaceID, inv.WorkspaceSlug, profile.DefaultWorkspaceID != nil); err != nil {
			return nil, err
		}
		if err := s.invites.SetStatus(sc, inv, models.InviteAccepted, uid); err != nil {
			return nil, err
		}
		return AcceptResult{Invite: inv, Membership: m}, nil
	})
	if err != nil {
		if errors.Is(err, membershipstore.ErrDuplicate) || txn.IsConflict(err) {
			// a concurrent accept won; re-read what it wrote so the
			// idempotent outcome carries the real invite and membership
			inv, lookErr := s.invites.GetByToken(ctx, token)
			if lookErr != nil {
				return AcceptResult{}, lookErr
			}
			m, lookErr := s.memberships.Get(ctx, inv.WorkspaceID, uid)
			if lookErr != nil {
				return AcceptResult{}, lookErr
			}
			return AcceptResult{Invite: inv, Membership: m, AlreadyMember: true}, nil
		}
		return AcceptResult{}, err
	}
	return out.(AcceptResult), nil
}

// Reject marks a pending invite rejected by the invited party.
func (s *Service) Reject(ctx context.Context, token string, uid primitive.ObjectID, email string) (models.Invite, error) {
	return s.transition(ctx, token, models.InviteRejected, uid, text.Fold(email))
}

// Revoke cancels a pending invite. Manager-tier authorization is the
// caller's job; this looks the invite up by its workspace-scoped ID.
func (s *Service) Revoke(ctx context.Context, workspaceID, inviteID, uid primitive.ObjectID) (models.Invite, error) {
	out, err := txn.WithTransaction(ctx, s.client, func(sc mongo.SessionContext) (interface{}, error) {
		inv, err := s.invites.GetByID(sc, workspaceID, inviteID)
		if err != nil {
			if err == invitestore.ErrNotFound {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if err := s.checkPending(inv); err != nil {
			return nil, err
		}
		if err := s.invites.SetStatus(sc, inv, models.InviteRevoked, uid); err != nil {
			return nil, err
		}
		inv.Status = models.InviteRevoked
		return inv, nil
	})
	if err != nil {
		return models.Invite{}, err
	}
	return out.(models.Invite), nil
}

func (s *Service) transition(ctx context.Context, token string, to models.InviteStatus, uid primitive.ObjectID, emailCI string) (models.Invite, error) {
	out, err := txn.WithTransaction(ctx, s.client, func(sc mongo.SessionContext) (interface{}, error) {
		inv, err := s.invites.GetByToken(sc, token)
		if err != nil {
			if err == invitestore.ErrNotFound {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if inv.EmailCI != emailCI {
			return nil, ErrEmailMismatch
		}
		if err := s.checkPending(inv); err != nil {
			return nil, err
		}
		if err := s.invites.SetStatus(sc, inv, to, uid); err != nil {
			return nil, err
		}
		inv.Status = to
		return inv, nil
	})
	if err != nil {
		return models.Invite{}, err
	}
	return out.(models.Invite), nil
}

// checkPending distinguishes the expired case from the generic
// not-pending case so callers can map them to different status codes.
func (s *Service) checkPending(inv models.Invite) error {
	switch inv.EffectiveStatus(s.now().UTC()) {
	case models.InvitePending:
		return nil
	case models.InviteExpired:
		return ErrExpired
	default:
		return ErrNotActive
	}
}
