package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InviteStatus is the closed set of invite lifecycle states. Transitions
// are forward-only: pending is the only non-terminal state.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
	InviteRevoked  InviteStatus = "revoked"
	InviteExpired  InviteStatus = "expired"
)

// ErrInvalidInviteStatus is returned for status values outside the closed set.
var ErrInvalidInviteStatus = errors.New("invalid invite status")

// ParseInviteStatus validates an untrusted status value against the closed set.
func ParseInviteStatus(value string) (InviteStatus, error) {
	switch InviteStatus(strings.ToLower(strings.TrimSpace(value))) {
	case InvitePending:
		return InvitePending, nil
	case InviteAccepted:
		return InviteAccepted, nil
	case InviteRejected:
		return InviteRejected, nil
	case InviteRevoked:
		return InviteRevoked, nil
	case InviteExpired:
		return InviteExpired, nil
	}
	return "", ErrInvalidInviteStatus
}

// inviteTransitions is the explicit transition table. A status may only
// move to one of the listed successors; everything else is terminal.
var inviteTransitions = map[InviteStatus][]InviteStatus{
	InvitePending: {InviteAccepted, InviteRejected, InviteRevoked, InviteExpired},
}

// CanTransition reports whether moving from -> to is a legal transition.
func (s InviteStatus) CanTransition(to InviteStatus) bool {
	for _, next := range inviteTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s InviteStatus) Terminal() bool {
	return len(inviteTransitions[s]) == 0
}

// Invite is a cross-tenant join offer. Each invite is written twice with
// the same ID: once token-keyed in invite_tokens (public lookup by the
// invited party) and once workspace-scoped in workspace_invites (listing
// and revocation by managers). Both copies transition together.
type Invite struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`

	// Denormalized for display on the public token lookup.
	WorkspaceSlug string `bson:"workspace_slug" json:"workspace_slug"`
	WorkspaceName string `bson:"workspace_name" json:"workspace_name"`

	Email   string `bson:"email" json:"email"`
	EmailCI string `bson:"email_ci" json:"-"`

	Role   Role         `bson:"role" json:"role"`
	Status InviteStatus `bson:"status" json:"status"`

	Token     string    `bson:"token" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`

	// Actor attribution
	CreatedBy primitive.ObjectID  `bson:"created_by" json:"created_by"`
	ActedBy   *primitive.ObjectID `bson:"acted_by,omitempty" json:"acted_by,omitempty"`
	ActedAt   *time.Time          `bson:"acted_at,omitempty" json:"acted_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EffectiveStatus computes the status as of now: a stored pending invite
// whose expiry has passed reports expired even before the lazy flip has
// been persisted.
func (i Invite) EffectiveStatus(now time.Time) InviteStatus {
	if i.Status == InvitePending && now.After(i.ExpiresAt) {
		return InviteExpired
	}
	return i.Status
}
