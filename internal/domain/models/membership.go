package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of workspace member roles. Role values arrive as
// strings from JSON bodies and stored documents; always go through
// ParseMemberRole at the boundary instead of comparing raw strings.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// ErrInvalidRole is returned by ParseMemberRole for values outside the
// closed role set.
var ErrInvalidRole = errors.New(`role must be "owner", "admin", "member", or "viewer"`)

// ParseMemberRole validates an untrusted role value against the closed set.
func ParseMemberRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember:
		return RoleMember, nil
	case RoleViewer:
		return RoleViewer, nil
	}
	return "", ErrInvalidRole
}

// Membership statuses.
const (
	MembershipActive = "active"
)

// Membership links a user to a workspace with a role. Uniqueness on
// (workspace_id, user_id) is enforced by a unique compound index.
//
// Invariant: every workspace keeps at least one membership with role=owner
// at all times after creation. Role changes and removals must go through
// memberpolicy, which enforces this inside a transaction.
type Membership struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role        Role               `bson:"role" json:"role"`
	Status      string             `bson:"status" json:"status"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joined_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
