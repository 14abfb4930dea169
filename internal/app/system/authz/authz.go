// Package authz provides role predicates for workspace members.
//
// Predicates operate on the closed models.Role enum; parse untrusted role
// strings with models.ParseMemberRole before calling them. Resource-level
// checks that need database state live in internal/app/policy/*.
package authz

import (
	"github.com/dalemusser/quorum/internal/domain/models"
)

// IsManager reports whether the role is manager-tier (owner or admin).
func IsManager(role models.Role) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}

// CanManageMembers reports whether the role may invite members and change
// member/viewer roles. Owner-role mutations carry extra rules enforced by
// memberpolicy; this is the coarse gate.
func CanManageMembers(role models.Role) bool {
	return IsManager(role)
}

// CanEditContent reports whether the role may create and edit meetings,
// decisions, and action items.
func CanEditContent(role models.Role) bool {
	switch role {
	case models.RoleOwner, models.RoleAdmin, models.RoleMember:
		return true
	}
	return false
}

// CanArchiveRestore reports whether the role may archive or restore
// meetings, decisions, and action items.
func CanArchiveRestore(role models.Role) bool {
	return IsManager(role)
}

// CanView reports whether the role may read workspace content. Every
// member role can; the predicate exists so read handlers don't compare
// against the zero Role by accident.
func CanView(role models.Role) bool {
	switch role {
	case models.RoleOwner, models.RoleAdmin, models.RoleMember, models.RoleViewer:
		return true
	}
	return false
}
