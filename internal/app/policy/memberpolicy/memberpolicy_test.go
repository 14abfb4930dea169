package memberpolicy

import (
	"testing"

	"github.com/dalemusser/quorum/internal/domain/models"
)

func TestCheckRoleChange(t *testing.T) {
	member := models.Membership{Role: models.RoleMember}
	owner := models.Membership{Role: models.RoleOwner}

	tests := []struct {
		name          string
		actorRole     models.Role
		actorIsTarget bool
		target        models.Membership
		newRole       models.Role
		ownerCount    int64
		want          error
	}{
		{
			name:      "owner promotes member to admin",
			actorRole: models.RoleOwner, target: member, newRole: models.RoleAdmin, ownerCount: 1,
		},
		{
			name:      "admin changes member to viewer",
			actorRole: models.RoleAdmin, target: member, newRole: models.RoleViewer, ownerCount: 1,
		},
		{
			name:      "self change refused",
			actorRole: models.RoleOwner, actorIsTarget: true, target: owner, newRole: models.RoleAdmin, ownerCount: 2,
			want: ErrSelfChange,
		},
		{
			name:      "member cannot change roles",
			actorRole: models.RoleMember, target: member, newRole: models.RoleViewer, ownerCount: 1,
			want: ErrNotManager,
		},
		{
			name:      "viewer cannot change roles",
			actorRole: models.RoleViewer, target: member, newRole: models.RoleViewer, ownerCount: 1,
			want: ErrNotManager,
		},
		{
			name:      "admin cannot grant ownership",
			actorRole: models.RoleAdmin, target: member, newRole: models.RoleOwner, ownerCount: 1,
			want: ErrOwnerRequired,
		},
		{
			name:      "admin cannot demote an owner",
			actorRole: models.RoleAdmin, target: owner, newRole: models.RoleMember, ownerCount: 2,
			want: ErrOwnerRequired,
		},
		{
			name:      "owner demotes co-owner when another remains",
			actorRole: models.RoleOwner, target: owner, newRole: models.RoleAdmin, ownerCount: 2,
		},
		{
			name:      "demoting the last owner refused",
			actorRole: models.RoleOwner, target: owner, newRole: models.RoleAdmin, ownerCount: 1,
			want: ErrLastOwner,
		},
		{
			name:      "owner to owner is not a demotion",
			actorRole: models.RoleOwner, target: owner, newRole: models.RoleOwner, ownerCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckRoleChange(tt.actorRole, tt.actorIsTarget, tt.target, tt.newRole, tt.ownerCount)
			if got != tt.want {
				t.Errorf("CheckRoleChange = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckRemoval(t *testing.T) {
	member := models.Membership{Role: models.RoleMember}
	owner := models.Membership{Role: models.RoleOwner}

	tests := []struct {
		name          string
		actorRole     models.Role
		actorIsTarget bool
		target        models.Membership
		ownerCount    int64
		want          error
	}{
		{
			name:      "owner removes member",
			actorRole: models.RoleOwner, target: member, ownerCount: 1,
		},
		{
			name:      "admin removes member",
			actorRole: models.RoleAdmin, target: member, ownerCount: 1,
		},
		{
			name:      "self removal refused",
			actorRole: models.RoleOwner, actorIsTarget: true, target: owner, ownerCount: 2,
			want: ErrSelfChange,
		},
		{
			name:      "member cannot remove anyone",
			actorRole: models.RoleMember, target: member, ownerCount: 1,
			want: ErrNotManager,
		},
		{
			name:      "admin cannot remove an owner",
			actorRole: models.RoleAdmin, target: owner, ownerCount: 2,
			want: ErrOwnerRequired,
		},
		{
			name:      "owner removes co-owner when another remains",
			actorRole: models.RoleOwner, target: owner, ownerCount: 2,
		},
		{
			name:      "removing the last owner refused",
			actorRole: models.RoleOwner, target: owner, ownerCount: 1,
			want: ErrLastOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckRemoval(tt.actorRole, tt.actorIsTarget, tt.target, tt.ownerCount)
			if got != tt.want {
				t.Errorf("CheckRemoval = %v, want %v", got, tt.want)
			}
		})
	}
}
