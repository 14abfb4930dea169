package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserProfile holds per-user workspace state. The _id is the user's
// ObjectID from the identity provider, so profile reads inside
// transactions are keyed lookups.
//
// WorkspaceSlugs is a denormalized cache of the slugs of workspaces the
// user belongs to. It is bounded by limits.MaxWorkspacesPerUser and is
// best-effort after renames: the authoritative membership lookup is the
// memberships collection, and a stale entry here self-heals the next time
// membership is resolved through the slug registry.
type UserProfile struct {
	UID primitive.ObjectID `bson:"_id" json:"uid"`

	Email   string `bson:"email" json:"email"`
	EmailCI string `bson:"email_ci" json:"-"`

	DefaultWorkspaceID  *primitive.ObjectID `bson:"default_workspace_id,omitempty" json:"default_workspace_id,omitempty"`
	WorkspaceSlugs      []string            `bson:"workspace_slugs,omitempty" json:"workspace_slugs,omitempty"`
	OnboardingCompleted bool                `bson:"onboarding_completed" json:"onboarding_completed"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasSlug reports whether the profile's cached slug set contains slug.
func (p UserProfile) HasSlug(slug string) bool {
	for _, s := range p.WorkspaceSlugs {
		if s == slug {
			return true
		}
	}
	return false
}
