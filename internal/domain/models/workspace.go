package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace represents a top-level tenant container in Quorum.
// Each workspace is isolated from others and holds its own meetings,
// decisions, and action items.
//
// The slug stored here is denormalized from the workspace_slugs registry;
// the registry document (SlugMapping) is the authoritative uniqueness
// constraint, since registry documents are keyed by the slug itself.
type Workspace struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// Display name for the workspace
	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"-"` // Case-insensitive for search

	// Normalized unique identifier (e.g., "acme").
	// Denormalized copy of the registry key in workspace_slugs.
	Slug string `bson:"slug" json:"slug"`

	// User who provisioned the workspace
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`

	// Plan tier: "basic" or "pro". Ownership quotas apply to basic tier.
	PlanTier string `bson:"plan_tier" json:"plan_tier"`

	// Status: "active" or "archived"
	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Plan tiers.
const (
	PlanTierBasic = "basic"
	PlanTierPro   = "pro"
)

// ErrInvalidPlanTier is returned by ParsePlanTier for values outside the
// closed tier set.
var ErrInvalidPlanTier = errors.New(`plan tier must be "basic" or "pro"`)

// ParsePlanTier validates an untrusted plan tier value.
func ParsePlanTier(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case PlanTierBasic:
		return PlanTierBasic, nil
	case PlanTierPro:
		return PlanTierPro, nil
	}
	return "", ErrInvalidPlanTier
}

// SlugMapping is the registry document binding a normalized slug to the
// workspace it designates. The document _id IS the slug, which is how
// uniqueness is enforced without a native unique constraint: two
// transactions claiming the same slug contend on the same document and
// only one commit survives.
type SlugMapping struct {
	Slug        string             `bson:"_id" json:"slug"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
