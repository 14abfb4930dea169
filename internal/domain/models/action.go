package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action item statuses.
const (
	ActionOpen = "open"
	ActionDone = "done"
)

// ActionItem is a follow-up task assigned out of a meeting or decision.
// Notes are user-authored HTML, sanitized before storage.
type ActionItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`

	Title   string `bson:"title" json:"title"`
	TitleCI string `bson:"title_ci" json:"-"`
	Notes   string `bson:"notes,omitempty" json:"notes,omitempty"`

	AssigneeID *primitive.ObjectID `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	DueAt      *time.Time          `bson:"due_at,omitempty" json:"due_at,omitempty"`

	// State: "open" or "done"; archived items keep State but move Status.
	State string `bson:"state" json:"state"`

	Status    string             `bson:"status" json:"status"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
