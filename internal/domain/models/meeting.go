package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entity statuses shared by meetings, decisions, and action items.
const (
	EntityActive   = "active"
	EntityArchived = "archived"
)

// Meeting is a scheduled or past workspace meeting. Minutes are
// user-authored HTML, sanitized before storage.
type Meeting struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`

	Title   string `bson:"title" json:"title"`
	TitleCI string `bson:"title_ci" json:"-"`
	Minutes string `bson:"minutes,omitempty" json:"minutes,omitempty"`

	ScheduledFor *time.Time `bson:"scheduled_for,omitempty" json:"scheduled_for,omitempty"`

	// IANA zone the meeting is scheduled in, for display alongside the
	// UTC instant. Validated against the curated zone list.
	TimeZone string `bson:"time_zone,omitempty" json:"time_zone,omitempty"`

	Status    string             `bson:"status" json:"status"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
