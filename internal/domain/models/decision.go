package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decision records an outcome reached by a workspace, optionally linked to
// the meeting where it was made. Context is user-authored HTML, sanitized
// before storage.
type Decision struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`

	Title   string `bson:"title" json:"title"`
	TitleCI string `bson:"title_ci" json:"-"`
	Context string `bson:"context,omitempty" json:"context,omitempty"`

	MeetingID *primitive.ObjectID `bson:"meeting_id,omitempty" json:"meeting_id,omitempty"`

	Status    string             `bson:"status" json:"status"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
