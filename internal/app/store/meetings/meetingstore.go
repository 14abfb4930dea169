// internal/app/store/meetings/meetingstore.go
package meetingstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("meeting not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("meetings")}
}

// Create inserts a new meeting.
func (s *Store) Create(ctx context.Context, m models.Meeting) (models.Meeting, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.TitleCI = text.Fold(m.Title)
	if m.Status == "" {
		m.Status = models.EntityActive
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Meeting{}, err
	}
	return m, nil
}

// GetByID retrieves a meeting scoped to its workspace.
func (s *Store) GetByID(ctx context.Context, workspaceID, id primitive.ObjectID) (models.Meeting, error) {
	var m models.Meeting
	err := s.c.FindOne(ctx, bson.M{"_id": id, "workspace_id": workspaceID}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Meeting{}, ErrNotFound
		}
		return models.Meeting{}, err
	}
	return m, nil
}

// Update modifies a meeting's mutable fields.
func (s *Store) Update(ctx context.Context, workspaceID, id primitive.ObjectID, m models.Meeting) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if m.Title != "" {
		set["title"] = m.Title
		set["title_ci"] = text.Fold(m.Title)
	}
	set["minutes"] = m.Minutes
	if m.ScheduledFor != nil {
		set["scheduled_for"] = m.ScheduledFor
	}
	if m.TimeZone != "" {
		set["time_zone"] = m.TimeZone
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "workspace_id": workspaceID},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus archives or restores a meeting.
func (s *Store) SetStatus(ctx context.Context, workspaceID, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "workspace_id": workspaceID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByWorkspace returns meetings in a workspace filtered by status,
// newest first.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, status string) ([]models.Meeting, error) {
	filter := bson.M{"workspace_id": workspaceID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var meetings []models.Meeting
	if err := cur.All(ctx, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// Find runs a raw filtered query; callers own the sort, limit, and any
// keyset window in the filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Meeting, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var meetings []models.Meeting
	if err := cur.All(ctx, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// EnsureIndexes creates indexes for the meetings collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "title_ci", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
