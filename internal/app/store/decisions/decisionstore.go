// internal/app/store/decisions/decisionstore.go
package decisionstore

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

var ErrNotFound = errors.New("decision not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("decisions")}
}

// Create inserts a new decision.
func (s *Store) Create(ctx context.Context, d models.Decision) (models.Decision, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.TitleCI = text.Fold(d.Title)
	if d.Status == "" {
		d.Status = models.EntityActive
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Decision{}, err
	}
	return d, nil
}

// GetByID retrieves a decision scoped to its workspace.
func (s *Store) GetByID(ctx context.Context, workspaceID, id primitive.ObjectID) (models.Decision, error) {
	var d models.Decision
	err := s.c.FindOne(ctx, bson.M{"_id": id, "workspace_id": workspaceID}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Decision{}, ErrNotFound
		}
		return models.Decision{}, err
	}
	return d, nil
}

// Update modifies a decision's mutable fields.
func (s *Store) Update(ctx context.Context, workspaceID, id primitive.ObjectID, d models.Decision) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if d.Title != "" {
		set["title"] = d.Title
		set["title_ci"] = text.Fold(d.Title)
	}
	set["context"] = d.Context
	if d.MeetingID != nil {
		set["meeting_id"] = d.MeetingID
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

// SetStatus archives or restores a decision.
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

// ListByWorkspace returns decisions in a workspace filtered by status,
// newest first.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, status string) ([]models.Decision, error) {
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

	var decisions []models.Decision
	if err := cur.All(ctx, &decisions); err != nil {
		return nil, err
	}
	return decisions, nil
}

// EnsureIndexes creates indexes for the decisions collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "meeting_id", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
