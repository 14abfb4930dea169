// internal/app/store/actions/actionstore.go
package actionstore

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

var ErrNotFound = errors.New("action item not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("action_items")}
}

// Create inserts a new action item.
func (s *Store) Create(ctx context.Context, a models.ActionItem) (models.ActionItem, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.TitleCI = text.Fold(a.Title)
	if a.State == "" {
		a.State = models.ActionOpen
	}
	if a.Status == "" {
		a.Status = models.EntityActive
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.ActionItem{}, err
	}
	return a, nil
}

// GetByID retrieves an action item scoped to its workspace.
func (s *Store) GetByID(ctx context.Context, workspaceID, id primitive.ObjectID) (models.ActionItem, error) {
	var a models.ActionItem
	err := s.c.FindOne(ctx, bson.M{"_id": id, "workspace_id": workspaceID}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.ActionItem{}, ErrNotFound
		}
		return models.ActionItem{}, err
	}
	return a, nil
}

// Update modifies an action item's mutable fields.
func (s *Store) Update(ctx context.Context, workspaceID, id primitive.ObjectID, a models.ActionItem) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if a.Title != "" {
		set["title"] = a.Title
		set["title_ci"] = text.Fold(a.Title)
	}
	set["notes"] = a.Notes
	if a.AssigneeID != nil {
		set["assignee_id"] = a.AssigneeID
	}
	if a.DueAt != nil {
		set["due_at"] = a.DueAt
	}
	if a.State != "" {
		set["state"] = a.State
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

// SetStatus archives or restores an action item.
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

// ListByWorkspace returns action items in a workspace filtered by status,
// newest first.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, status string) ([]models.ActionItem, error) {
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

	var items []models.ActionItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// EnsureIndexes creates indexes for the action_items collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "assignee_id", Value: 1}, {Key: "state", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
