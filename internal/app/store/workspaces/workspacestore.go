// internal/app/store/workspaces/workspacestore.go
package workspacestore

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

var (
	ErrNotFound = errors.New("workspace not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspaces")}
}

// Upsert writes a workspace with merge semantics: created_at is preserved
// on existing documents, everything else is set. Used by the provisioner
// inside its transaction for both the create and adopt branches.
func (s *Store) Upsert(ctx context.Context, ws models.Workspace) error {
	now := time.Now().UTC()
	if ws.PlanTier == "" {
		ws.PlanTier = models.PlanTierBasic
	}
	if ws.Status == "" {
		ws.Status = "active"
	}
	update := bson.M{
		"$set": bson.M{
			"name":       ws.Name,
			"name_ci":    text.Fold(ws.Name),
			"slug":       ws.Slug,
			"plan_tier":  ws.PlanTier,
			"status":     ws.Status,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_by": ws.CreatedBy,
			"created_at": now,
		},
	}
	_, err := s.c.UpdateByID(ctx, ws.ID, update, options.Update().SetUpsert(true))
	return err
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetBySlugField retrieves a workspace by its denormalized slug field.
// This is the legacy-collision lookup: pre-registry data may carry a slug
// with no mapping document, and provisioning has to detect it.
func (s *Store) GetBySlugField(ctx context.Context, slug string) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"slug": slug}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// SetSlug updates the denormalized slug on a rename.
func (s *Store) SetSlug(ctx context.Context, id primitive.ObjectID, slug string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"slug":       slug,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// CountOwnedBasic returns how many basic-tier workspaces the user created.
func (s *Store) CountOwnedBasic(ctx context.Context, uid primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"created_by": uid,
		"plan_tier":  models.PlanTierBasic,
	})
}

// FindByIDs returns workspaces for the given IDs.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Workspace, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var workspaces []models.Workspace
	if err := cur.All(ctx, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// EnsureIndexes creates indexes for the workspaces collection. The slug
// field index is non-unique on purpose: uniqueness belongs to the
// workspace_slugs registry, this one only serves the legacy-collision
// lookup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "plan_tier", Value: 1}}},
		{Keys: bson.D{{Key: "name_ci", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
