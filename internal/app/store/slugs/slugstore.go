// internal/app/store/slugs/slugstore.go
package slugstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/quorum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the workspace_slugs registry. Each document's _id is the
// normalized slug itself, which substitutes for a native unique index:
// two transactions claiming one slug contend on the same document and the
// commit-time read-set validation lets exactly one through.
type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound = errors.New("slug mapping not found")
)

// New creates a new slug registry Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspace_slugs")}
}

// Get reads the mapping for a normalized slug.
func (s *Store) Get(ctx context.Context, slug string) (models.SlugMapping, error) {
	var m models.SlugMapping
	err := s.c.FindOne(ctx, bson.M{"_id": slug}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.SlugMapping{}, ErrNotFound
		}
		return models.SlugMapping{}, err
	}
	return m, nil
}

// Put writes the mapping with merge semantics, preserving created_at when
// the document already exists.
func (s *Store) Put(ctx context.Context, m models.SlugMapping) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"workspace_id": m.WorkspaceID,
			"created_by":   m.CreatedBy,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.c.UpdateByID(ctx, m.Slug, update, options.Update().SetUpsert(true))
	return err
}

// DeleteIfOwnedBy removes the mapping only if it still points at the given
// workspace. The filter is the race guard: a slug re-claimed by another
// workspace between read and delete is left alone.
func (s *Store) DeleteIfOwnedBy(ctx context.Context, slug string, workspaceID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": slug, "workspace_id": workspaceID})
	return err
}
