// internal/app/store/profiles/profilestore.go
package profilestore

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
	ErrNotFound = errors.New("user profile not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Get reads a user's profile.
func (s *Store) Get(ctx context.Context, uid primitive.ObjectID) (models.UserProfile, error) {
	var p models.UserProfile
	err := s.c.FindOne(ctx, bson.M{"_id": uid}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.UserProfile{}, ErrNotFound
		}
		return models.UserProfile{}, err
	}
	return p, nil
}

// Ensure creates a bare profile if none exists, for identities that
// authenticate before any workspace activity.
func (s *Store) Ensure(ctx context.Context, uid primitive.ObjectID, email string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"email":      email,
			"email_ci":   text.Fold(email),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.c.UpdateByID(ctx, uid, update, options.Update().SetUpsert(true))
	return err
}

// JoinWorkspace applies the profile side of joining a workspace: adds the
// slug to the bounded set, points the default workspace at it only when no
// default is set yet, and marks onboarding complete. Merge semantics
// preserve created_at. Run inside the joining transaction.
func (s *Store) JoinWorkspace(ctx context.Context, uid, workspaceID primitive.ObjectID, slug string, hasDefault bool) error {
	now := time.Now().UTC()
	set := bson.M{
		"onboarding_completed": true,
		"updated_at":           now,
	}
	if !hasDefault {
		set["default_workspace_id"] = workspaceID
	}
	update := bson.M{
		"$set":         set,
		"$addToSet":    bson.M{"workspace_slugs": slug},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.c.UpdateByID(ctx, uid, update, options.Update().SetUpsert(true))
	return err
}

// LeaveWorkspace removes the slug from the cached set.
func (s *Store) LeaveWorkspace(ctx context.Context, uid primitive.ObjectID, slug string) error {
	_, err := s.c.UpdateByID(ctx, uid, bson.M{
		"$pull": bson.M{"workspace_slugs": slug},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetDefaultWorkspace repoints the default workspace; pass nil to clear it.
func (s *Store) SetDefaultWorkspace(ctx context.Context, uid primitive.ObjectID, workspaceID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if workspaceID == nil {
		update["$unset"] = bson.M{"default_workspace_id": ""}
	} else {
		update["$set"].(bson.M)["default_workspace_id"] = *workspaceID
	}
	_, err := s.c.UpdateByID(ctx, uid, update)
	return err
}

// ReplaceSlugForMembers swaps oldSlug for newSlug in every listed member's
// cached slug set. Best-effort fan-out after a rename: it runs outside the
// rename transaction (a workspace can have more members than fit in one
// bounded transaction), so a crash mid-way leaves stale entries that heal
// on the next authoritative lookup.
func (s *Store) ReplaceSlugForMembers(ctx context.Context, uids []primitive.ObjectID, oldSlug, newSlug string) error {
	if len(uids) == 0 {
		return nil
	}
	filter := bson.M{"_id": bson.M{"$in": uids}}
	now := time.Now().UTC()
	if _, err := s.c.UpdateMany(ctx, filter, bson.M{
		"$pull": bson.M{"workspace_slugs": oldSlug},
		"$set":  bson.M{"updated_at": now},
	}); err != nil {
		return err
	}
	_, err := s.c.UpdateMany(ctx, filter, bson.M{
		"$addToSet": bson.M{"workspace_slugs": newSlug},
	})
	return err
}

// EnsureIndexes creates indexes for the users collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email_ci", Value: 1}}},
		{Keys: bson.D{{Key: "workspace_slugs", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
