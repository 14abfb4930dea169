// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/quorum/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound  = errors.New("membership not found")
	ErrDuplicate = errors.New("user is already a member of this workspace")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("memberships")}
}

// Get reads the membership for (workspaceID, uid).
func (s *Store) Get(ctx context.Context, workspaceID, uid primitive.ObjectID) (models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": uid}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Membership{}, ErrNotFound
		}
		return models.Membership{}, err
	}
	return m, nil
}

// Create inserts a membership. The unique (workspace_id, user_id) index
// turns a concurrent double-join into ErrDuplicate.
func (s *Store) Create(ctx context.Context, m models.Membership) (models.Membership, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	if m.Status == "" {
		m.Status = models.MembershipActive
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = now
	}
	m.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, m)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Membership{}, ErrDuplicate
		}
		return models.Membership{}, err
	}
	return m, nil
}

// SetRole updates the role on an existing membership.
func (s *Store) SetRole(ctx context.Context, workspaceID, uid primitive.ObjectID, role models.Role) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"workspace_id": workspaceID, "user_id": uid},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the membership for (workspaceID, uid).
func (s *Store) Delete(ctx context.Context, workspaceID, uid primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": uid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOwners returns the number of owner-role memberships in a workspace.
// memberpolicy re-reads this inside its transaction before any owner
// demotion or removal.
func (s *Store) CountOwners(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"workspace_id": workspaceID,
		"role":         models.RoleOwner,
	})
}

// CountMembers returns the total memberships in a workspace.
func (s *Store) CountMembers(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"workspace_id": workspaceID})
}

// CountForUser returns the number of distinct workspaces the user belongs to.
func (s *Store) CountForUser(ctx context.Context, uid primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": uid})
}

// ListByWorkspace returns all memberships in a workspace, oldest first.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Membership
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListForUser returns all of a user's memberships, oldest first.
func (s *Store) ListForUser(ctx context.Context, uid primitive.ObjectID) ([]models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": uid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Membership
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// FindAnotherForUser returns one membership for the user in any workspace
// other than exclude. Used for best-effort default-workspace repointing
// after a removal.
func (s *Store) FindAnotherForUser(ctx context.Context, uid, exclude primitive.ObjectID) (models.Membership, error) {
	var m models.Membership
	opts := options.FindOne().SetSort(bson.D{{Key: "joined_at", Value: 1}})
	err := s.c.FindOne(ctx, bson.M{
		"user_id":      uid,
		"workspace_id": bson.M{"$ne": exclude},
	}, opts).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Membership{}, ErrNotFound
		}
		return models.Membership{}, err
	}
	return m, nil
}

// EnsureIndexes creates the unique compound index that backs the
// (workspace_id, user_id) key.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "joined_at", Value: 1}}},
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "role", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
