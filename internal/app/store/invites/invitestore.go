// internal/app/store/invites/invitestore.go
package invitestore

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

// Store manages the invite document pair. Every invite lives twice with
// the same ID and fields: token-keyed in invite_tokens (public lookup by
// the invited party, _id = token) and workspace-scoped in
// workspace_invites (manager listing and revocation). All status writes
// go through SetStatus so the pair never diverges.
type Store struct {
	tokens *mongo.Collection
	ws     *mongo.Collection
}

var (
	ErrNotFound = errors.New("invite not found")
)

// tokenDoc is the invite_tokens shape: same fields, token as _id.
type tokenDoc struct {
	Token  string        `bson:"_id"`
	Invite models.Invite `bson:"invite"`
}

func New(db *mongo.Database) *Store {
	return &Store{
		tokens: db.Collection("invite_tokens"),
		ws:     db.Collection("workspace_invites"),
	}
}

// Create writes both documents of the pair.
func (s *Store) Create(ctx context.Context, inv models.Invite) (models.Invite, error) {
	now := time.Now().UTC()
	inv.ID = primitive.NewObjectID()
	inv.Status = models.InvitePending
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if _, err := s.ws.InsertOne(ctx, inv); err != nil {
		return models.Invite{}, err
	}
	if _, err := s.tokens.InsertOne(ctx, tokenDoc{Token: inv.Token, Invite: inv}); err != nil {
		return models.Invite{}, err
	}
	return inv, nil
}

// GetByToken looks up an invite by its public token.
func (s *Store) GetByToken(ctx context.Context, token string) (models.Invite, error) {
	var doc tokenDoc
	err := s.tokens.FindOne(ctx, bson.M{"_id": token}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Invite{}, ErrNotFound
		}
		return models.Invite{}, err
	}
	return doc.Invite, nil
}

// GetByID looks up the workspace-scoped copy.
func (s *Store) GetByID(ctx context.Context, workspaceID, id primitive.ObjectID) (models.Invite, error) {
	var inv models.Invite
	err := s.ws.FindOne(ctx, bson.M{"_id": id, "workspace_id": workspaceID}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Invite{}, ErrNotFound
		}
		return models.Invite{}, err
	}
	return inv, nil
}

// ListByWorkspace returns a workspace's invites, newest first.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Invite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.ws.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invites []models.Invite
	if err := cur.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// SetStatus transitions both documents of the pair, with actor
// attribution. Callers validate the transition against the stored status
// inside their transaction before calling.
func (s *Store) SetStatus(ctx context.Context, inv models.Invite, to models.InviteStatus, actedBy primitive.ObjectID) error {
	now := time.Now().UTC()
	set := bson.M{
		"status":     to,
		"acted_by":   actedBy,
		"acted_at":   now,
		"updated_at": now,
	}

	res, err := s.ws.UpdateOne(ctx, bson.M{"_id": inv.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	tokenSet := bson.M{}
	for k, v := range set {
		tokenSet["invite."+k] = v
	}
	_, err = s.tokens.UpdateByID(ctx, inv.Token, bson.M{"$set": tokenSet})
	return err
}

// ExpireOverdue flips pending invites whose deadline has passed to
// expired, in both collections. Reads already treat overdue pending
// invites as expired; this keeps listings and stored state in line.
func (s *Store) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	set := bson.M{"status": models.InviteExpired, "updated_at": now}

	res, err := s.ws.UpdateMany(ctx,
		bson.M{"status": models.InvitePending, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": set})
	if err != nil {
		return 0, err
	}

	tokenSet := bson.M{}
	for k, v := range set {
		tokenSet["invite."+k] = v
	}
	_, err = s.tokens.UpdateMany(ctx,
		bson.M{"invite.status": models.InvitePending, "invite.expires_at": bson.M{"$lte": now}},
		bson.M{"$set": tokenSet})
	if err != nil {
		return res.ModifiedCount, err
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes creates indexes for both invite collections.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	wsIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "email_ci", Value: 1}}},
	}
	if _, err := s.ws.Indexes().CreateMany(ctx, wsIndexes); err != nil {
		return err
	}
	tokenIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "invite.workspace_id", Value: 1}}},
	}
	_, err := s.tokens.Indexes().CreateMany(ctx, tokenIndexes)
	return err
}
