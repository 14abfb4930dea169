// internal/app/store/ratelimits/ratelimitstore.go
package ratelimitstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Counter is one fixed-window rate-limit counter. The _id is a hash of
// (route, actor key, window start), so a given actor's requests within a
// window all contend on the same document and the transactional
// read-increment serializes them.
//
// Counters are ephemeral: ExpiresAt drives a TTL index and Mongo reclaims
// the documents on its own; nothing in the app sweeps them.
type Counter struct {
	ID        string    `bson:"_id"`
	Count     int       `bson:"count"`
	ResetAt   time.Time `bson:"reset_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// ErrNotFound is returned when no counter exists for the window yet.
var ErrNotFound = errors.New("rate limit counter not found")

// Store manages rate-limit counter documents.
type Store struct {
	c *mongo.Collection
}

// New creates a new rate-limit counter Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("api_rate_limits")}
}

// Get reads the counter for the given window key.
func (s *Store) Get(ctx context.Context, id string) (Counter, error) {
	var c Counter
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return Counter{}, ErrNotFound
		}
		return Counter{}, err
	}
	return c, nil
}

// Increment bumps the counter, creating it with the window metadata on
// first use. Returns the post-increment count. Call inside the same
// transaction that performed the Get so the read set is validated at
// commit.
func (s *Store) Increment(ctx context.Context, id string, resetAt, expiresAt time.Time) (int, error) {
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$setOnInsert": bson.M{
			"reset_at":   resetAt,
			"expires_at": expiresAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c Counter
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&c); err != nil {
		return 0, err
	}
	return c.Count, nil
}

// EnsureIndexes creates the TTL index that reclaims expired counters.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
