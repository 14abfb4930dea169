// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Outcomes of a guarded call.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
	OutcomeException   = "exception"
)

// RateSnapshot captures the limiter state attached to the call.
type RateSnapshot struct {
	Limit     int   `bson:"limit" json:"limit"`
	Remaining int   `bson:"remaining" json:"remaining"`
	Reset     int64 `bson:"reset" json:"reset"` // unix seconds of window end
}

// Resource holds coarse identifiers parsed from the request path. Raw
// tokens are redacted before they reach this struct.
type Resource struct {
	WorkspaceSlug string `bson:"workspace_slug,omitempty" json:"workspace_slug,omitempty"`
	EntityType    string `bson:"entity_type,omitempty" json:"entity_type,omitempty"`
	EntityID      string `bson:"entity_id,omitempty" json:"entity_id,omitempty"`
}

// Entry is one immutable record per guarded call.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	RouteID string   `bson:"route_id"`
	Method  string   `bson:"method"`
	Path    string   `bson:"path"`
	Res     Resource `bson:"resource,omitempty"`

	// Who: a hash of the actor key, never the raw key.
	ActorHash string `bson:"actor_hash"`
	ActorKind string `bson:"actor_kind"` // "uid" or "ip"

	Outcome    string       `bson:"outcome"`
	StatusCode int          `bson:"status_code"`
	LatencyMS  int64        `bson:"latency_ms"`
	Rate       RateSnapshot `bson:"rate"`

	// Truncated error message, empty on success.
	Error string `bson:"error,omitempty"`
}

// Store manages guarded-call audit records. Entries are append-only:
// nothing in this store mutates or deletes them.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("api_audit_logs")}
}

// Append inserts one entry, stamping the timestamp if unset.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Query returns the most recent entries matching the filter.
func (s *Store) Query(ctx context.Context, filter bson.M, limit int64) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureIndexes creates indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actor_hash", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "route_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
