// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	actionstore "github.com/dalemusser/quorum/internal/app/store/actions"
	auditstore "github.com/dalemusser/quorum/internal/app/store/audit"
	decisionstore "github.com/dalemusser/quorum/internal/app/store/decisions"
	invitestore "github.com/dalemusser/quorum/internal/app/store/invites"
	meetingstore "github.com/dalemusser/quorum/internal/app/store/meetings"
	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	ratelimitstore "github.com/dalemusser/quorum/internal/app/store/ratelimits"
	workspacestore "github.com/dalemusser/quorum/internal/app/store/workspaces"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and verifies it with a ping.
//
// Transactions are used throughout the consistency plane, so a replica set
// is expected in production; standalone mongod still works because callers
// fall back to non-transactional paths when the server rejects sessions.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every collection depends on. Each store
// owns its own index definitions; this just walks them in one place so a
// fresh database is fully usable after first boot.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	type indexed interface {
		EnsureIndexes(ctx context.Context) error
	}
	stores := []struct {
		name  string
		store indexed
	}{
		{"workspaces", workspacestore.New(db)},
		{"memberships", membershipstore.New(db)},
		{"profiles", profilestore.New(db)},
		{"invites", invitestore.New(db)},
		{"meetings", meetingstore.New(db)},
		{"decisions", decisionstore.New(db)},
		{"actions", actionstore.New(db)},
		{"rate_limit_counters", ratelimitstore.New(db)},
		{"audit_events", auditstore.New(db)},
	}

	for _, s := range stores {
		if err := s.store.EnsureIndexes(ctx); err != nil {
			logger.Error("index creation failed",
				zap.String("collection", s.name), zap.Error(err))
			return fmt.Errorf("ensure indexes for %s: %w", s.name, err)
		}
	}

	logger.Info("schema ready", zap.Int("collections", len(stores)))
	return nil
}
