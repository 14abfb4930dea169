// internal/app/system/ratelimit/ratelimit.go

// Package ratelimit enforces fixed-window request caps per actor.
//
// Handlers run as independent stateless invocations (one process today,
// several tomorrow), so the counter lives in the api_rate_limits
// collection rather than process memory: the window key hashes
// (route, actor, window start) and the transactional read-increment
// serializes concurrent requests on the same counter document.
//
// This is a hard per-window cap, not sliding or leaky: a caller can burst
// up to the limit at a window boundary and again right after. Accepted
// for simplicity.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	ratelimitstore "github.com/dalemusser/quorum/internal/app/store/ratelimits"
	"github.com/dalemusser/quorum/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Default cap applied unless a route declares a tighter override.
const (
	DefaultLimit  = 60
	DefaultWindow = time.Minute
)

// counterRetention is how long past the window end a counter document
// sticks around before the store's TTL mechanism reclaims it. Generous on
// purpose: the document is tiny and late reclamation is harmless.
const counterRetention = 24 * time.Hour

// Result reports one limiter decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time // end of the current window
	RetryAfter int       // seconds to wait, only set when denied
}

// Limiter checks and increments fixed-window counters.
type Limiter struct {
	client *mongo.Client
	store  *ratelimitstore.Store
	log    *zap.Logger
	now    func() time.Time
}

// New creates a limiter over the given database.
func New(client *mongo.Client, db *mongo.Database, logger *zap.Logger) *Limiter {
	return &Limiter{
		client: client,
		store:  ratelimitstore.New(db),
		log:    logger,
		now:    time.Now,
	}
}

// SetClock overrides the limiter's clock. For use in tests only.
func (l *Limiter) SetClock(now func() time.Time) { l.now = now }

// WindowStart floors now to the start of its fixed window.
func WindowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

// CounterID derives the counter document key for one
// (route, actor, window) triple. The raw actor key never appears in the
// document; the hash is the identity.
func CounterID(routeID, actorKey string, windowStart time.Time) string {
	h := sha256.New()
	h.Write([]byte(routeID))
	h.Write([]byte{0})
	h.Write([]byte(actorKey))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(windowStart.Unix(), 10)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// RetryAfterSeconds computes the Retry-After value: whole seconds until
// the window ends, rounded up.
func RetryAfterSeconds(now, reset time.Time) int {
	d := reset.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Allow checks the current window's counter for (routeID, actorKey) and
// increments it when under the limit. Read and increment share one
// transaction so two racing requests cannot both consume the last slot.
func (l *Limiter) Allow(ctx context.Context, routeID, actorKey string, limit int, window time.Duration) (Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	now := l.now().UTC()
	start := WindowStart(now, window)
	reset := start.Add(window)
	id := CounterID(routeID, actorKey, start)

	decide := func(sc context.Context) (interface{}, error) {
		c, err := l.store.Get(sc, id)
		if err != nil && err != ratelimitstore.ErrNotFound {
			return nil, err
		}
		if err == nil && c.Count >= limit {
			return Result{
				Allowed:    false,
				Limit:      limit,
				Remaining:  0,
				Reset:      reset,
				RetryAfter: RetryAfterSeconds(now, reset),
			}, nil
		}

		n, err := l.store.Increment(sc, id, reset, reset.Add(counterRetention))
		if err != nil {
			return nil, err
		}
		remaining := limit - n
		if remaining < 0 {
			remaining = 0
		}
		return Result{Allowed: true, Limit: limit, Remaining: remaining, Reset: reset}, nil
	}

	out, err := txn.WithTransaction(ctx, l.client, func(sc mongo.SessionContext) (interface{}, error) {
		return decide(sc)
	})
	if err != nil && txn.IsNotSupported(err) {
		// Standalone mongod (dev): fall back to an unsessioned
		// check-and-increment. Slightly racy, still bounded.
		l.log.Debug("rate limit transaction unsupported, using plain increment")
		out, err = decide(ctx)
	}
	if err != nil {
		return Result{}, err
	}
	return out.(Result), nil
}
