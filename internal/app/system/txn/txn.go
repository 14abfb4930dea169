// Package txn wraps MongoDB multi-document transactions.
//
// All invariant-preserving writes in Quorum (slug claims, invite accepts,
// role changes, rate-limit increments) run through WithTransaction. The
// store validates the read set at commit time; on a write conflict the
// driver retries the callback internally (transient-error label) before
// surfacing failure, so callbacks must be safe to re-run and must perform
// all reads before any write.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// WithTransaction runs fn inside a single transaction with snapshot reads
// and majority writes. The returned value is whatever fn returns on the
// committed attempt.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	opts := options.Session().
		SetDefaultReadConcern(readconcern.Snapshot()).
		SetDefaultWriteConcern(writeconcern.Majority())

	sess, err := client.StartSession(opts)
	if err != nil {
		return nil, err
	}
	defer sess.EndSession(ctx)

	return sess.WithTransaction(ctx, fn)
}

// IsConflict reports whether err is a commit-time conflict: either an
// optimistic write conflict or a duplicate key raced in by a concurrent
// transaction. Callers translate this to their domain conflict error
// (e.g. slug taken) instead of retrying with the same inputs.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 112 WriteConflict, 251 NoSuchTransaction (aborted by conflict)
		if cmdErr.Code == 112 || cmdErr.Code == 251 {
			return true
		}
		if cmdErr.HasErrorLabel("TransientTransactionError") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "write conflict")
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone mongod rather than a replica
// set). Used by tests and startup checks to degrade gracefully.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 20 IllegalOperation on standalone, 51 transaction numbers
		// rejected, 263 operation not allowed in transaction.
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") {
		if strings.Contains(msg, "replica set") ||
			strings.Contains(msg, "session") ||
			strings.Contains(msg, "illegal operation") {
			return true
		}
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	return false
}
