// internal/app/system/auditlog/logger.go

// Package auditlog records one append-only entry per guarded API call.
//
// The audit trail answers "who did what, when, and was it allowed" without
// leaking credentials: actor keys are stored hashed and path segments that
// carry identifiers are redacted to placeholders before persistence.
package auditlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/dalemusser/quorum/internal/app/store/audit"
	"go.uber.org/zap"
)

// Logger writes audit entries. A failure to persist an entry must never
// fail the request it describes, so Record swallows store errors after
// logging them.
type Logger struct {
	store *audit.Store
	log   *zap.Logger
}

// New creates a Logger over the given store.
func New(store *audit.Store, log *zap.Logger) *Logger {
	return &Logger{store: store, log: log}
}

// NewNopLogger returns a Logger that records nothing. For tests and for
// wiring paths where auditing is disabled.
func NewNopLogger() *Logger {
	return &Logger{log: zap.NewNop()}
}

// Record appends one entry. Best-effort: storage errors are logged and
// dropped, and a nil store is a no-op.
func (l *Logger) Record(ctx context.Context, e audit.Entry) {
	if l == nil || l.store == nil {
		return
	}
	if err := l.store.Append(ctx, e); err != nil {
		l.log.Warn("audit append failed",
			zap.String("route_id", e.RouteID),
			zap.Error(err))
	}
}

// HashActorKey hashes a raw actor key (uid or IP) for storage. Truncated:
// the hash only needs to correlate entries, not resist collision attacks.
func HashActorKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// entity path segments whose following segment is an opaque ID.
var entitySegments = map[string]string{
	"meetings":  "meeting",
	"decisions": "decision",
	"actions":   "action",
	"members":   "member",
	"invites":   "invite",
}

// RedactPath replaces identifying path segments with placeholders so audit
// entries group by route shape instead of by resource. Invite tokens are
// the sensitive case: a raw token in the audit trail would be a usable
// credential.
func RedactPath(path string) string {
	segs := strings.Split(path, "/")
	for i := 0; i < len(segs); i++ {
		switch segs[i] {
		case "workspaces":
			if i+1 < len(segs) && segs[i+1] != "" {
				segs[i+1] = ":slug"
				i++
			}
		case "invites":
			// public invite routes carry the token right after
			if i+1 < len(segs) && segs[i+1] != "" {
				segs[i+1] = ":token"
				i++
			}
		default:
			if _, ok := entitySegments[segs[i]]; ok {
				if i+1 < len(segs) && segs[i+1] != "" {
					segs[i+1] = ":id"
					i++
				}
			}
		}
	}
	return strings.Join(segs, "/")
}

// ParseResource extracts coarse resource identifiers from a request path.
// The workspace slug is kept as-is (slugs are public names); entity IDs
// are kept (opaque ObjectIDs); invite tokens are never extracted.
func ParseResource(path string) audit.Resource {
	var res audit.Resource
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(segs); i++ {
		switch segs[i] {
		case "workspaces":
			if i+1 < len(segs) {
				res.WorkspaceSlug = segs[i+1]
				i++
			}
		case "invites":
			res.EntityType = "invite"
			// token deliberately not captured
			if i+1 < len(segs) {
				i++
			}
		default:
			if kind, ok := entitySegments[segs[i]]; ok {
				res.EntityType = kind
				if i+1 < len(segs) {
					res.EntityID = segs[i+1]
					i++
				}
			}
		}
	}
	return res
}

// TruncateError bounds an error message for storage.
func TruncateError(msg string, max int) string {
	if len(msg) <= max {
		return msg
	}
	return msg[:max]
}
