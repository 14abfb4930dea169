// internal/app/system/guard/guard.go

// Package guard wraps API handlers with the request control plane:
// actor resolution, fixed-window rate limiting, and audit logging.
//
// Order matters: the actor is resolved first, the limiter decides second,
// and the audit entry is written last with whatever outcome the handler
// produced. A limiter backend failure fails OPEN: refusing all traffic
// because the counter store is down would turn a degradation into an
// outage.
package guard

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/quorum/internal/app/store/audit"
	"github.com/dalemusser/quorum/internal/app/system/actor"
	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/auditlog"
	"github.com/dalemusser/quorum/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// maxCapturedBody bounds how much of an error response body is copied
// into the audit entry.
const maxCapturedBody = 256

// Options configure one guarded route.
type Options struct {
	// RouteID names the route in counters and audit entries,
	// e.g. "workspaces.provision". Required.
	RouteID string

	// Limit and Window override the defaults when non-zero.
	Limit  int
	Window time.Duration

	// Scope selects actor keying; ScopeAuto unless the route needs
	// IP-only keying.
	Scope actor.Scope
}

// Guardrails holds the shared machinery behind every guarded route.
type Guardrails struct {
	verifier actor.Verifier
	limiter  *ratelimit.Limiter
	audit    *auditlog.Logger
	log      *zap.Logger
}

// New assembles the guardrails.
func New(verifier actor.Verifier, limiter *ratelimit.Limiter, auditLogger *auditlog.Logger, log *zap.Logger) *Guardrails {
	return &Guardrails{
		verifier: verifier,
		limiter:  limiter,
		audit:    auditLogger,
		log:      log,
	}
}

// statusRecorder captures the status code and the head of error bodies.
type statusRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	if sr.status >= 400 && sr.body.Len() < maxCapturedBody {
		room := maxCapturedBody - sr.body.Len()
		if room > len(b) {
			room = len(b)
		}
		sr.body.Write(b[:room])
	}
	return sr.ResponseWriter.Write(b)
}

// Wrap applies the guardrails to a handler.
func (g *Guardrails) Wrap(opts Options, next http.HandlerFunc) http.HandlerFunc {
	limit := opts.Limit
	if limit <= 0 {
		limit = ratelimit.DefaultLimit
	}
	window := opts.Window
	if window <= 0 {
		window = ratelimit.DefaultWindow
	}

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		act := actor.Resolve(r, g.verifier, opts.Scope)

		entry := audit.Entry{
			RouteID:   opts.RouteID,
			Method:    r.Method,
			Path:      auditlog.RedactPath(r.URL.Path),
			Res:       auditlog.ParseResource(r.URL.Path),
			ActorHash: auditlog.HashActorKey(act.Key),
			ActorKind: act.KeyType,
		}

		res, err := g.limiter.Allow(r.Context(), opts.RouteID, act.Key, limit, window)
		if err != nil {
			// Fail open. The handler still runs; the entry records a
			// zero rate snapshot.
			g.log.Warn("rate limiter unavailable, allowing request",
				zap.String("route_id", opts.RouteID),
				zap.Error(err))
			res = ratelimit.Result{Allowed: true, Limit: limit, Remaining: limit}
		}

		entry.Rate = audit.RateSnapshot{
			Limit:     res.Limit,
			Remaining: res.Remaining,
			Reset:     res.Reset.Unix(),
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

		if !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
			apierr.WriteError(w, apierr.New(apierr.KindRateLimited, "rate limit exceeded"))

			entry.Outcome = audit.OutcomeRateLimited
			entry.StatusCode = http.StatusTooManyRequests
			entry.LatencyMS = time.Since(start).Milliseconds()
			g.audit.Record(r.Context(), entry)
			return
		}

		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			if p := recover(); p != nil {
				entry.Outcome = audit.OutcomeException
				entry.StatusCode = http.StatusInternalServerError
				entry.LatencyMS = time.Since(start).Milliseconds()
				entry.Error = auditlog.TruncateError(fmt.Sprint(p), maxCapturedBody)
				g.audit.Record(r.Context(), entry)
				panic(p)
			}
		}()

		next(rec, r)

		entry.StatusCode = rec.status
		if entry.StatusCode == 0 {
			entry.StatusCode = http.StatusOK
		}
		if entry.StatusCode >= 400 {
			entry.Outcome = audit.OutcomeError
			entry.Error = auditlog.TruncateError(rec.body.String(), maxCapturedBody)
		} else {
			entry.Outcome = audit.OutcomeSuccess
		}
		entry.LatencyMS = time.Since(start).Milliseconds()
		g.audit.Record(r.Context(), entry)
	}
}
