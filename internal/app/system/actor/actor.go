// Package actor resolves an inbound request to the identity key used for
// rate limiting and audit attribution.
//
// Resolution never fails: abusive unauthenticated traffic must still be
// limited, so credential verification here is non-strict and falls back
// to the client IP. The primary route authentication path
// (auth.RequireSignedIn) is the one that hard-fails on bad credentials.
package actor

import (
	"net"
	"net/http"
	"strings"
)

// Key types.
const (
	KeyTypeUID = "uid"
	KeyTypeIP  = "ip"
)

// Scope selects how the actor is keyed.
type Scope int

const (
	// ScopeAuto keys by uid when a credential verifies, else by IP.
	ScopeAuto Scope = iota
	// ScopeIP always keys by IP, even for authenticated callers.
	// Used for routes where per-account keying would let an attacker
	// rotate accounts to dodge the cap.
	ScopeIP
)

// Actor identifies the caller of a guarded route.
type Actor struct {
	UID     string // empty when unauthenticated
	IP      string
	Key     string // the rate-limit key: uid or ip
	KeyType string // "uid" or "ip"
}

// Verifier is the non-strict credential check: uid on success, false on
// absence or failure. *auth.SessionManager satisfies this.
type Verifier interface {
	Verify(r *http.Request) (uid string, ok bool)
}

// Resolve determines the actor for a request.
func Resolve(r *http.Request, v Verifier, scope Scope) Actor {
	ip := ClientIP(r)

	if scope == ScopeIP || v == nil {
		return Actor{IP: ip, Key: ip, KeyType: KeyTypeIP}
	}

	if uid, ok := v.Verify(r); ok {
		return Actor{UID: uid, IP: ip, Key: uid, KeyType: KeyTypeUID}
	}
	return Actor{IP: ip, Key: ip, KeyType: KeyTypeIP}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For (first entry of the chain), X-Real-IP, and the
// platform's Fly-Client-IP header, then falls back to RemoteAddr. When
// nothing usable is present it returns "unknown" so limiting still groups
// such traffic together instead of passing it through unkeyed.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if fly := r.Header.Get("Fly-Client-IP"); fly != "" {
		return strings.TrimSpace(fly)
	}

	if r.RemoteAddr != "" {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RemoteAddr might not have a port
			return r.RemoteAddr
		}
		return ip
	}

	return "unknown"
}
