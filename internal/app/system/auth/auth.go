// Package auth verifies session credentials and exposes the current user
// to handlers via the request context.
//
// Credential issuance (login flows, token minting) lives outside this
// service; the core contract is verify(credential) -> uid or failure.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	userEmailKey = "user_email"
)

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID    string
	Email string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// UserID returns the current user's ObjectID, or NilObjectID and false if
// no valid user is in context. Malformed session IDs fail closed.
func UserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return uid, true
}

// SessionManager verifies session cookies and guards routes.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true), cookies are Secure + SameSite=None so they
// can be sent in cross-site contexts. In local dev over http, Lax.
func NewSessionManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide >=32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Verify performs non-strict credential verification: a valid session
// yields (uid, true); absence, tampering, or a malformed ID yield
// ("", false). It never fails the request; rate limiting must still
// key abusive unauthenticated traffic by IP.
func (sm *SessionManager) Verify(r *http.Request) (string, bool) {
	if u, ok := CurrentUser(r); ok {
		return u.ID, true
	}
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return "", false
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return "", false
	}
	uid := getString(sess, userIDKey)
	if _, err := primitive.ObjectIDFromHex(uid); err != nil {
		return "", false
	}
	return uid, true
}

// LoadSessionUser injects the user into context if they carry a valid
// session. Invalid or absent credentials are ignored here; strict
// enforcement happens in RequireSignedIn.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err == nil {
			if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
				u := &SessionUser{
					ID:    getString(sess, userIDKey),
					Email: getString(sess, userEmailKey),
				}
				if _, err := primitive.ObjectIDFromHex(u.ID); err == nil {
					r = withUser(r, u)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by
// LoadSessionUser). This is the hard-fail path: unlike actor resolution,
// an invalid or missing credential here is a 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		apierr.WriteError(w, apierr.New(apierr.KindAuth, "authentication required"))
	})
}

// WithTestUser injects a session user into the request context.
// For use in tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
