// internal/app/features/members/handler.go

// Package members serves workspace membership listing, role changes, and
// removals. Every mutation goes through memberpolicy so the owner
// invariant is checked transactionally, not from this handler's reads.
package members

import (
	"net/http"

	"github.com/dalemusser/quorum/internal/app/policy/memberpolicy"
	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/workspace"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler provides membership HTTP handlers.
type Handler struct {
	Resolver    *workspace.Resolver
	Guard       *memberpolicy.Guard
	Memberships *membershipstore.Store
	Profiles    *profilestore.Store
	Log         *zap.Logger
}

// NewHandler creates a members Handler.
func NewHandler(resolver *workspace.Resolver, policyGuard *memberpolicy.Guard, memberships *membershipstore.Store, profiles *profilestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Resolver:    resolver,
		Guard:       policyGuard,
		Memberships: memberships,
		Profiles:    profiles,
		Log:         logger,
	}
}

// uidParam parses the {uid} URL parameter.
func uidParam(r *http.Request) (primitive.ObjectID, error) {
	uid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "uid"))
	if err != nil {
		return primitive.NilObjectID, apierr.Validation("invalid member id")
	}
	return uid, nil
}

// translatePolicyErr maps memberpolicy sentinels to typed API errors.
func translatePolicyErr(err error) error {
	switch err {
	case memberpolicy.ErrNotFound:
		return apierr.Wrap(apierr.KindNotFound, "membership not found", err)
	case memberpolicy.ErrSelfChange:
		return apierr.Wrap(apierr.KindAuthorization, "cannot modify your own membership", err)
	case memberpolicy.ErrNotManager:
		return apierr.Wrap(apierr.KindAuthorization, "requires owner or admin role", err)
	case memberpolicy.ErrOwnerRequired:
		return apierr.Wrap(apierr.KindAuthorization, "only an owner may grant or revoke ownership", err)
	case memberpolicy.ErrLastOwner:
		return apierr.Wrap(apierr.KindConflict, "workspace must keep at least one owner", err)
	}
	return err
}
