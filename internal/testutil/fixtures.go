package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateWorkspace creates a test workspace with its slug registry entry.
// Returns the created workspace with its generated ID.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name, slug string) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Slug:      slug,
		CreatedBy: primitive.NewObjectID(),
		PlanTier:  models.PlanTierBasic,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("workspaces").InsertOne(ctx, ws)
	if err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}

	mapping := models.SlugMapping{
		Slug:        slug,
		WorkspaceID: ws.ID,
		CreatedBy:   ws.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = f.db.Collection("workspace_slugs").InsertOne(ctx, mapping)
	if err != nil {
		f.t.Fatalf("failed to create test slug mapping: %v", err)
	}

	return ws
}

// CreateProWorkspace creates a test workspace on the pro plan tier.
func (f *Fixtures) CreateProWorkspace(ctx context.Context, name, slug string) models.Workspace {
	f.t.Helper()

	ws := f.CreateWorkspace(ctx, name, slug)
	_, err := f.db.Collection("workspaces").UpdateOne(ctx,
		map[string]any{"_id": ws.ID},
		map[string]any{"$set": map[string]any{"plan_tier": models.PlanTierPro}})
	if err != nil {
		f.t.Fatalf("failed to upgrade test workspace: %v", err)
	}
	ws.PlanTier = models.PlanTierPro
	return ws
}

// CreateMembership creates an active membership linking a user to a workspace.
func (f *Fixtures) CreateMembership(ctx context.Context, workspaceID, userID primitive.ObjectID, role models.Role) models.Membership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Membership{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		Status:      models.MembershipActive,
		JoinedAt:    now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("memberships").InsertOne(ctx, m)
	if err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}

	return m
}

// CreateOwner creates a user profile plus an owner membership in the
// workspace, returning both.
func (f *Fixtures) CreateOwner(ctx context.Context, ws models.Workspace, email string) (models.UserProfile, models.Membership) {
	f.t.Helper()

	profile := f.CreateProfile(ctx, email, ws.Slug)
	m := f.CreateMembership(ctx, ws.ID, profile.UID, models.RoleOwner)
	return profile, m
}

// CreateProfile creates a user profile with the given email, caching the
// listed workspace slugs.
func (f *Fixtures) CreateProfile(ctx context.Context, email string, slugs ...string) models.UserProfile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.UserProfile{
		UID:                 primitive.NewObjectID(),
		Email:               email,
		EmailCI:             text.Fold(email),
		WorkspaceSlugs:      slugs,
		OnboardingCompleted: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, p)
	if err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}

	return p
}

// CreateInvite creates a pending invite for the workspace, writing both the
// token-keyed and workspace-scoped copies the way the invite store does.
func (f *Fixtures) CreateInvite(ctx context.Context, ws models.Workspace, email string, role models.Role) models.Invite {
	f.t.Helper()
	return f.CreateInviteWithStatus(ctx, ws, email, role, models.InvitePending, time.Now().UTC().Add(7*24*time.Hour))
}

// CreateInviteWithStatus creates an invite in an arbitrary lifecycle state
// with an explicit expiry.
func (f *Fixtures) CreateInviteWithStatus(ctx context.Context, ws models.Workspace, email string, role models.Role, status models.InviteStatus, expiresAt time.Time) models.Invite {
	f.t.Helper()

	now := time.Now().UTC()
	inv := models.Invite{
		ID:            primitive.NewObjectID(),
		WorkspaceID:   ws.ID,
		WorkspaceSlug: ws.Slug,
		WorkspaceName: ws.Name,
		Email:         email,
		EmailCI:       text.Fold(email),
		Role:          role,
		Status:        status,
		Token:         primitive.NewObjectID().Hex() + primitive.NewObjectID().Hex(),
		ExpiresAt:     expiresAt,
		CreatedBy:     ws.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := f.db.Collection("workspace_invites").InsertOne(ctx, inv)
	if err != nil {
		f.t.Fatalf("failed to create test invite: %v", err)
	}
	_, err = f.db.Collection("invite_tokens").InsertOne(ctx, map[string]any{
		"_id":    inv.Token,
		"invite": inv,
	})
	if err != nil {
		f.t.Fatalf("failed to create test invite token: %v", err)
	}

	return inv
}

// CreateMeeting creates an active meeting in the workspace.
func (f *Fixtures) CreateMeeting(ctx context.Context, workspaceID primitive.ObjectID, title string) models.Meeting {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Meeting{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		Title:       title,
		TitleCI:     text.Fold(title),
		Status:      models.EntityActive,
		CreatedBy:   primitive.NewObjectID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("meetings").InsertOne(ctx, m)
	if err != nil {
		f.t.Fatalf("failed to create test meeting: %v", err)
	}

	return m
}
