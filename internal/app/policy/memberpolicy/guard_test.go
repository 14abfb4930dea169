package memberpolicy

import (
	"context"
	"testing"
	"time"

	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	"github.com/dalemusser/quorum/internal/app/system/txn"
	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/dalemusser/quorum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newGuard(t *testing.T) (*Guard, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	g := NewGuard(db.Client(), membershipstore.New(db), profilestore.New(db), zap.NewNop())
	return g, f, db
}

// requireTransactions skips when the test server is a standalone mongod
// that cannot run multi-document transactions.
func requireTransactions(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := txn.WithTransaction(ctx, db.Client(), func(sc mongo.SessionContext) (interface{}, error) {
		return db.Collection("txn_probe").InsertOne(sc, map[string]any{"probe": true})
	})
	if txn.IsNotSupported(err) {
		t.Skipf("mongodb does not support transactions: %v", err)
	}
	if err != nil {
		t.Fatalf("transaction probe failed: %v", err)
	}
}

func TestGuardChangeRole_PromoteThenDemote(t *testing.T) {
	g, f, db := newGuard(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "acme")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")
	member := f.CreateProfile(ctx, "member@example.com", "acme")
	f.CreateMembership(ctx, ws.ID, member.UID, models.RoleMember)

	promoted, err := g.ChangeRole(ctx, ws.ID, owner.UID, member.UID, models.RoleOwner)
	if err != nil {
		t.Fatalf("promotion failed: %v", err)
	}
	if promoted.Role != models.RoleOwner {
		t.Errorf("promoted role = %q, want owner", promoted.Role)
	}

	// With two owners the original one can be demoted.
	demoted, err := g.ChangeRole(ctx, ws.ID, member.UID, owner.UID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("demotion with a second owner failed: %v", err)
	}
	if demoted.Role != models.RoleAdmin {
		t.Errorf("demoted role = %q, want admin", demoted.Role)
	}

	stored, err := membershipstore.New(db).Get(ctx, ws.ID, owner.UID)
	if err != nil {
		t.Fatalf("membership lookup failed: %v", err)
	}
	if stored.Role != models.RoleAdmin {
		t.Errorf("stored role = %q, want admin", stored.Role)
	}
}

func TestGuardChangeRole_SoleOwnerProtected(t *testing.T) {
	g, f, db := newGuard(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "acme")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")
	admin := f.CreateProfile(ctx, "admin@example.com", "acme")
	f.CreateMembership(ctx, ws.ID, admin.UID, models.RoleAdmin)

	// An admin may not touch an owner membership.
	if _, err := g.ChangeRole(ctx, ws.ID, admin.UID, owner.UID, models.RoleMember); err != ErrOwnerRequired {
		t.Errorf("admin demoting the owner = %v, want ErrOwnerRequired", err)
	}
	// The owner may not change their own role.
	if _, err := g.ChangeRole(ctx, ws.ID, owner.UID, owner.UID, models.RoleMember); err != ErrSelfChange {
		t.Errorf("self demotion = %v, want ErrSelfChange", err)
	}

	stored, err := membershipstore.New(db).Get(ctx, ws.ID, owner.UID)
	if err != nil {
		t.Fatalf("membership lookup failed: %v", err)
	}
	if stored.Role != models.RoleOwner {
		t.Errorf("owner role = %q after refused changes, want owner", stored.Role)
	}
}

func TestGuardChangeRole_ActorAndTargetChecks(t *testing.T) {
	g, f, db := newGuard(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "acme")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")
	viewer := f.CreateProfile(ctx, "viewer@example.com", "acme")
	f.CreateMembership(ctx, ws.ID, viewer.UID, models.RoleViewer)

	// Non-member actor.
	if _, err := g.ChangeRole(ctx, ws.ID, primitive.NewObjectID(), viewer.UID, models.RoleMember); err != ErrNotManager {
		t.Errorf("non-member actor = %v, want ErrNotManager", err)
	}
	// Viewer actor.
	if _, err := g.ChangeRole(ctx, ws.ID, viewer.UID, owner.UID, models.RoleMember); err != ErrNotManager {
		t.Errorf("viewer actor = %v, want ErrNotManager", err)
	}
	// Missing target.
	if _, err := g.ChangeRole(ctx, ws.ID, owner.UID, primitive.NewObjectID(), models.RoleMember); err != ErrNotFound {
		t.Errorf("missing target = %v, want ErrNotFound", err)
	}
}

func TestGuardRemove_RepointsDefaultWorkspace(t *testing.T) {
	g, f, db := newGuard(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws1 := f.CreateWorkspace(ctx, "Acme Corp", "acme")
	ws2 := f.CreateWorkspace(ctx, "Side Project", "side")
	owner, _ := f.CreateOwner(ctx, ws1, "owner@example.com")
	user := f.CreateProfile(ctx, "user@example.com", "acme", "side")
	f.CreateMembership(ctx, ws1.ID, user.UID, models.RoleMember)
	f.CreateMembership(ctx, ws2.ID, user.UID, models.RoleMember)

	profiles := profilestore.New(db)
	if err := profiles.SetDefaultWorkspace(ctx, user.UID, &ws1.ID); err != nil {
		t.Fatalf("default setup failed: %v", err)
	}

	if err := g.Remove(ctx, ws1.ID, ws1.Slug, owner.UID, user.UID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, err := membershipstore.New(db).Get(ctx, ws1.ID, user.UID); err != membershipstore.ErrNotFound {
		t.Errorf("membership lookup after removal = %v, want ErrNotFound", err)
	}

	profile, err := profiles.Get(ctx, user.UID)
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if profile.HasSlug("acme") {
		t.Error("removed workspace slug should leave the cached set")
	}
	if profile.DefaultWorkspaceID == nil || *profile.DefaultWorkspaceID != ws2.ID {
		t.Errorf("default workspace = %v, want repointed to %s", profile.DefaultWorkspaceID, ws2.ID.Hex())
	}
}

func TestGuardRemove_ClearsDefaultWhenLastWorkspace(t *testing.T) {
	g, f, db := newGuard(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "acme")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")
	user := f.CreateProfile(ctx, "user@example.com", "acme")
	f.CreateMembership(ctx, ws.ID, user.UID, models.RoleMember)

	profiles := profilestore.New(db)
	if err := profiles.SetDefaultWorkspace(ctx, user.UID, &ws.ID); err != nil {
		t.Fatalf("default setup failed: %v", err)
	}

	if err := g.Remove(ctx, ws.ID, ws.Slug, owner.UID, user.UID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	profile, err := profiles.Get(ctx, user.UID)
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if profile.DefaultWorkspaceID != nil {
		t.Errorf("default workspace = %s, want cleared", profile.DefaultWorkspaceID.Hex())
	}
}

func TestGuardRemove_OwnerRules(t *testing.T) {
	g, f, db := newGuard(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "acme")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")
	admin := f.CreateProfile(ctx, "admin@example.com", "acme")
	f.CreateMembership(ctx, ws.ID, admin.UID, models.RoleAdmin)

	// Only an owner may remove an owner.
	if err := g.Remove(ctx, ws.ID, ws.Slug, admin.UID, owner.UID); err != ErrOwnerRequired {
		t.Errorf("admin removing the owner = %v, want ErrOwnerRequired", err)
	}
	// Nobody removes themselves.
	if err := g.Remove(ctx, ws.ID, ws.Slug, owner.UID, owner.UID); err != ErrSelfChange {
		t.Errorf("self removal = %v, want ErrSelfChange", err)
	}

	// A second owner can be removed by the first.
	second := f.CreateProfile(ctx, "second@example.com", "acme")
	f.CreateMembership(ctx, ws.ID, second.UID, models.RoleOwner)
	if err := g.Remove(ctx, ws.ID, ws.Slug, owner.UID, second.UID); err != nil {
		t.Fatalf("removing a co-owner failed: %v", err)
	}
	if _, err := membershipstore.New(db).Get(ctx, ws.ID, second.UID); err != membershipstore.ErrNotFound {
		t.Errorf("co-owner membership lookup = %v, want ErrNotFound", err)
	}
}
