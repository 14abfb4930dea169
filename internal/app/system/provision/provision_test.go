package provision

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	membershipstore "github.com/dalemusser/quorum/internal/app/store/memberships"
	profilestore "github.com/dalemusser/quorum/internal/app/store/profiles"
	slugstore "github.com/dalemusser/quorum/internal/app/store/slugs"
	workspacestore "github.com/dalemusser/quorum/internal/app/store/workspaces"
	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/limits"
	"github.com/dalemusser/quorum/internal/app/system/txn"
	"github.com/dalemusser/quorum/internal/domain/models"
	"github.com/dalemusser/quorum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newProvisioner(t *testing.T) (*Provisioner, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	p := New(db.Client(), slugstore.New(db), workspacestore.New(db),
		membershipstore.New(db), profilestore.New(db), zap.NewNop())
	return p, f, db
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

func TestProvision_CreatesWorkspace(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateProfile(ctx, "founder@example.com")

	res, err := p.Provision(ctx, user.UID, "acme", "Acme Corp", models.PlanTierBasic)
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if !res.Created {
		t.Error("fresh slug should report Created")
	}
	if res.Workspace.Slug != "acme" || res.Workspace.Name != "Acme Corp" {
		t.Errorf("workspace = %+v", res.Workspace)
	}

	mapping, err := slugstore.New(db).Get(ctx, "acme")
	if err != nil {
		t.Fatalf("mapping lookup failed: %v", err)
	}
	if mapping.WorkspaceID != res.Workspace.ID {
		t.Errorf("mapping points at %s, want %s", mapping.WorkspaceID.Hex(), res.Workspace.ID.Hex())
	}

	m, err := membershipstore.New(db).Get(ctx, res.Workspace.ID, user.UID)
	if err != nil {
		t.Fatalf("membership lookup failed: %v", err)
	}
	if m.Role != models.RoleOwner {
		t.Errorf("creator role = %q, want owner", m.Role)
	}

	profile, err := profilestore.New(db).Get(ctx, user.UID)
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if !profile.HasSlug("acme") {
		t.Error("profile should cache the new slug")
	}
	if profile.DefaultWorkspaceID == nil || *profile.DefaultWorkspaceID != res.Workspace.ID {
		t.Error("first workspace should become the default")
	}
}

func TestProvision_ReusesOwnMapping(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateProfile(ctx, "founder@example.com")
	first, err := p.Provision(ctx, user.UID, "acme", "Acme Corp", models.PlanTierBasic)
	if err != nil {
		t.Fatalf("first Provision failed: %v", err)
	}

	second, err := p.Provision(ctx, user.UID, "acme", "Acme Corporation", models.PlanTierBasic)
	if err != nil {
		t.Fatalf("re-provision failed: %v", err)
	}
	if second.Created {
		t.Error("re-provision of an owned slug should not report Created")
	}
	if second.Workspace.ID != first.Workspace.ID {
		t.Errorf("re-provision created a second workspace: %s vs %s",
			second.Workspace.ID.Hex(), first.Workspace.ID.Hex())
	}
	if second.Workspace.Name != "Acme Corporation" {
		t.Errorf("name = %q, want the merged update", second.Workspace.Name)
	}
}

func TestProvision_SlugTakenByOther(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f.CreateWorkspace(ctx, "Theirs", "taken")
	user := f.CreateProfile(ctx, "late@example.com")

	if _, err := p.Provision(ctx, user.UID, "taken", "Mine", models.PlanTierBasic); err != ErrSlugTaken {
		t.Errorf("Provision of a claimed slug = %v, want ErrSlugTaken", err)
	}
}

func TestProvision_DanglingMappingIsIntegrityFault(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A registry entry pointing at a workspace that does not exist.
	err := slugstore.New(db).Put(ctx, models.SlugMapping{
		Slug:        "ghost",
		WorkspaceID: primitive.NewObjectID(),
		CreatedBy:   primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("mapping setup failed: %v", err)
	}

	user := f.CreateProfile(ctx, "claimant@example.com")
	_, err = p.Provision(ctx, user.UID, "ghost", "Ghost", models.PlanTierBasic)
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != apierr.KindIntegrity {
		t.Errorf("Provision over a dangling mapping = %v, want a %s error", err, apierr.KindIntegrity)
	}
}

func TestProvision_AdoptsLegacyWorkspace(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateProfile(ctx, "founder@example.com")

	// A pre-registry workspace: slug only as a plain field, no mapping.
	legacy := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      "Old Acme",
		Slug:      "acme",
		CreatedBy: user.UID,
		PlanTier:  models.PlanTierBasic,
	}
	if err := workspacestore.New(db).Upsert(ctx, legacy); err != nil {
		t.Fatalf("legacy workspace setup failed: %v", err)
	}

	res, err := p.Provision(ctx, user.UID, "acme", "Acme Corp", models.PlanTierBasic)
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if res.Created {
		t.Error("adoption should not report Created")
	}
	if res.Workspace.ID != legacy.ID {
		t.Errorf("adopted workspace = %s, want the legacy one %s",
			res.Workspace.ID.Hex(), legacy.ID.Hex())
	}

	mapping, err := slugstore.New(db).Get(ctx, "acme")
	if err != nil {
		t.Fatalf("backfilled mapping lookup failed: %v", err)
	}
	if mapping.WorkspaceID != legacy.ID {
		t.Errorf("backfilled mapping points at %s, want %s", mapping.WorkspaceID.Hex(), legacy.ID.Hex())
	}
}

func TestProvision_MembershipQuota(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateProfile(ctx, "busy@example.com")
	for i := 0; i < limits.MaxWorkspacesPerUser; i++ {
		f.CreateMembership(ctx, primitive.NewObjectID(), user.UID, models.RoleMember)
	}

	if _, err := p.Provision(ctx, user.UID, "one-more", "One More", models.PlanTierBasic); err != ErrMembershipLimit {
		t.Errorf("Provision over the membership quota = %v, want ErrMembershipLimit", err)
	}
}

func TestProvision_OwnedBasicQuota(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := f.CreateProfile(ctx, "serial@example.com")
	ws := workspacestore.New(db)
	for i := 0; i < limits.MaxOwnedBasicWorkspaces; i++ {
		err := ws.Upsert(ctx, models.Workspace{
			ID:        primitive.NewObjectID(),
			Name:      fmt.Sprintf("Venture %d", i),
			Slug:      fmt.Sprintf("venture-%d", i),
			CreatedBy: user.UID,
			PlanTier:  models.PlanTierBasic,
		})
		if err != nil {
			t.Fatalf("workspace setup failed: %v", err)
		}
	}

	if _, err := p.Provision(ctx, user.UID, "venture-x", "Venture X", models.PlanTierBasic); err != ErrOwnedLimit {
		t.Errorf("Provision over the owned quota = %v, want ErrOwnedLimit", err)
	}
}

func TestRename_MovesSlugAndFansOut(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "alpha")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")

	renamed, err := p.Rename(ctx, owner.UID, ws, "beta")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Slug != "beta" {
		t.Errorf("renamed slug = %q, want beta", renamed.Slug)
	}

	slugs := slugstore.New(db)
	mapping, err := slugs.Get(ctx, "beta")
	if err != nil {
		t.Fatalf("new mapping lookup failed: %v", err)
	}
	if mapping.WorkspaceID != ws.ID {
		t.Errorf("new mapping points at %s, want %s", mapping.WorkspaceID.Hex(), ws.ID.Hex())
	}
	if _, err := slugs.Get(ctx, "alpha"); err != slugstore.ErrNotFound {
		t.Errorf("old mapping lookup = %v, want ErrNotFound", err)
	}

	stored, err := workspacestore.New(db).GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("workspace lookup failed: %v", err)
	}
	if stored.Slug != "beta" {
		t.Errorf("denormalized slug = %q, want beta", stored.Slug)
	}

	profile, err := profilestore.New(db).Get(ctx, owner.UID)
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if profile.HasSlug("alpha") || !profile.HasSlug("beta") {
		t.Errorf("cached slugs = %v, want alpha replaced by beta", profile.WorkspaceSlugs)
	}
}

func TestRename_RequiresOwner(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "alpha")
	admin := f.CreateProfile(ctx, "admin@example.com", "alpha")
	f.CreateMembership(ctx, ws.ID, admin.UID, models.RoleAdmin)

	if _, err := p.Rename(ctx, admin.UID, ws, "beta"); err != ErrNotOwner {
		t.Errorf("Rename by admin = %v, want ErrNotOwner", err)
	}
}

func TestRename_TargetSlugTaken(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "alpha")
	f.CreateWorkspace(ctx, "Other Corp", "beta")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")

	if _, err := p.Rename(ctx, owner.UID, ws, "beta"); err != ErrSlugTaken {
		t.Errorf("Rename onto a claimed slug = %v, want ErrSlugTaken", err)
	}
}

func TestRename_ReleasedSlugIsReclaimable(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "alpha")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")
	if _, err := p.Rename(ctx, owner.UID, ws, "beta"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	newcomer := f.CreateProfile(ctx, "newcomer@example.com")
	res, err := p.Provision(ctx, newcomer.UID, "alpha", "New Alpha", models.PlanTierBasic)
	if err != nil {
		t.Fatalf("Provision of the released slug failed: %v", err)
	}
	if !res.Created {
		t.Error("released slug should be claimable as a fresh workspace")
	}
	if res.Workspace.ID == ws.ID {
		t.Error("reclaimed slug must not resolve to the renamed workspace")
	}
}

func TestRename_LeavesReassignedOldMappingAlone(t *testing.T) {
	p, f, db := newProvisioner(t)
	requireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws := f.CreateWorkspace(ctx, "Acme Corp", "alpha")
	owner, _ := f.CreateOwner(ctx, ws, "owner@example.com")
	other := f.CreateWorkspace(ctx, "Other Corp", "other")

	// The old slug has already been reassigned to another workspace.
	slugs := slugstore.New(db)
	if err := slugs.Put(ctx, models.SlugMapping{
		Slug:        "alpha",
		WorkspaceID: other.ID,
		CreatedBy:   other.CreatedBy,
	}); err != nil {
		t.Fatalf("mapping setup failed: %v", err)
	}

	if _, err := p.Rename(ctx, owner.UID, ws, "gamma"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	mapping, err := slugs.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("old mapping lookup failed: %v", err)
	}
	if mapping.WorkspaceID != other.ID {
		t.Errorf("reassigned mapping points at %s, want it untouched at %s",
			mapping.WorkspaceID.Hex(), other.ID.Hex())
	}
}
