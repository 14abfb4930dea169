package models

import (
	"testing"
	"time"
)

func TestParseMemberRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"owner", RoleOwner, false},
		{"admin", RoleAdmin, false},
		{"member", RoleMember, false},
		{"viewer", RoleViewer, false},
		{"OWNER", RoleOwner, false},
		{"  Admin  ", RoleAdmin, false},
		{"", "", true},
		{"superadmin", "", true},
		{"moderator", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMemberRole(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMemberRole(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMemberRole(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMemberRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePlanTier(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"basic", PlanTierBasic, false},
		{"pro", PlanTierPro, false},
		{"PRO", PlanTierPro, false},
		{" Basic ", PlanTierBasic, false},
		{"", "", true},
		{"enterprise", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePlanTier(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePlanTier(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlanTier(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePlanTier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseInviteStatus(t *testing.T) {
	valid := []InviteStatus{InvitePending, InviteAccepted, InviteRejected, InviteRevoked, InviteExpired}
	for _, s := range valid {
		got, err := ParseInviteStatus(string(s))
		if err != nil {
			t.Errorf("ParseInviteStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseInviteStatus(%q) = %q", s, got)
		}
	}

	for _, bad := range []string{"", "cancelled", "done"} {
		if _, err := ParseInviteStatus(bad); err == nil {
			t.Errorf("ParseInviteStatus(%q) expected error", bad)
		}
	}
}

func TestInviteStatusTransitions(t *testing.T) {
	tests := []struct {
		from InviteStatus
		to   InviteStatus
		want bool
	}{
		{InvitePending, InviteAccepted, true},
		{InvitePending, InviteRejected, true},
		{InvitePending, InviteRevoked, true},
		{InvitePending, InviteExpired, true},
		{InvitePending, InvitePending, false},

		// terminal states admit nothing, including back to pending
		{InviteAccepted, InvitePending, false},
		{InviteAccepted, InviteRejected, false},
		{InviteRejected, InviteAccepted, false},
		{InviteRevoked, InviteAccepted, false},
		{InviteExpired, InviteAccepted, false},
		{InviteExpired, InvitePending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestInviteStatusTerminal(t *testing.T) {
	if InvitePending.Terminal() {
		t.Error("pending should not be terminal")
	}
	for _, s := range []InviteStatus{InviteAccepted, InviteRejected, InviteRevoked, InviteExpired} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
}

func TestInviteEffectiveStatus(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		inv  Invite
		want InviteStatus
	}{
		{
			name: "pending before expiry",
			inv:  Invite{Status: InvitePending, ExpiresAt: now.Add(time.Hour)},
			want: InvitePending,
		},
		{
			name: "pending past expiry reads as expired",
			inv:  Invite{Status: InvitePending, ExpiresAt: now.Add(-time.Hour)},
			want: InviteExpired,
		},
		{
			name: "accepted is unaffected by expiry",
			inv:  Invite{Status: InviteAccepted, ExpiresAt: now.Add(-time.Hour)},
			want: InviteAccepted,
		},
		{
			name: "revoked is unaffected by expiry",
			inv:  Invite{Status: InviteRevoked, ExpiresAt: now.Add(-time.Hour)},
			want: InviteRevoked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inv.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserProfileHasSlug(t *testing.T) {
	p := UserProfile{WorkspaceSlugs: []string{"acme", "globex"}}

	if !p.HasSlug("acme") {
		t.Error("expected HasSlug(acme) = true")
	}
	if p.HasSlug("initech") {
		t.Error("expected HasSlug(initech) = false")
	}
	if (UserProfile{}).HasSlug("acme") {
		t.Error("empty profile should have no slugs")
	}
}
