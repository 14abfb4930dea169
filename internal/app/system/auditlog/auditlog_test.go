package auditlog

import (
	"context"
	"strings"
	"testing"

	"github.com/dalemusser/quorum/internal/app/store/audit"
)

func TestRedactPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/workspaces/acme", "/workspaces/:slug"},
		{"/workspaces/acme/members", "/workspaces/:slug/members"},
		{"/workspaces/acme/members/665f1c0a9b1e8c0001a2b3c4", "/workspaces/:slug/members/:id"},
		{"/workspaces/acme/meetings/665f1c0a9b1e8c0001a2b3c4/status", "/workspaces/:slug/meetings/:id/status"},
		{"/workspaces/acme/invites/665f1c0a9b1e8c0001a2b3c4", "/workspaces/:slug/invites/:id"},
		{"/invites/secrettoken123/accept", "/invites/:token/accept"},
		{"/invites/secrettoken123", "/invites/:token"},
		{"/health", "/health"},
		{"/workspaces", "/workspaces"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := RedactPath(tt.path); got != tt.want {
				t.Errorf("RedactPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRedactPath_NeverKeepsToken(t *testing.T) {
	const token = "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"
	for _, path := range []string{
		"/invites/" + token,
		"/invites/" + token + "/accept",
		"/invites/" + token + "/reject",
	} {
		if got := RedactPath(path); strings.Contains(got, token) {
			t.Errorf("RedactPath(%q) leaked the token: %q", path, got)
		}
	}
}

func TestParseResource(t *testing.T) {
	tests := []struct {
		path string
		want audit.Resource
	}{
		{
			path: "/workspaces/acme/meetings/665f1c0a9b1e8c0001a2b3c4",
			want: audit.Resource{WorkspaceSlug: "acme", EntityType: "meeting", EntityID: "665f1c0a9b1e8c0001a2b3c4"},
		},
		{
			path: "/workspaces/acme/decisions",
			want: audit.Resource{WorkspaceSlug: "acme", EntityType: "decision"},
		},
		{
			path: "/workspaces/acme",
			want: audit.Resource{WorkspaceSlug: "acme"},
		},
		{
			path: "/invites/secrettoken123/accept",
			want: audit.Resource{EntityType: "invite"},
		},
		{
			path: "/health",
			want: audit.Resource{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := ParseResource(tt.path)
			if got != tt.want {
				t.Errorf("ParseResource(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestHashActorKey(t *testing.T) {
	a := HashActorKey("user-1")
	if len(a) != 16 {
		t.Fatalf("hash length = %d, want 16", len(a))
	}
	if b := HashActorKey("user-1"); b != a {
		t.Error("same key should hash the same")
	}
	if HashActorKey("user-2") == a {
		t.Error("different keys should hash differently")
	}
	if strings.Contains(a, "user") {
		t.Error("hash should not contain the raw key")
	}
}

func TestTruncateError(t *testing.T) {
	if got := TruncateError("short", 10); got != "short" {
		t.Errorf("TruncateError short = %q", got)
	}
	if got := TruncateError("0123456789abcdef", 10); got != "0123456789" {
		t.Errorf("TruncateError long = %q", got)
	}
	if got := TruncateError("", 10); got != "" {
		t.Errorf("TruncateError empty = %q", got)
	}
}

func TestRecord_NopLoggerIsSafe(t *testing.T) {
	// Must not panic with a nil store or a nil logger value.
	NewNopLogger().Record(context.Background(), audit.Entry{RouteID: "test.route"})

	var l *Logger
	l.Record(context.Background(), audit.Entry{RouteID: "test.route"})
}
