// internal/app/system/limits/limits.go
package limits

import "time"

// Quota ceilings enforced by the provisioning and invite paths. Ceilings
// are checked inside the same transaction that performs the write, so a
// concurrent pair of requests cannot both slip under a ceiling.
const (
	// MaxWorkspacesPerUser caps the number of distinct workspaces a user
	// may belong to. It also bounds the profile's cached slug set.
	MaxWorkspacesPerUser = 20

	// MaxOwnedBasicWorkspaces caps how many basic-tier workspaces a single
	// user may create and own.
	MaxOwnedBasicWorkspaces = 3

	// MaxMembersPerWorkspace caps total memberships in one workspace.
	MaxMembersPerWorkspace = 200
)

// DefaultInviteTTL is how long an invite stays pending before it expires.
const DefaultInviteTTL = 14 * 24 * time.Hour

// MaxJSONBodySize is the maximum size for JSON request bodies.
// This limit helps prevent memory exhaustion from oversized requests.
const MaxJSONBodySize = 1 << 20 // 1 MB
