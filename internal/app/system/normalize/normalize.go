// Package normalize provides canonical forms for untrusted input fields.
//
// Normalization happens once at the boundary; stores and policies assume
// already-normalized values.
package normalize

import (
	"errors"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slug limits.
const (
	MinSlugLen = 2
	MaxSlugLen = 48
)

// ErrBadSlug is returned by Slug for values that cannot be normalized to a
// valid slug.
var ErrBadSlug = errors.New("slug must be 2-48 characters of a-z, 0-9, and hyphens")

// reserved slugs that would shadow API routes or look official.
var reservedSlugs = map[string]struct{}{
	"api": {}, "admin": {}, "app": {}, "www": {}, "health": {},
	"invites": {}, "workspaces": {}, "onboarding": {},
}

// Slug normalizes a candidate workspace slug: unicode-folds, lowercases,
// maps runs of separators to single hyphens, and strips everything outside
// [a-z0-9-]. The normalized form is the registry key; callers must use the
// returned value, not the input.
func Slug(s string) (string, error) {
	folded := text.Fold(strings.TrimSpace(s))

	var b strings.Builder
	prevHyphen := true // leading hyphens are dropped
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == '_' || r == ' ' || r == '.':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
		// anything else is dropped
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) < MinSlugLen || len(slug) > MaxSlugLen {
		return "", ErrBadSlug
	}
	if _, ok := reservedSlugs[slug]; ok {
		return "", ErrBadSlug
	}
	return slug, nil
}
