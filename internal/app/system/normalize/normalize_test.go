package normalize

import (
	"errors"
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
		{"Mixed.Case@Domain.ORG", "mixed.case@domain.org"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Doe", "John Doe"},
		{"  John Doe  ", "John Doe"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
		{"lowercase name", "lowercase name"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"active", "active"},
		{"ACTIVE", "active"},
		{"  Archived  ", "archived"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Status(tt.input)
			if got != tt.want {
				t.Errorf("Status(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"acme", "acme"},
		{"ACME", "acme"},
		{"  Acme Corp  ", "acme-corp"},
		{"acme_corp.2", "acme-corp-2"},
		{"--acme--", "acme"},
		{"a c m e", "a-c-m-e"},
		{"Café", "cafe"},
		{"acme!!!corp", "acmecorp"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Slug(tt.input)
			if err != nil {
				t.Fatalf("Slug(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlug_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"single char", "a"},
		{"only symbols", "!!!"},
		{"too long", strings.Repeat("a", 49)},
		{"reserved api", "api"},
		{"reserved admin", "ADMIN"},
		{"reserved www", "www"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Slug(tt.input)
			if !errors.Is(err, ErrBadSlug) {
				t.Errorf("Slug(%q) = (%q, %v), want ErrBadSlug", tt.input, got, err)
			}
		})
	}
}

func TestSlug_MaxLengthAccepted(t *testing.T) {
	input := strings.Repeat("a", MaxSlugLen)
	got, err := Slug(input)
	if err != nil {
		t.Fatalf("Slug(%q) returned error: %v", input, err)
	}
	if got != input {
		t.Errorf("Slug(%q) = %q, want unchanged", input, got)
	}
}
