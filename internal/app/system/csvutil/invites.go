// internal/app/system/csvutil/invites.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/quorum/internal/app/system/inputval"
	"github.com/dalemusser/quorum/internal/domain/models"
)

// InviteCSVRow is the normalized row produced by ParseInviteCSV.
type InviteCSVRow struct {
	FullName string
	Email    string
	Role     models.Role
}

// RowError describes one rejected CSV row.
type RowError struct {
	Line   int
	Reason string
	Raw    []string
}

// ParseResult holds the outcome of a CSV pre-scan: either every row is
// usable or the caller gets the full rejection list. Nothing is written
// to the DB during parsing, so it's safe to run before any mutations.
type ParseResult struct {
	Rows   []InviteCSVRow
	Errors []RowError
}

// HasErrors reports whether any row was rejected.
func (r *ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// FormatErrors renders up to maxShow rejections as a single message
// suitable for an API error body. Returns "" when there are no errors.
func (r *ParseResult) FormatErrors(maxShow int) string {
	if len(r.Errors) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "upload rejected: %d row(s) are invalid.", len(r.Errors))

	show := len(r.Errors)
	if maxShow > 0 && show > maxShow {
		show = maxShow
	}
	for i := 0; i < show; i++ {
		e := r.Errors[i]
		fmt.Fprintf(&b, " line %d: %s.", e.Line, e.Reason)
	}
	if rest := len(r.Errors) - show; rest > 0 {
		fmt.Fprintf(&b, " and %d more.", rest)
	}
	return b.String()
}

// ParseOptions controls parsing limits.
type ParseOptions struct {
	MaxRows int // 0 means unlimited
}

// DefaultParseOptions returns options with no row cap; callers that accept
// uploads should pass MaxRows explicitly.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{}
}

// ErrTooManyRows is returned when the file exceeds ParseOptions.MaxRows.
var ErrTooManyRows = errors.New("csv has too many rows")

// ParseInviteCSV reads invite rows of the form "full name,email,role",
// skips a header if present, and validates each row. Role must be one of
// admin, member, or viewer; owner invites are never accepted in bulk.
func ParseInviteCSV(rd io.Reader, opts ParseOptions) (*ParseResult, error) {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ParseResult{}
	seen := make(map[string]bool)
	line := 0
	header := false

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) == 0 {
			line++
			continue
		}
		line++

		// Strip a UTF-8 BOM from the very first cell.
		if line == 1 && len(rec[0]) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}

		name, email, role := cell(rec, 0), cell(rec, 1), cell(rec, 2)
		if name == "" && email == "" && role == "" {
			continue
		}

		// Header detection on the first non-empty row.
		if !header && line == 1 &&
			(strings.EqualFold(name, "full name") || strings.EqualFold(name, "name")) &&
			strings.EqualFold(email, "email") {
			header = true
			continue
		}

		if opts.MaxRows > 0 && len(result.Rows)+len(result.Errors) >= opts.MaxRows {
			return nil, ErrTooManyRows
		}

		if name == "" {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "missing full name", Raw: rec})
			continue
		}
		if email == "" {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "missing email", Raw: rec})
			continue
		}
		if !inputval.IsValidEmail(email) {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "invalid email", Raw: rec})
			continue
		}

		parsed, err := models.ParseMemberRole(role)
		if err != nil || parsed == models.RoleOwner {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "invalid or missing role", Raw: rec})
			continue
		}

		key := strings.ToLower(email)
		if seen[key] {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "duplicate email", Raw: rec})
			continue
		}
		seen[key] = true

		result.Rows = append(result.Rows, InviteCSVRow{
			FullName: name,
			Email:    email,
			Role:     parsed,
		})
	}

	return result, nil
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}
