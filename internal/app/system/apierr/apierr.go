// Package apierr defines the typed error taxonomy for the JSON API and
// translates errors into exactly one status code and body at the boundary.
//
// Every transaction or store failure surfacing to a handler is wrapped in
// one of these kinds; handlers call WriteError and never hand-roll status
// codes for domain failures.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind classifies an API error. Each kind maps to one HTTP status.
type Kind string

const (
	// KindValidation: malformed input. Never retried automatically.
	KindValidation Kind = "validation"
	// KindAuth: missing or invalid credential.
	KindAuth Kind = "unauthenticated"
	// KindAuthorization: insufficient role or quota exceeded. The caller
	// must change approach, not retry identically.
	KindAuthorization Kind = "forbidden"
	// KindNotFound: the referenced document does not exist.
	KindNotFound Kind = "not_found"
	// KindConflict: lost a uniqueness race or invalid state transition.
	KindConflict Kind = "conflict"
	// KindGone: the resource existed but is past its lifetime (expired invite).
	KindGone Kind = "gone"
	// KindRateLimited: over the per-window cap. Wait Retry-After seconds.
	KindRateLimited Kind = "rate_limited"
	// KindIntegrity: a mapping references a missing document. Surfaced,
	// never silently auto-repaired, since silent repair could mask real
	// corruption.
	KindIntegrity Kind = "data_integrity"
	// KindInternal: everything else.
	KindInternal Kind = "internal"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindIntegrity, KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Error is a typed API error carrying its kind and a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, not exposed to callers
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a typed error with a caller-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a typed error wrapping an underlying cause. The cause is
// kept for logs; only the message reaches the response body.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for New(KindValidation, message).
func Validation(message string) *Error { return New(KindValidation, message) }

// Forbidden is shorthand for New(KindAuthorization, message).
func Forbidden(message string) *Error { return New(KindAuthorization, message) }

// Conflict is shorthand for New(KindConflict, message).
func Conflict(message string) *Error { return New(KindConflict, message) }

// NotFound is shorthand for New(KindNotFound, message).
func NotFound(message string) *Error { return New(KindNotFound, message) }

// From extracts the typed error from err, or wraps err as KindInternal
// with a generic message so internals never leak to callers.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// body is the JSON error envelope.
type body struct {
	Error string `json:"error"`
	Code  Kind   `json:"code"`
}

// WriteError translates err to its status code and JSON body. Internal
// causes are not echoed; callers log them separately.
func WriteError(w http.ResponseWriter, err error) {
	ae := From(err)
	WriteJSON(w, ae.Kind.Status(), body{Error: ae.Message, Code: ae.Kind})
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
