package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuth, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindGone, http.StatusGone},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindIntegrity, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	typed := Validation("bad slug")
	if got := From(typed); got != typed {
		t.Error("From should return the typed error unchanged")
	}

	wrapped := fmt.Errorf("handler: %w", Conflict("slug taken"))
	if got := From(wrapped); got.Kind != KindConflict || got.Message != "slug taken" {
		t.Errorf("From(wrapped) = %+v", got)
	}

	plain := errors.New("mongo: connection refused")
	got := From(plain)
	if got.Kind != KindInternal {
		t.Errorf("From(plain) kind = %q, want internal", got.Kind)
	}
	if got.Message != "internal error" {
		t.Errorf("From(plain) message = %q, internals must not leak", got.Message)
	}
	if !errors.Is(got, plain) {
		t.Error("From(plain) should keep the cause wrapped")
	}
}

func TestErrorAndUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	e := Wrap(KindConflict, "slug taken", cause)

	if e.Error() != "slug taken: duplicate key" {
		t.Errorf("Error() = %q", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Error("Unwrap should expose the cause")
	}
	if New(KindNotFound, "gone").Error() != "gone" {
		t.Error("Error() without cause should be the message alone")
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, Wrap(KindConflict, "slug taken", errors.New("E11000 duplicate key")))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Error != "slug taken" || body.Code != "conflict" {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteError_UntypedHidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("mongo: server selection timeout at 10.0.0.3"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Error != "internal error" {
		t.Errorf("body error = %q, cause must not leak", body.Error)
	}
}
