package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOfWrappedError(t *testing.T) {
	base := Wrap(CodeInternal, "failed to save job", errors.New("connection reset"))
	wrapped := fmt.Errorf("transaction: %w", base)

	if CodeOf(wrapped) != CodeInternal {
		t.Errorf("CodeOf = %v, want internal", CodeOf(wrapped))
	}
	if !Is(wrapped, CodeInternal) {
		t.Error("Is must see through fmt.Errorf wrapping")
	}
	if Is(wrapped, CodeNotFound) {
		t.Error("Is must not match a different code")
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Error("plain errors default to internal")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{PermissionDenied(""), http.StatusForbidden},
		{NotFound("job"), http.StatusNotFound},
		{DuplicateApplication(), http.StatusConflict},
		{InvalidTransition("job is already archived"), http.StatusBadRequest},
		{InvalidStatus("on_hold"), http.StatusBadRequest},
		{New(CodeValidation, "invalid id"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestMessageOfHidesInternals(t *testing.T) {
	err := Wrap(CodeInternal, "failed to save job", errors.New("pq: deadlock detected"))
	if MessageOf(err) != "failed to save job" {
		t.Errorf("MessageOf = %q, must not leak the cause", MessageOf(err))
	}
	if MessageOf(errors.New("pq: deadlock detected")) != "internal server error" {
		t.Error("uncoded errors must map to a generic message")
	}
	if PermissionDenied("").Message != "permission denied" {
		t.Error("empty permission message must get the default")
	}
}
