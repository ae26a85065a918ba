package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NotFound("patient not found")); got != CodeNotFound {
		t.Errorf("expected not_found, got %s", got)
	}
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Errorf("expected internal_error for plain error, got %s", got)
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("cancel appointment: %w", Forbidden("not your appointment"))
	if got := CodeOf(err); got != CodeForbidden {
		t.Errorf("expected forbidden through wrapping, got %s", got)
	}
}

func TestIs_MatchesOnCode(t *testing.T) {
	err := Conflict("doctor has a conflicting appointment")
	if !errors.Is(err, Conflict("anything")) {
		t.Error("expected errors.Is to match on code")
	}
	if errors.Is(err, NotFound("anything")) {
		t.Error("conflict must not match not_found")
	}
}

func TestWithCause_HidesCauseFromMessage(t *testing.T) {
	base := Conflict("overlap")
	err := base.WithCause(errors.New("pq: exclusion constraint violated"))
	if err.Message != "overlap" {
		t.Errorf("cause leaked into message: %s", err.Message)
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to keep its code")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:      http.StatusBadRequest,
		CodeNotFound:        http.StatusNotFound,
		CodeConflict:        http.StatusConflict,
		CodeAlreadyTerminal: http.StatusConflict,
		CodeForbidden:       http.StatusForbidden,
		CodeInternal:        http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatus(code); got != want {
			t.Errorf("%s: expected %d, got %d", code, want, got)
		}
	}
}
