package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	base := Newf(NotFound, "no entry matching %q", "algebra")
	wrapped := fmt.Errorf("move: %w", base)

	if !Is(wrapped, NotFound) {
		t.Fatalf("expected NOT_FOUND, got %q", CodeOf(wrapped))
	}
	if Is(wrapped, Conflict) {
		t.Error("unexpected CONFLICT match")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("plain errors carry no code")
	}
}

func TestStoreKeepsCauseVerbatim(t *testing.T) {
	cause := errors.New("database is locked")
	err := Store(cause)
	if err.Error() != "database is locked" {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Store error should unwrap to its cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[string]int{
		NotFound:        http.StatusNotFound,
		NoAvailability:  http.StatusConflict,
		Conflict:        http.StatusConflict,
		Unauthenticated: http.StatusUnauthorized,
		InvalidInput:    http.StatusBadRequest,
		StoreError:      http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := HTTPStatus(New(code, "x")); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
	if got := HTTPStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("plain error status = %d", got)
	}
}
