package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestTaxonomyStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad input", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewUnauthorized("no token"), "UNAUTHENTICATED", http.StatusUnauthorized},
		{NewForbidden("not allowed"), "FORBIDDEN", http.StatusForbidden},
		{NewNotFound("ticket", nil), "NOT_FOUND", http.StatusNotFound},
		{NewConflict("duplicate", nil), "CONFLICT", http.StatusConflict},
		{NewInternalError(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		if de.Code != tc.code || de.HTTPStatus != tc.status {
			t.Errorf("got code=%s status=%d, want %s %d", de.Code, de.HTTPStatus, tc.code, tc.status)
		}
	}
}

func TestToDomainErrorWrapsUnknownAsInternal(t *testing.T) {
	de := ToDomainError(errors.New("disk on fire"))
	if de.Code != "INTERNAL_ERROR" || de.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected mapping: %+v", de)
	}
	if de.Message != "internal server error" {
		t.Fatalf("internal detail must not leak into the message: %q", de.Message)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	if de.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for pgx.ErrNoRows, got %s", de.Code)
	}
}

func TestToDomainErrorPreservesWrappedDomainError(t *testing.T) {
	inner := NewConflict("name taken", map[string]any{"name": "Billing"})
	de := ToDomainError(fmt.Errorf("create category: %w", inner))
	if de.Code != "CONFLICT" {
		t.Fatalf("expected wrapped CONFLICT preserved, got %s", de.Code)
	}
	if de.Details["name"] != "Billing" {
		t.Fatalf("details lost: %+v", de.Details)
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewForbidden("nope"))
	if !IsCode(err, "FORBIDDEN") {
		t.Fatal("IsCode should unwrap")
	}
	if IsCode(err, "NOT_FOUND") {
		t.Fatal("IsCode matched the wrong code")
	}
	if IsCode(nil, "FORBIDDEN") {
		t.Fatal("nil error has no code")
	}
}
