package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/exam-scheduler/internal/persistence"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"start_hour": "invalid", "exam_date": "invalid"}}
	if got := withFields.Error(); got != "validation failed: exam_date, start_hour" {
		t.Fatalf("expected sorted field list, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err      error
		sentinel error
		kind     string
	}{
		{&NotFoundError{Resource: "exam", ID: "e1"}, ErrNotFound, "not_found"},
		{&ForbiddenError{Role: "STUDENT", Action: "exam.propose"}, ErrForbidden, "forbidden"},
		{&StateError{ExamID: "e1", Status: "PROPOSED", Action: "CONFIRM"}, ErrInvalidState, "invalid_state"},
		{&ConflictError{Reason: "slot taken"}, ErrConflict, "conflict"},
		{fmt.Errorf("%w: busy", ErrUnavailable), ErrUnavailable, "unavailable"},
		{fieldError("exam_date", "bad"), nil, "validation"},
		{errors.New("boom"), nil, "unexpected"},
	}

	for _, tc := range cases {
		wrapped := fmt.Errorf("outer: %w", tc.err)
		if tc.sentinel != nil && !errors.Is(wrapped, tc.sentinel) {
			t.Fatalf("expected %T to match %v", tc.err, tc.sentinel)
		}
		if got := ErrorKind(wrapped); got != tc.kind {
			t.Fatalf("expected kind %q for %T, got %q", tc.kind, tc.err, got)
		}
	}

	if ErrorKind(nil) != "" {
		t.Fatalf("expected empty kind for nil error")
	}
}

func TestMapStoreError(t *testing.T) {
	t.Parallel()

	if mapStoreError(nil, "exam") != nil {
		t.Fatalf("expected nil to stay nil")
	}

	state := &StateError{ExamID: "e1"}
	if got := mapStoreError(state, "exam"); got != state {
		t.Fatalf("expected application errors to pass through, got %v", got)
	}

	cases := []struct {
		in   error
		want error
	}{
		{fmt.Errorf("gave up: %w", persistence.ErrTxConflict), ErrUnavailable},
		{persistence.ErrNotFound, ErrNotFound},
		{persistence.ErrDuplicate, ErrConflict},
		{persistence.ErrForeignKeyViolation, ErrConflict},
	}
	for _, tc := range cases {
		if got := mapStoreError(tc.in, "exam"); !errors.Is(got, tc.want) {
			t.Fatalf("expected %v to map to %v, got %v", tc.in, tc.want, got)
		}
	}

	var vErr *ValidationError
	if got := mapStoreError(persistence.ErrConstraintViolation, "exam"); !errors.As(got, &vErr) {
		t.Fatalf("expected constraint violation to become a validation error, got %v", got)
	}

	unknown := errors.New("disk on fire")
	if got := mapStoreError(unknown, "exam"); got != unknown {
		t.Fatalf("expected unknown errors to pass through, got %v", got)
	}
}
