package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/exam-scheduler/internal/persistence"
)

var (
	// ErrForbidden is returned when the access policy denies the acting principal.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidState is returned when a workflow action is not allowed from the exam's status.
	ErrInvalidState = errors.New("application: invalid state")
	// ErrConflict is returned when a write would break a uniqueness or scheduling rule.
	ErrConflict = errors.New("application: conflict")
	// ErrUnavailable is returned when the store could not complete a unit of work
	// after retrying transient failures. Callers may try again.
	ErrUnavailable = errors.New("application: store unavailable")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ForbiddenError carries the policy decision that denied the action.
type ForbiddenError struct {
	Role   string
	Action string
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
	}
	return fmt.Sprintf("role %s may not %s: %s", e.Role, e.Action, e.Reason)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// StateError reports a workflow action attempted from a status that does not allow it.
type StateError struct {
	ExamID string
	Status string
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("exam %s in status %s does not allow %s", e.ExamID, e.Status, e.Action)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// ConflictError describes the rule a write would have broken.
type ConflictError struct {
	Reason string
	Field  string
	Value  string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s (%s=%s)", e.Reason, e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func conflict(reason, field, value string) error {
	return &ConflictError{Reason: reason, Field: field, Value: value}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func fieldError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}

// mapStoreError translates persistence failures that escape a unit of work.
// Errors already expressed in application terms pass through unchanged.
func mapStoreError(err error, resource string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrConflict), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, persistence.ErrTxConflict):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, persistence.ErrNotFound):
		return &NotFoundError{Resource: resource}
	case errors.Is(err, persistence.ErrDuplicate):
		return conflict(resource+" conflicts with an existing record", "", "")
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return conflict(resource+" is referenced by other records", "", "")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fieldError(resource, "value rejected by storage constraints")
	}
	return err
}
