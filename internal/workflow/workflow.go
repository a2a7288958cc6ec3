// Package workflow holds the exam status machine. It is pure: callers load the
// current status, ask for the next one and persist it themselves.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle position of an exam.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusProposed    Status = "PROPOSED"
	StatusAccepted    Status = "ACCEPTED"
	StatusRejected    Status = "REJECTED"
	StatusCancelled   Status = "CANCELLED"
	StatusRescheduled Status = "RESCHEDULED"
	StatusConfirmed   Status = "CONFIRMED"
)

var allStatuses = []Status{
	StatusDraft,
	StatusProposed,
	StatusAccepted,
	StatusRejected,
	StatusCancelled,
	StatusRescheduled,
	StatusConfirmed,
}

// Action is an event that may move an exam between statuses.
type Action string

const (
	ActionPropose   Action = "PROPOSE"
	ActionAccept    Action = "ACCEPT"
	ActionReject    Action = "REJECT"
	ActionCancel    Action = "CANCEL"
	ActionAlternate Action = "ALTERNATE"
	ActionConfirm   Action = "CONFIRM"
)

// ErrInvalidTransition is returned when an action is not allowed from a status.
var ErrInvalidTransition = errors.New("workflow: invalid transition")

// TransitionError describes a rejected (status, action) pair.
type TransitionError struct {
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("workflow: cannot %s an exam in status %s", strings.ToLower(string(e.Action)), e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type transition struct {
	from        []Status
	to          Status
	assignsSlot bool
}

var transitions = map[Action]transition{
	ActionPropose: {
		from:        []Status{StatusDraft, StatusRejected, StatusCancelled},
		to:          StatusProposed,
		assignsSlot: true,
	},
	ActionAccept:    {from: []Status{StatusProposed}, to: StatusAccepted},
	ActionReject:    {from: []Status{StatusProposed}, to: StatusRejected},
	ActionCancel:    {from: []Status{StatusProposed}, to: StatusCancelled},
	ActionAlternate: {from: []Status{StatusProposed}, to: StatusRejected, assignsSlot: true},
	ActionConfirm:   {from: []Status{StatusAccepted}, to: StatusConfirmed},
}

// ParseStatus converts a stored or user-supplied label into a Status.
func ParseStatus(value string) (Status, error) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("workflow: unknown status %q", value)
}

// ParseAction converts a label into an Action.
func ParseAction(value string) (Action, error) {
	candidate := Action(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := transitions[candidate]; ok {
		return candidate, nil
	}
	return "", fmt.Errorf("workflow: unknown action %q", value)
}

// Statuses returns every known status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Next returns the status reached by applying action to from.
func Next(from Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return from, &TransitionError{From: from, Action: action}
	}
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return from, &TransitionError{From: from, Action: action}
}

// AssignsSlot reports whether the action writes a new date/hour onto the exam.
func AssignsSlot(action Action) bool {
	return transitions[action].assignsSlot
}

// Allowed lists the actions applicable from the given status, in a stable order.
func Allowed(from Status) []Action {
	order := []Action{ActionPropose, ActionAccept, ActionReject, ActionCancel, ActionAlternate, ActionConfirm}
	var out []Action
	for _, a := range order {
		if _, err := Next(from, a); err == nil {
			out = append(out, a)
		}
	}
	return out
}

// Reachable reports whether some single action moves from one status to another.
func Reachable(from, to Status) bool {
	for _, a := range Allowed(from) {
		if transitions[a].to == to {
			return true
		}
	}
	return false
}

// HoldsSlot reports whether an exam in status s occupies its room slot.
func HoldsSlot(s Status) bool {
	switch s {
	case StatusProposed, StatusAccepted, StatusConfirmed:
		return true
	default:
		return false
	}
}

// ActiveStatuses returns the statuses that hold a room slot.
func ActiveStatuses() []Status {
	return []Status{StatusProposed, StatusAccepted, StatusConfirmed}
}
