package core

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a purchase. The server owns it; the client
// only proposes transitions.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusDelivered Status = "DELIVERED"
	StatusCanceled  Status = "CANCELED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusDelivered, StatusCanceled},
	StatusDelivered: nil,
	StatusCanceled:  nil,
}

// ParseStatus accepts any casing of a known status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown purchase status %q", s)
	}
	return st, nil
}

// Transitions lists the statuses reachable from s. Terminal statuses return nil,
// so callers offer no controls for them.
func (s Status) Transitions() []Status {
	next := transitions[s]
	if len(next) == 0 {
		return nil
	}
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

// TransitionError reports a status change the lifecycle does not allow.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change purchase status from %s to %s", e.From, e.To)
}
