package alerts

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for lifecycle transitions outside the
// allowed state machine.
var ErrInvalidTransition = errors.New("invalid alert status transition")

// ErrResolutionRequired is returned when a terminal transition is attempted
// without resolution details.
var ErrResolutionRequired = errors.New("resolution details required")

// CanTransition reports whether the lifecycle allows moving from one status
// to another. FALSE_POSITIVE is reachable from any non-terminal state;
// RESOLVED and FALSE_POSITIVE are terminal.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case StatusAcknowledged:
		return from == StatusNew
	case StatusInProgress:
		return from == StatusAcknowledged
	case StatusResolved:
		return from == StatusAcknowledged || from == StatusInProgress
	case StatusFalsePositive:
		return true
	default:
		return false
	}
}

// Transition applies a status change to the alert, enforcing the lifecycle
// rules: terminal transitions require resolution details.
func (a *Alert) Transition(to Status, resolutionDetails string) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	if to.IsTerminal() && resolutionDetails == "" {
		return fmt.Errorf("%w for transition to %s", ErrResolutionRequired, to)
	}
	a.Status = to
	if resolutionDetails != "" {
		a.ResolutionDetails = resolutionDetails
	}
	return nil
}

// Assign moves a NEW alert to ACKNOWLEDGED and records the operator
func (a *Alert) Assign(operator string) error {
	if err := a.Transition(StatusAcknowledged, ""); err != nil {
		return err
	}
	a.AssignedTo = operator
	return nil
}
