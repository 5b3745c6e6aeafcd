package domain

import (
	"errors"
	"fmt"
)

// Common domain errors surfaced by the engine.
var (
	// ErrInsufficientRoster indicates fewer competitors than the
	// configuration requires. The run is rejected before any
	// assignment; no partial teams are returned.
	ErrInsufficientRoster = errors.New("insufficient roster for configured teams")

	// ErrCapacityViolation indicates a candidate assignment would
	// exceed the team size. Candidate filtering makes this structurally
	// impossible; seeing it means an internal bug and the run aborts.
	ErrCapacityViolation = errors.New("team capacity invariant violated")

	// ErrIncompleteAssignment indicates the final teams and substitutes
	// do not account for every roster entry exactly once. Internal bug
	// class, fatal for the run.
	ErrIncompleteAssignment = errors.New("assignment does not cover roster exactly once")

	// ErrInvalidConfiguration indicates the run configuration failed
	// validation.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// RosterError reports a roster that cannot satisfy the configured team
// shape. It wraps ErrInsufficientRoster.
type RosterError struct {
	// Required is the number of competitors the configuration needs.
	Required int

	// Got is the number of competitors supplied.
	Got int
}

// Error implements the error interface for RosterError.
func (e *RosterError) Error() string {
	return fmt.Sprintf("roster error: need %d checked-in competitors, got %d: %v",
		e.Required, e.Got, ErrInsufficientRoster)
}

// Unwrap returns ErrInsufficientRoster for errors.Is matching.
func (e *RosterError) Unwrap() error { return ErrInsufficientRoster }

// NewRosterError creates a RosterError with the given shape.
func NewRosterError(required, got int) *RosterError {
	return &RosterError{Required: required, Got: got}
}

// CapacityError reports a team exceeding its configured size, with
// enough state to debug the offending assignment.
// It wraps ErrCapacityViolation.
type CapacityError struct {
	// TeamIndex is the team that exceeded its size.
	TeamIndex int

	// Size is the team's member count at detection time.
	Size int

	// Limit is the configured team size.
	Limit int
}

// Error implements the error interface for CapacityError.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity error: team %d holds %d members, limit %d: %v",
		e.TeamIndex, e.Size, e.Limit, ErrCapacityViolation)
}

// Unwrap returns ErrCapacityViolation for errors.Is matching.
func (e *CapacityError) Unwrap() error { return ErrCapacityViolation }

// NewCapacityError creates a CapacityError with the given state.
func NewCapacityError(teamIndex, size, limit int) *CapacityError {
	return &CapacityError{TeamIndex: teamIndex, Size: size, Limit: limit}
}
