// Package stages provides the formation pipeline stages that implement
// the ports.Stage interface: weight resolution, captain seeding,
// optimization, and balance analysis.
package stages

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Common errors returned by pipeline stages.
var (
	// ErrEmptyStageName is returned when creating a stage with an
	// empty name.
	ErrEmptyStageName = errors.New("stage name cannot be empty")

	// ErrMissingRoster is returned when the roster is absent from the
	// run state.
	ErrMissingRoster = errors.New("roster not found in state")

	// ErrMissingResolved is returned when resolved competitors are
	// absent from the run state.
	ErrMissingResolved = errors.New("resolved competitors not found in state")

	// ErrMissingTeams is returned when teams are absent from the run
	// state.
	ErrMissingTeams = errors.New("teams not found in state")

	// ErrSearchExhausted is returned when exhaustive search finishes
	// its budget without ever scoring a complete assignment. With
	// capacity-filtered candidates this requires a residual pool larger
	// than the remaining seats, which the seeder rules out.
	ErrSearchExhausted = errors.New("exhaustive search found no complete assignment")
)

// Penalty weights for the greedy look-ahead scoring. These shape
// choice order only; capacity is enforced by candidate filtering and
// never by penalty.
const (
	// lookaheadPenaltyWeight is charged when a placement would create a
	// new strongest team while high-value competitors remain unassigned.
	lookaheadPenaltyWeight = 75.0

	// antiStackPenaltyWeight is charged when the anti-stacking
	// exclusion could not be honored because the strongest team was the
	// only one with capacity.
	antiStackPenaltyWeight = 500.0
)

// Package-level validator instance for stage configuration validation.
var validate = validator.New()
