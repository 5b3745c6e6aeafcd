package domain

import "time"

// RunResult is the complete output of one formation run: the teams,
// the audit trail, the balance metrics, and the per-competitor weight
// traces for UI display.
type RunResult struct {
	// RunID uniquely identifies this run (UUID).
	RunID string `json:"run_id"`

	// Teams holds the final team assignments, captains at position 0.
	Teams []Team `json:"teams"`

	// Substitutes holds roster overflow beyond the configured
	// team capacity, lowest weights first. Empty when the roster size
	// matches teamCount x teamSize.
	Substitutes []ResolvedCompetitor `json:"substitutes,omitempty"`

	// DecisionLog is the append-only audit trail, one step per
	// competitor processed.
	DecisionLog []DecisionStep `json:"decision_log"`

	// Metrics summarizes the final balance quality.
	Metrics BalanceMetrics `json:"metrics"`

	// WeightTraces lists every resolved competitor with its
	// calculation trace, in descending weight order.
	WeightTraces []ResolvedCompetitor `json:"weight_traces"`

	// Suggestions holds advisory redistribution swaps. Populated only
	// when the redistribution hook is enabled; never applied by the
	// engine.
	Suggestions []SwapSuggestion `json:"suggestions,omitempty"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}
