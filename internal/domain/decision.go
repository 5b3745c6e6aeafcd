package domain

import (
	"fmt"
	"strings"
)

// Phase tags which stage of a run produced a decision step.
type Phase string

// Run phases that emit decision steps.
const (
	// PhaseCaptainSeed marks captain placement during seeding.
	PhaseCaptainSeed Phase = "captain_seed"

	// PhaseExactSearch marks assignments produced by exhaustive search.
	PhaseExactSearch Phase = "exact_search"

	// PhaseHeuristic marks assignments produced by the greedy
	// look-ahead heuristic.
	PhaseHeuristic Phase = "heuristic"

	// PhaseValidationAdjustment marks bookkeeping decisions made
	// outside the optimizer proper, such as moving roster overflow to
	// the substitutes bucket.
	PhaseValidationAdjustment Phase = "validation_adjustment"
)

// SubstituteTeamIndex is the sentinel team index for competitors placed
// in the substitutes bucket rather than on a team.
const SubstituteTeamIndex = -1

// DecisionDetail carries the typed quantities behind one assignment
// decision. Structure first, prose never: UIs render text from these
// fields instead of re-parsing reasoning strings.
type DecisionDetail struct {
	// CandidateTeams lists the team indexes that were considered.
	CandidateTeams []int `json:"candidate_teams,omitempty"`

	// ExcludedTeam is the team index excluded by the anti-stacking
	// rule, or SubstituteTeamIndex when nothing was excluded.
	ExcludedTeam int `json:"excluded_team"`

	// SpreadBefore and SpreadAfter are the max-min spread across team
	// totals before and after the assignment.
	SpreadBefore float64 `json:"spread_before"`
	SpreadAfter  float64 `json:"spread_after"`

	// VarianceBefore and VarianceAfter are the variance of team totals
	// around the assignment.
	VarianceBefore float64 `json:"variance_before"`
	VarianceAfter  float64 `json:"variance_after"`

	// LookaheadPenalty is the penalty charged because the placement
	// would create a new strongest team while high-value competitors
	// remained unassigned (0 when not applied).
	LookaheadPenalty float64 `json:"lookahead_penalty"`

	// AntiStackPenalty is the penalty charged for an unavoidable
	// anti-stacking violation (0 when not applied).
	AntiStackPenalty float64 `json:"anti_stack_penalty"`

	// EliteCapApplied reports that teams at the elite cap were filtered
	// out of the candidate set for this elite competitor.
	EliteCapApplied bool `json:"elite_cap_applied"`

	// CandidatesEvaluated counts complete assignments scored by the
	// exhaustive search that produced this step (0 for other phases).
	CandidatesEvaluated int `json:"candidates_evaluated,omitempty"`

	// Note is a short free-form remark for cases the typed fields
	// cannot express. Never parsed back.
	Note string `json:"note,omitempty"`
}

// DecisionStep is one entry in the append-only audit trail. It records
// what was decided, why, and a snapshot of every team's running total
// immediately after the decision took effect.
type DecisionStep struct {
	// Seq is the zero-based position of this step in the run's log.
	Seq int `json:"seq"`

	// CompetitorID identifies the competitor the decision is about.
	CompetitorID string `json:"competitor_id"`

	// CompetitorName is carried for display convenience.
	CompetitorName string `json:"competitor_name"`

	// Weight is the competitor's effective weight at decision time.
	Weight float64 `json:"weight"`

	// TeamIndex is the assigned team, or SubstituteTeamIndex.
	TeamIndex int `json:"team_index"`

	// Phase tags the stage that made the decision.
	Phase Phase `json:"phase"`

	// Detail holds the typed reasoning quantities.
	Detail DecisionDetail `json:"detail"`

	// TotalsAfter snapshots every team's running total after this step.
	TotalsAfter []float64 `json:"totals_after"`
}

// String renders a human-readable sentence for logs and terminals.
// This is a one-way projection of the typed fields; nothing downstream
// parses it.
func (s DecisionStep) String() string {
	var b strings.Builder
	switch {
	case s.TeamIndex == SubstituteTeamIndex:
		fmt.Fprintf(&b, "[%s] %s (%.0f) moved to substitutes", s.Phase, s.CompetitorName, s.Weight)
	case s.Phase == PhaseCaptainSeed:
		fmt.Fprintf(&b, "[%s] %s (%.0f) seeded as captain of team %d", s.Phase, s.CompetitorName, s.Weight, s.TeamIndex+1)
	default:
		fmt.Fprintf(&b, "[%s] %s (%.0f) assigned to team %d", s.Phase, s.CompetitorName, s.Weight, s.TeamIndex+1)
	}
	if s.Detail.ExcludedTeam != SubstituteTeamIndex {
		fmt.Fprintf(&b, ", team %d excluded by anti-stacking", s.Detail.ExcludedTeam+1)
	}
	if s.Detail.LookaheadPenalty > 0 {
		fmt.Fprintf(&b, ", lookahead penalty %.0f", s.Detail.LookaheadPenalty)
	}
	if s.Detail.AntiStackPenalty > 0 {
		fmt.Fprintf(&b, ", anti-stack penalty %.0f", s.Detail.AntiStackPenalty)
	}
	if s.Detail.Note != "" {
		fmt.Fprintf(&b, " (%s)", s.Detail.Note)
	}
	return b.String()
}
