package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDecisionStep_String verifies the log rendering for the main
// decision shapes. The string is a one-way projection; these tests pin
// readability, not a parseable format.
func TestDecisionStep_String(t *testing.T) {
	tests := []struct {
		name string
		step DecisionStep
		want string
	}{
		{
			name: "captain seeding",
			step: DecisionStep{
				CompetitorName: "Aria",
				Weight:         500,
				TeamIndex:      1,
				Phase:          PhaseCaptainSeed,
				Detail:         DecisionDetail{ExcludedTeam: SubstituteTeamIndex},
			},
			want: "[captain_seed] Aria (500) seeded as captain of team 2",
		},
		{
			name: "heuristic assignment with exclusion",
			step: DecisionStep{
				CompetitorName: "Bolt",
				Weight:         380,
				TeamIndex:      0,
				Phase:          PhaseHeuristic,
				Detail:         DecisionDetail{ExcludedTeam: 1},
			},
			want: "[heuristic] Bolt (380) assigned to team 1, team 2 excluded by anti-stacking",
		},
		{
			name: "substitute placement",
			step: DecisionStep{
				CompetitorName: "Crux",
				Weight:         95,
				TeamIndex:      SubstituteTeamIndex,
				Phase:          PhaseValidationAdjustment,
				Detail: DecisionDetail{
					ExcludedTeam: SubstituteTeamIndex,
					Note:         "roster exceeds team capacity, moved to substitutes",
				},
			},
			want: "[validation_adjustment] Crux (95) moved to substitutes (roster exceeds team capacity, moved to substitutes)",
		},
		{
			name: "penalized assignment",
			step: DecisionStep{
				CompetitorName: "Dray",
				Weight:         410,
				TeamIndex:      2,
				Phase:          PhaseHeuristic,
				Detail: DecisionDetail{
					ExcludedTeam:     SubstituteTeamIndex,
					LookaheadPenalty: 75,
					AntiStackPenalty: 500,
				},
			},
			want: "[heuristic] Dray (410) assigned to team 3, lookahead penalty 75, anti-stack penalty 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.String())
		})
	}
}
