package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
)

// TestExactSearch_FindsOptimalSplit verifies the exhaustive strategy
// lands on a minimum-variance assignment, not merely a legal one.
func TestExactSearch_FindsOptimalSplit(t *testing.T) {
	cfg := testOptimizerConfig
	cfg.TeamSize = 3
	o := newTestOptimizer(t, cfg, nil)

	// Captains 450/500, residual {400,350,300,250}. The best splits
	// reach totals {1150,1100}; anything else spreads 150 or worse.
	out, err := o.Execute(context.Background(), optimizerState(seedTeams(450, 500), resolvedPool(400, 350, 300, 250)))
	require.NoError(t, err)

	teams, _ := domain.Get(out, domain.KeyTeams)
	totals := domain.Totals(teams)
	assert.Equal(t, 50.0, domain.Spread(totals), "The optimal split spreads exactly 50.")
	for _, team := range teams {
		assert.Equal(t, 3, team.Len(), "Both teams fill to capacity.")
	}

	decisions, _ := domain.Get(out, domain.KeyDecisions)
	require.Len(t, decisions, 4)
	for _, step := range decisions {
		assert.Equal(t, domain.PhaseExactSearch, step.Phase)
		assert.Positive(t, step.Detail.CandidatesEvaluated, "Search effort is recorded on every step.")
	}
}

// TestExactSearch_RespectsCapacity verifies teams at size are pruned,
// never candidates, even when that forces a lopsided assignment.
func TestExactSearch_RespectsCapacity(t *testing.T) {
	cfg := testOptimizerConfig
	cfg.TeamSize = 2
	o := newTestOptimizer(t, cfg, nil)

	teams := seedTeams(100, 500)
	teams[1].Add(domain.ResolvedCompetitor{Competitor: domain.Competitor{ID: "extra"}, EffectiveWeight: 100})

	// Team 1 is full; the residual's only legal seat is team 0.
	out, err := o.Execute(context.Background(), optimizerState(teams, resolvedPool(90)))
	require.NoError(t, err)

	got, _ := domain.Get(out, domain.KeyTeams)
	assert.Equal(t, 2, got[0].Len())
	assert.Equal(t, 2, got[1].Len())
	assert.Equal(t, "p00", got[0].Members[1].ID, "The residual joined the open team.")
}

// TestExactSearch_BudgetDegradesGracefully verifies an exhausted budget
// still yields a complete assignment from the candidates already
// scored.
func TestExactSearch_BudgetDegradesGracefully(t *testing.T) {
	cfg := testOptimizerConfig
	cfg.TeamSize = 4
	cfg.SearchBudget = 1
	o := newTestOptimizer(t, cfg, nil)

	out, err := o.Execute(context.Background(), optimizerState(seedTeams(450, 500), resolvedPool(400, 350, 300, 250, 200, 150)))
	require.NoError(t, err)

	teams, _ := domain.Get(out, domain.KeyTeams)
	assert.Equal(t, 4, teams[0].Len())
	assert.Equal(t, 4, teams[1].Len())
}

func TestExactSearch_NoLegalAssignment(t *testing.T) {
	cfg := testOptimizerConfig
	cfg.TeamSize = 1
	o := newTestOptimizer(t, cfg, nil)

	// Every team already at capacity with residual remaining: nothing
	// to search, and silently dropping a competitor is not an option.
	_, err := o.Execute(context.Background(), optimizerState(seedTeams(450, 500), resolvedPool(300)))
	assert.ErrorIs(t, err, ErrSearchExhausted)
}

func TestExactSearch_Cancellation(t *testing.T) {
	o := newTestOptimizer(t, testOptimizerConfig, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Execute(ctx, optimizerState(seedTeams(450, 500), resolvedPool(300, 200)))
	assert.ErrorIs(t, err, context.Canceled)
}

// TestExactSearch_PenalizesEliteStacking verifies the scoring model
// trades some balance to keep elites under the per-team cap.
func TestExactSearch_PenalizesEliteStacking(t *testing.T) {
	cfg := testOptimizerConfig
	cfg.TeamSize = 3
	o := newTestOptimizer(t, cfg, nil)

	// Both residuals are elite. Team 1 carries 780 points of non-elite
	// strength, so pure variance would stack both elites onto team 0
	// (totals 930 vs 780); the elite penalty outweighs that and keeps
	// one per team.
	teams := seedTeams(100, 390)
	teams[1].Add(domain.ResolvedCompetitor{Competitor: domain.Competitor{ID: "m2"}, EffectiveWeight: 390})

	out, err := o.Execute(context.Background(), optimizerState(teams, resolvedPool(420, 410)))
	require.NoError(t, err)

	got, _ := domain.Get(out, domain.KeyTeams)
	for _, team := range got {
		assert.LessOrEqual(t, team.EliteCount(), 1, "Elites stay spread across teams.")
	}
}
