package stages

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

// resolvedPool builds a resolved batch from descending weights, the
// order the resolver publishes in.
func resolvedPool(weights ...float64) []domain.ResolvedCompetitor {
	out := make([]domain.ResolvedCompetitor, len(weights))
	for i, w := range weights {
		out[i] = domain.ResolvedCompetitor{
			Competitor:      domain.Competitor{ID: fmt.Sprintf("p%02d", i), Name: fmt.Sprintf("Player%02d", i)},
			EffectiveWeight: w,
			IsElite:         w >= 400,
		}
	}
	return out
}

func seededState(resolved []domain.ResolvedCompetitor) domain.State {
	return domain.With(domain.NewState(), domain.KeyResolved, resolved)
}

func newTestSeeder(t *testing.T, teamCount, teamSize int, reporter ports.ProgressReporter) *CaptainSeeder {
	t.Helper()
	cs, err := NewCaptainSeeder("seeder", CaptainSeederConfig{TeamCount: teamCount, TeamSize: teamSize}, reporter)
	require.NoError(t, err)
	return cs
}

func TestNewCaptainSeeder_Validation(t *testing.T) {
	_, err := NewCaptainSeeder("", CaptainSeederConfig{TeamCount: 2, TeamSize: 5}, nil)
	assert.ErrorIs(t, err, ErrEmptyStageName)

	_, err = NewCaptainSeeder("seeder", CaptainSeederConfig{TeamCount: 0, TeamSize: 5}, nil)
	assert.Error(t, err, "Zero team count must fail validation.")
}

// TestCaptainSeeder_HighestToLastTeam pins the anti-stacking anchor:
// the single strongest competitor captains the LAST team, never the
// first.
func TestCaptainSeeder_HighestToLastTeam(t *testing.T) {
	cs := newTestSeeder(t, 3, 3, nil)
	out, err := cs.Execute(context.Background(), seededState(resolvedPool(500, 450, 420, 300, 200, 180, 150, 120, 100)))
	require.NoError(t, err)

	teams, ok := domain.Get(out, domain.KeyTeams)
	require.True(t, ok)
	require.Len(t, teams, 3)

	last, seeded := teams[2].Captain()
	require.True(t, seeded)
	assert.Equal(t, 500.0, last.EffectiveWeight, "The strongest competitor anchors the last team.")

	for i, team := range teams {
		captain, seeded := team.Captain()
		require.True(t, seeded, "Every team gets a captain.")
		assert.Equal(t, 1, team.Len(), "Seeding places captains only.")
		if i != 2 {
			assert.Less(t, captain.EffectiveWeight, 500.0)
		}
	}

	residual, _ := domain.Get(out, domain.KeyResidual)
	assert.Len(t, residual, 6, "Non-captains stay in the residual pool.")

	decisions, _ := domain.Get(out, domain.KeyDecisions)
	require.Len(t, decisions, 3)
	assert.Equal(t, domain.PhaseCaptainSeed, decisions[0].Phase)
	assert.Equal(t, 2, decisions[0].TeamIndex)
	assert.Contains(t, decisions[0].Detail.Note, "anchored to last team")
}

// TestCaptainSeeder_SpreadMinimizing verifies subsequent captains go to
// whichever captain-less team keeps the totals tightest, not simple
// round-robin.
func TestCaptainSeeder_SpreadMinimizing(t *testing.T) {
	cs := newTestSeeder(t, 2, 5, nil)
	out, err := cs.Execute(context.Background(), seededState(resolvedPool(500, 450, 300, 200, 150, 120, 100, 90, 80, 70)))
	require.NoError(t, err)

	teams, _ := domain.Get(out, domain.KeyTeams)
	c0, _ := teams[0].Captain()
	c1, _ := teams[1].Captain()
	assert.Equal(t, 450.0, c0.EffectiveWeight)
	assert.Equal(t, 500.0, c1.EffectiveWeight)
}

// TestCaptainSeeder_SoloTeams covers the degenerate 1v1-ladder shape:
// team size one means seeding alone completes every team.
func TestCaptainSeeder_SoloTeams(t *testing.T) {
	cs := newTestSeeder(t, 4, 1, nil)
	out, err := cs.Execute(context.Background(), seededState(resolvedPool(400, 300, 200, 100)))
	require.NoError(t, err)

	teams, _ := domain.Get(out, domain.KeyTeams)
	require.Len(t, teams, 4)
	for _, team := range teams {
		assert.Equal(t, 1, team.Len(), "Each team is exactly its captain.")
	}
	strongest, _ := teams[3].Captain()
	assert.Equal(t, 400.0, strongest.EffectiveWeight)

	residual, _ := domain.Get(out, domain.KeyResidual)
	assert.Empty(t, residual, "Nothing is left to optimize.")
}

// TestCaptainSeeder_Overflow verifies competitors beyond capacity land
// in the substitutes bucket with an explicit audit step, never silently
// dropped.
func TestCaptainSeeder_Overflow(t *testing.T) {
	cs := newTestSeeder(t, 2, 2, nil)
	out, err := cs.Execute(context.Background(), seededState(resolvedPool(500, 400, 300, 200, 100, 50)))
	require.NoError(t, err)

	subs, _ := domain.Get(out, domain.KeySubstitutes)
	require.Len(t, subs, 2, "Two competitors exceed the 2x2 capacity.")
	assert.Equal(t, 100.0, subs[0].EffectiveWeight, "Overflow takes the lowest weights.")
	assert.Equal(t, 50.0, subs[1].EffectiveWeight)

	decisions, _ := domain.Get(out, domain.KeyDecisions)
	require.Len(t, decisions, 4, "Two captains plus two substitute steps.")

	subSteps := decisions[2:]
	for _, step := range subSteps {
		assert.Equal(t, domain.PhaseValidationAdjustment, step.Phase)
		assert.Equal(t, domain.SubstituteTeamIndex, step.TeamIndex)
	}

	residual, _ := domain.Get(out, domain.KeyResidual)
	assert.Len(t, residual, 2, "Capacity minus captains remains for optimization.")
}

func TestCaptainSeeder_InsufficientResolved(t *testing.T) {
	cs := newTestSeeder(t, 4, 2, nil)
	_, err := cs.Execute(context.Background(), seededState(resolvedPool(300, 200, 100)))
	assert.ErrorIs(t, err, domain.ErrInsufficientRoster)
}

func TestCaptainSeeder_MissingResolved(t *testing.T) {
	cs := newTestSeeder(t, 2, 2, nil)
	_, err := cs.Execute(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, ErrMissingResolved)
}

func TestCaptainSeeder_ReportsProgress(t *testing.T) {
	var steps []domain.DecisionStep
	reporter := ports.ProgressFunc(func(s domain.DecisionStep) { steps = append(steps, s) })

	cs := newTestSeeder(t, 2, 2, reporter)
	_, err := cs.Execute(context.Background(), seededState(resolvedPool(500, 400, 300, 200, 100)))
	require.NoError(t, err)

	require.Len(t, steps, 3, "Two captains and one substitute reported.")
	for i, step := range steps {
		assert.Equal(t, i, step.Seq, "Steps stream in log order.")
	}
}
