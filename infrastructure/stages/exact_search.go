package stages

import (
	"context"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
)

// Exact-search scoring weights, per the balance scoring model:
// score = 1000 / (1 + variance) - 100 * elite cap violations.
const (
	exactScoreScale        = 1000.0
	exactElitePenalty      = 100.0
	exactCancelCheckStride = 512
)

// searchState is the mutable bookkeeping for one backtracking run.
// Totals, member counts, and elite counts are updated in place on the
// way down and restored on the way back up.
type searchState struct {
	totals    []float64
	sizes     []int
	elites    []int
	best      []int
	bestScore float64
	found     bool
	evaluated int
}

// exactSearch exhaustively assigns the residual pool via backtracking
// and applies the best-scoring complete assignment. Teams already at
// capacity are pruned immediately and never produced as candidates.
//
// The evaluation budget caps worst-case runtime: when it is exhausted,
// the best assignment found so far is used. The search degrades
// gracefully, it never hangs.
func (o *Optimizer) exactSearch(
	ctx context.Context,
	teams []domain.Team,
	pool []domain.ResolvedCompetitor,
	decisions []domain.DecisionStep,
) ([]domain.Team, []domain.DecisionStep, error) {
	if len(pool) == 0 {
		return teams, decisions, nil
	}

	ss := &searchState{
		totals: domain.Totals(teams),
		sizes:  make([]int, len(teams)),
		elites: make([]int, len(teams)),
		best:   make([]int, len(pool)),
	}
	for i, t := range teams {
		ss.sizes[i] = t.Len()
		ss.elites[i] = t.EliteCount()
	}

	assignment := make([]int, len(pool))
	if err := o.backtrack(ctx, ss, pool, assignment, 0); err != nil {
		return teams, decisions, err
	}
	if !ss.found {
		return teams, decisions, ErrSearchExhausted
	}

	// Apply the winning assignment in pool order, one auditable step
	// per competitor.
	for i, rc := range pool {
		target := ss.best[i]
		totalsBefore := domain.Totals(teams)
		teams[target].Add(rc)
		totalsAfter := domain.Totals(teams)

		step := domain.DecisionStep{
			Seq:            len(decisions),
			CompetitorID:   rc.ID,
			CompetitorName: rc.Name,
			Weight:         rc.EffectiveWeight,
			TeamIndex:      target,
			Phase:          domain.PhaseExactSearch,
			Detail: domain.DecisionDetail{
				ExcludedTeam:        domain.SubstituteTeamIndex,
				SpreadBefore:        domain.Spread(totalsBefore),
				SpreadAfter:         domain.Spread(totalsAfter),
				VarianceBefore:      domain.Variance(totalsBefore),
				VarianceAfter:       domain.Variance(totalsAfter),
				CandidatesEvaluated: ss.evaluated,
				Note:                "best of exhaustive search",
			},
			TotalsAfter: totalsAfter,
		}
		decisions = append(decisions, step)
		o.report(step)
	}
	return teams, decisions, nil
}

// backtrack walks every capacity-respecting assignment of pool[depth:],
// scoring each complete candidate. Team order is deterministic, so
// equal-scoring candidates resolve identically across runs.
func (o *Optimizer) backtrack(
	ctx context.Context,
	ss *searchState,
	pool []domain.ResolvedCompetitor,
	assignment []int,
	depth int,
) error {
	if ss.evaluated >= o.config.SearchBudget {
		return nil
	}
	if ss.evaluated%exactCancelCheckStride == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if depth == len(pool) {
		ss.evaluated++
		if score := o.scoreCandidate(ss); !ss.found || score > ss.bestScore {
			ss.found = true
			ss.bestScore = score
			copy(ss.best, assignment)
		}
		return nil
	}

	rc := pool[depth]
	for team := range ss.totals {
		if ss.sizes[team] >= o.config.TeamSize {
			continue // hard capacity prune, never a candidate
		}

		assignment[depth] = team
		ss.totals[team] += rc.EffectiveWeight
		ss.sizes[team]++
		if rc.IsElite {
			ss.elites[team]++
		}

		err := o.backtrack(ctx, ss, pool, assignment, depth+1)

		ss.totals[team] -= rc.EffectiveWeight
		ss.sizes[team]--
		if rc.IsElite {
			ss.elites[team]--
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// scoreCandidate scores a complete assignment: tight variance is
// rewarded hyperbolically, every team over the elite cap costs a flat
// penalty.
func (o *Optimizer) scoreCandidate(ss *searchState) float64 {
	score := exactScoreScale / (1 + domain.Variance(ss.totals))
	for _, n := range ss.elites {
		if n > o.config.MaxElitePerTeam {
			score -= exactElitePenalty
		}
	}
	return score
}
