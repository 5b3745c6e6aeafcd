package stages

import (
	"context"
	"math"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
)

// greedyLookahead assigns the residual pool in descending weight
// order. For each competitor it filters to teams with spare capacity,
// applies the anti-stacking exclusion and elite cap, then scores the
// survivors by balance improvement minus look-ahead penalties and
// takes the best.
//
// The anti-stacking exclusion: a high-value competitor never joins a
// team holding the strict maximum running total while a lower-total
// team still has room. Only when the strongest team is the sole team
// with capacity is the exclusion waived, and then the violation is
// penalized and recorded rather than hidden.
func (o *Optimizer) greedyLookahead(
	ctx context.Context,
	teams []domain.Team,
	pool []domain.ResolvedCompetitor,
	decisions []domain.DecisionStep,
) ([]domain.Team, []domain.DecisionStep, error) {
	for poolIdx, rc := range pool {
		select {
		case <-ctx.Done():
			return teams, decisions, ctx.Err()
		default:
		}

		totals := domain.Totals(teams)
		detail := domain.DecisionDetail{ExcludedTeam: domain.SubstituteTeamIndex}

		candidates := o.openTeams(teams)
		candidates, detail.EliteCapApplied = o.filterEliteCap(teams, candidates, rc)

		var stackViolation bool
		if o.highValue(rc) {
			candidates, detail.ExcludedTeam, stackViolation = o.excludeStrongest(totals, candidates)
		}
		detail.CandidateTeams = append([]int(nil), candidates...)

		// Any high-value competitors after this one in the (sorted)
		// pool still need seats; creating a new strongest team now
		// narrows their options.
		remainingHighValue := 0
		for _, later := range pool[poolIdx+1:] {
			if o.highValue(later) {
				remainingHighValue++
			}
		}

		varianceBefore := domain.Variance(totals)
		best := -1
		bestScore := math.Inf(-1)
		for _, team := range candidates {
			score, lookahead := o.scorePlacement(totals, team, rc, varianceBefore, remainingHighValue)
			if stackViolation {
				score -= antiStackPenaltyWeight
			}
			if score > bestScore {
				bestScore = score
				best = team
				detail.LookaheadPenalty = lookahead
			}
		}
		if stackViolation {
			detail.AntiStackPenalty = antiStackPenaltyWeight
			detail.Note = "anti-stacking exclusion unavoidable, strongest team was the only open team"
		}

		detail.SpreadBefore = domain.Spread(totals)
		detail.VarianceBefore = varianceBefore

		teams[best].Add(rc)

		totalsAfter := domain.Totals(teams)
		detail.SpreadAfter = domain.Spread(totalsAfter)
		detail.VarianceAfter = domain.Variance(totalsAfter)

		step := domain.DecisionStep{
			Seq:            len(decisions),
			CompetitorID:   rc.ID,
			CompetitorName: rc.Name,
			Weight:         rc.EffectiveWeight,
			TeamIndex:      best,
			Phase:          domain.PhaseHeuristic,
			Detail:         detail,
			TotalsAfter:    totalsAfter,
		}
		decisions = append(decisions, step)
		o.report(step)
	}
	return teams, decisions, nil
}

// openTeams returns the indexes of teams with spare capacity, in team
// order.
func (o *Optimizer) openTeams(teams []domain.Team) []int {
	open := make([]int, 0, len(teams))
	for i, t := range teams {
		if t.HasCapacity(o.config.TeamSize) {
			open = append(open, i)
		}
	}
	return open
}

// filterEliteCap removes teams already at the elite cap from the
// candidate set for an elite competitor, provided at least one
// under-cap candidate remains. The boolean reports whether the filter
// changed anything.
func (o *Optimizer) filterEliteCap(teams []domain.Team, candidates []int, rc domain.ResolvedCompetitor) ([]int, bool) {
	if !rc.IsElite {
		return candidates, false
	}
	under := make([]int, 0, len(candidates))
	for _, idx := range candidates {
		if teams[idx].EliteCount() < o.config.MaxElitePerTeam {
			under = append(under, idx)
		}
	}
	if len(under) == 0 || len(under) == len(candidates) {
		return candidates, false
	}
	return under, true
}

// excludeStrongest removes the team(s) holding the strict maximum
// total from the candidate set. When that would empty the set, the
// original candidates are kept and the violation is reported so the
// caller can penalize and record it.
func (o *Optimizer) excludeStrongest(totals []float64, candidates []int) (kept []int, excluded int, violated bool) {
	excluded = domain.SubstituteTeamIndex
	if len(candidates) == 0 {
		return candidates, excluded, false
	}

	maxTotal := math.Inf(-1)
	minTotal := math.Inf(1)
	for _, t := range totals {
		maxTotal = math.Max(maxTotal, t)
		minTotal = math.Min(minTotal, t)
	}
	if maxTotal == minTotal {
		// All totals equal: no strict maximum to avoid.
		return candidates, excluded, false
	}

	kept = make([]int, 0, len(candidates))
	for _, idx := range candidates {
		if totals[idx] == maxTotal {
			excluded = idx
			continue
		}
		kept = append(kept, idx)
	}
	if len(kept) == 0 {
		return candidates, excluded, true
	}
	return kept, excluded, false
}

// scorePlacement scores placing rc on the given team: variance
// reduction, minus the look-ahead penalty when the placement would
// crown a new strongest team while high-value competitors remain
// unassigned.
func (o *Optimizer) scorePlacement(
	totals []float64,
	team int,
	rc domain.ResolvedCompetitor,
	varianceBefore float64,
	remainingHighValue int,
) (score, lookahead float64) {
	hypothetical := make([]float64, len(totals))
	copy(hypothetical, totals)
	hypothetical[team] += rc.EffectiveWeight

	score = varianceBefore - domain.Variance(hypothetical)

	becomesStrongest := true
	for i, t := range hypothetical {
		if i != team && t >= hypothetical[team] {
			becomesStrongest = false
			break
		}
	}
	if becomesStrongest && remainingHighValue > 0 {
		lookahead = lookaheadPenaltyWeight
		score -= lookahead
	}
	return score, lookahead
}
