package stages

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.Stage = (*CaptainSeeder)(nil)

// CaptainSeederConfig carries the team shape for seeding.
type CaptainSeederConfig struct {
	// TeamCount is the number of teams to create.
	TeamCount int `validate:"required,min=1"`

	// TeamSize is the member capacity of each team.
	TeamSize int `validate:"required,min=1"`
}

// CaptainSeeder creates the teams and places the top-N weighted
// competitors as captains, one per team.
//
// The single highest-weight competitor is deliberately placed into the
// last team, not team 0: naive sort-and-assign stacks the strongest
// player onto the first team, and the whole point of seeding is to
// prevent exactly that. Every subsequent captain goes to whichever
// captain-less team minimizes the max-min spread of the hypothetical
// totals, a one-step look-ahead rather than round-robin.
//
// The seeder also resolves roster overflow: competitors beyond
// teamCount x teamSize capacity, lowest weights first, are moved to
// the substitutes bucket with an explicit validation_adjustment step.
// Nothing is ever silently dropped.
type CaptainSeeder struct {
	name     string
	config   CaptainSeederConfig
	reporter ports.ProgressReporter
	tracer   trace.Tracer
}

// NewCaptainSeeder creates a CaptainSeeder with a validated
// configuration. The reporter may be nil.
func NewCaptainSeeder(name string, config CaptainSeederConfig, reporter ports.ProgressReporter) (*CaptainSeeder, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &CaptainSeeder{
		name:     name,
		config:   config,
		reporter: reporter,
		tracer:   otel.Tracer("formation-engine"),
	}, nil
}

// Name returns the stage identifier.
func (cs *CaptainSeeder) Name() string { return cs.name }

// Validate checks the seeder configuration.
func (cs *CaptainSeeder) Validate() error {
	if err := validate.Struct(cs.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Execute seeds one captain per team and publishes the partially
// filled teams, the residual pool, the substitutes bucket, and the
// seeding decision steps.
func (cs *CaptainSeeder) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	resolved, ok := domain.Get(state, domain.KeyResolved)
	if !ok {
		return state, ErrMissingResolved
	}
	if len(resolved) < cs.config.TeamCount {
		return state, domain.NewRosterError(cs.config.TeamCount, len(resolved))
	}

	_, span := cs.tracer.Start(ctx, "CaptainSeeder.Execute",
		trace.WithAttributes(
			attribute.String("stage", cs.name),
			attribute.Int("team.count", cs.config.TeamCount),
			attribute.Int("team.size", cs.config.TeamSize),
		),
	)
	defer span.End()

	decisions, _ := domain.Get(state, domain.KeyDecisions)

	// Resolved arrives sorted by descending weight; overflow beyond
	// capacity is therefore the lowest-weighted tail.
	capacity := cs.config.TeamCount * cs.config.TeamSize
	working := resolved
	var substitutes []domain.ResolvedCompetitor
	if len(resolved) > capacity {
		working = resolved[:capacity]
		substitutes = resolved[capacity:]
	}

	teams := domain.NewTeams(cs.config.TeamCount)
	captains := working[:cs.config.TeamCount]
	residual := working[cs.config.TeamCount:]

	for i, captain := range captains {
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		default:
		}

		var target int
		detail := domain.DecisionDetail{ExcludedTeam: domain.SubstituteTeamIndex}
		if i == 0 {
			// Anti-stacking anchor: strongest captain to the last team.
			target = cs.config.TeamCount - 1
			detail.Note = "highest weight anchored to last team"
		} else {
			target, detail = cs.chooseTeam(teams, captain)
		}

		totalsBefore := domain.Totals(teams)
		detail.SpreadBefore = domain.Spread(totalsBefore)
		detail.VarianceBefore = domain.Variance(totalsBefore)

		teams[target].Add(captain)

		totalsAfter := domain.Totals(teams)
		detail.SpreadAfter = domain.Spread(totalsAfter)
		detail.VarianceAfter = domain.Variance(totalsAfter)

		step := domain.DecisionStep{
			Seq:            len(decisions),
			CompetitorID:   captain.ID,
			CompetitorName: captain.Name,
			Weight:         captain.EffectiveWeight,
			TeamIndex:      target,
			Phase:          domain.PhaseCaptainSeed,
			Detail:         detail,
			TotalsAfter:    totalsAfter,
		}
		decisions = append(decisions, step)
		cs.report(step)
	}

	// Overflow is logged last so the log reads: captains, then (later)
	// assignments, then the bench. Team totals are unaffected.
	for _, sub := range substitutes {
		step := domain.DecisionStep{
			Seq:            len(decisions),
			CompetitorID:   sub.ID,
			CompetitorName: sub.Name,
			Weight:         sub.EffectiveWeight,
			TeamIndex:      domain.SubstituteTeamIndex,
			Phase:          domain.PhaseValidationAdjustment,
			Detail: domain.DecisionDetail{
				ExcludedTeam: domain.SubstituteTeamIndex,
				Note:         "roster exceeds team capacity, moved to substitutes",
			},
			TotalsAfter: domain.Totals(teams),
		}
		decisions = append(decisions, step)
		cs.report(step)
	}

	state = domain.With(state, domain.KeyTeams, teams)
	state = domain.With(state, domain.KeyResidual, residual)
	state = domain.With(state, domain.KeySubstitutes, substitutes)
	state = domain.With(state, domain.KeyDecisions, decisions)
	return state, nil
}

// chooseTeam picks the captain-less team whose hypothetical totals
// minimize the max-min spread across all teams.
func (cs *CaptainSeeder) chooseTeam(teams []domain.Team, captain domain.ResolvedCompetitor) (int, domain.DecisionDetail) {
	detail := domain.DecisionDetail{ExcludedTeam: domain.SubstituteTeamIndex}

	best := -1
	bestSpread := math.Inf(1)
	totals := domain.Totals(teams)
	for idx, team := range teams {
		if _, seeded := team.Captain(); seeded {
			continue
		}
		detail.CandidateTeams = append(detail.CandidateTeams, idx)

		hypothetical := make([]float64, len(totals))
		copy(hypothetical, totals)
		hypothetical[idx] += captain.EffectiveWeight

		if spread := domain.Spread(hypothetical); spread < bestSpread {
			bestSpread = spread
			best = idx
		}
	}
	return best, detail
}

func (cs *CaptainSeeder) report(step domain.DecisionStep) {
	if cs.reporter != nil {
		cs.reporter.Report(step)
	}
}
