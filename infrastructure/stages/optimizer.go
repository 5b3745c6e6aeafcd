package stages

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.Stage = (*Optimizer)(nil)

// OptimizerConfig carries the tunables for residual-pool assignment.
type OptimizerConfig struct {
	// TeamSize is the hard member capacity of each team.
	TeamSize int `validate:"required,min=1"`

	// EliteThreshold is the weight at or above which a competitor is
	// elite for anti-stacking purposes.
	EliteThreshold float64 `validate:"gt=0"`

	// MaxElitePerTeam caps how many elites a team may hold before an
	// assignment counts as a stacking violation.
	MaxElitePerTeam int `validate:"min=0"`

	// HighValueRatio defines the elite-adjacent cutoff for the greedy
	// anti-stacking exclusion, as a fraction of EliteThreshold.
	HighValueRatio float64 `validate:"gt=0,lte=1"`

	// ExactSearchLimit is the residual pool size at or below which the
	// exhaustive strategy runs instead of the greedy heuristic.
	ExactSearchLimit int `validate:"min=0"`

	// SearchBudget bounds how many complete assignments the exhaustive
	// strategy may score before settling for the best found so far.
	SearchBudget int `validate:"min=1"`
}

// Optimizer assigns every residual competitor to a team. It dispatches
// on residual pool size: pools at or below ExactSearchLimit get an
// exhaustive backtracking search, larger pools get the greedy
// look-ahead heuristic.
//
// Capacity is a hard constraint in both strategies, enforced by
// candidate filtering: a team at TeamSize is never produced as a
// candidate, so a capacity violation is structurally impossible rather
// than merely discouraged.
type Optimizer struct {
	name     string
	config   OptimizerConfig
	reporter ports.ProgressReporter
	tracer   trace.Tracer
}

// NewOptimizer creates an Optimizer with a validated configuration.
// The reporter may be nil.
func NewOptimizer(name string, config OptimizerConfig, reporter ports.ProgressReporter) (*Optimizer, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &Optimizer{
		name:     name,
		config:   config,
		reporter: reporter,
		tracer:   otel.Tracer("formation-engine"),
	}, nil
}

// Name returns the stage identifier.
func (o *Optimizer) Name() string { return o.name }

// Validate checks the optimizer configuration.
func (o *Optimizer) Validate() error {
	if err := validate.Struct(o.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Execute assigns the residual pool and publishes the filled teams,
// the emptied residual, and the assignment decision steps.
func (o *Optimizer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	teams, ok := domain.Get(state, domain.KeyTeams)
	if !ok {
		return state, ErrMissingTeams
	}
	residual, ok := domain.Get(state, domain.KeyResidual)
	if !ok {
		return state, ErrMissingResolved
	}
	decisions, _ := domain.Get(state, domain.KeyDecisions)

	exact := len(residual) <= o.config.ExactSearchLimit
	ctx, span := o.tracer.Start(ctx, "Optimizer.Execute",
		trace.WithAttributes(
			attribute.String("stage", o.name),
			attribute.Int("residual.size", len(residual)),
			attribute.Bool("strategy.exact", exact),
		),
	)
	defer span.End()

	var err error
	if exact {
		teams, decisions, err = o.exactSearch(ctx, teams, residual, decisions)
	} else {
		teams, decisions, err = o.greedyLookahead(ctx, teams, residual, decisions)
	}
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	state = domain.With(state, domain.KeyTeams, teams)
	state = domain.With(state, domain.KeyResidual, []domain.ResolvedCompetitor{})
	state = domain.With(state, domain.KeyDecisions, decisions)
	return state, nil
}

func (o *Optimizer) report(step domain.DecisionStep) {
	if o.reporter != nil {
		o.reporter.Report(step)
	}
}

// highValue reports whether a competitor triggers the anti-stacking
// exclusion: classified elite, or weighted within HighValueRatio of
// the elite threshold.
func (o *Optimizer) highValue(rc domain.ResolvedCompetitor) bool {
	return rc.IsElite || rc.EffectiveWeight >= o.config.EliteThreshold*o.config.HighValueRatio
}
