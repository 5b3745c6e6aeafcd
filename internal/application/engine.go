package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

// RunPhase names a position in the run state machine:
// idle -> resolving_weights -> seeding_captains -> optimizing ->
// analyzing -> complete. Complete is terminal; hard failures abort the
// run before it is reached.
type RunPhase string

// Run state machine phases, in order.
const (
	PhaseIdle             RunPhase = "idle"
	PhaseResolvingWeights RunPhase = "resolving_weights"
	PhaseSeedingCaptains  RunPhase = "seeding_captains"
	PhaseOptimizing       RunPhase = "optimizing"
	PhaseAnalyzing        RunPhase = "analyzing"
	PhaseComplete         RunPhase = "complete"
)

// PhaseListener observes state machine transitions. completed and
// total report assignment progress (decision steps made so far out of
// the roster size) at the moment of the transition.
type PhaseListener func(phase RunPhase, completed, total int)

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithMetrics attaches a metrics collector. Nil disables metrics.
func WithMetrics(mc ports.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = mc }
}

// WithPhaseListener attaches a state machine transition observer.
func WithPhaseListener(l PhaseListener) EngineOption {
	return func(e *Engine) { e.onPhase = l }
}

// Engine executes the formation pipeline as a single synchronous
// computation: weight resolution, captain seeding, optimization, and
// analysis, in that order, each stage feeding the next through the
// immutable run state. The engine performs no I/O; collaborators
// receive the RunResult from the caller afterwards.
//
// An Engine holds no per-run mutable state and is safe for concurrent
// runs; the only shared state in the system is the weight cache, which
// synchronizes internally.
type Engine struct {
	config   Config
	resolver ports.Stage
	seeder   ports.Stage
	optimize ports.Stage
	analyzer ports.Stage
	metrics  ports.MetricsCollector
	onPhase  PhaseListener
	tracer   trace.Tracer
}

// NewEngine assembles an engine from a validated configuration and
// the four pipeline stages. Every stage is validated up front so a
// misconfigured pipeline fails at construction, not mid-run.
func NewEngine(config Config, resolver, seeder, optimizer, analyzer ports.Stage, opts ...EngineOption) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	for _, st := range []ports.Stage{resolver, seeder, optimizer, analyzer} {
		if st == nil {
			return nil, fmt.Errorf("%w: engine requires all four stages", domain.ErrInvalidConfiguration)
		}
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("stage %s failed validation: %w", st.Name(), err)
		}
	}

	e := &Engine{
		config:   config,
		resolver: resolver,
		seeder:   seeder,
		optimize: optimizer,
		analyzer: analyzer,
		tracer:   otel.Tracer("formation-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run forms teams from the roster snapshot. It fails fast with a
// RosterError when the roster cannot fill the configured team shape,
// and aborts on internal invariant violations; every other condition
// degrades to a best-effort assignment with full auditability.
func (e *Engine) Run(ctx context.Context, roster []domain.Competitor) (*domain.RunResult, error) {
	start := time.Now()

	// The degenerate 1-per-team mode needs only teamCount entries,
	// which Capacity already equals when TeamSize is 1.
	required := e.config.Capacity()
	if len(roster) < required {
		e.countRun("rejected")
		return nil, domain.NewRosterError(required, len(roster))
	}

	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "Engine.Run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("roster.size", len(roster)),
			attribute.Int("team.count", e.config.TeamCount),
			attribute.Int("team.size", e.config.TeamSize),
		),
	)
	defer span.End()

	state := domain.NewState()
	state = domain.With(state, domain.KeyRunID, runID)
	state = domain.With(state, domain.KeyRoster, roster)

	e.transition(PhaseIdle, state, len(roster))

	stages := []struct {
		phase RunPhase
		stage ports.Stage
	}{
		{PhaseResolvingWeights, e.resolver},
		{PhaseSeedingCaptains, e.seeder},
		{PhaseOptimizing, e.optimize},
		{PhaseAnalyzing, e.analyzer},
	}
	for _, s := range stages {
		select {
		case <-ctx.Done():
			e.countRun("cancelled")
			return nil, ctx.Err()
		default:
		}

		e.transition(s.phase, state, len(roster))
		next, err := s.stage.Execute(ctx, state)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.countRun("failed")
			return nil, fmt.Errorf("stage %s failed: %w", s.stage.Name(), err)
		}
		state = next
	}

	result, err := e.assemble(state, roster)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.countRun("failed")
		return nil, err
	}
	result.Elapsed = time.Since(start)

	e.transition(PhaseComplete, state, len(roster))
	e.recordRunMetrics(result)
	span.SetAttributes(
		attribute.String("balance.quality", string(result.Metrics.Quality)),
		attribute.Float64("balance.max_difference", result.Metrics.MaxDifference),
	)
	span.SetStatus(codes.Ok, "run complete")
	return result, nil
}

// assemble extracts the run result from the final state and verifies
// the completion invariants: capacity respected everywhere, and every
// roster competitor accounted for exactly once across teams and
// substitutes. Violations are internal bugs and abort the run with
// full state in the error.
func (e *Engine) assemble(state domain.State, roster []domain.Competitor) (*domain.RunResult, error) {
	teams, ok := domain.Get(state, domain.KeyTeams)
	if !ok {
		return nil, fmt.Errorf("%w: teams missing from final state", domain.ErrIncompleteAssignment)
	}
	metrics, ok := domain.Get(state, domain.KeyMetrics)
	if !ok {
		return nil, fmt.Errorf("%w: metrics missing from final state", domain.ErrIncompleteAssignment)
	}
	decisions, _ := domain.Get(state, domain.KeyDecisions)
	substitutes, _ := domain.Get(state, domain.KeySubstitutes)
	suggestions, _ := domain.Get(state, domain.KeySuggestions)
	resolved, _ := domain.Get(state, domain.KeyResolved)
	runID, _ := domain.Get(state, domain.KeyRunID)

	seen := make(map[string]int, len(roster))
	for _, t := range teams {
		if t.Len() > e.config.TeamSize {
			return nil, domain.NewCapacityError(t.Index, t.Len(), e.config.TeamSize)
		}
		for _, m := range t.Members {
			seen[m.ID]++
		}
	}
	for _, s := range substitutes {
		seen[s.ID]++
	}
	for _, c := range roster {
		if seen[c.ID] != 1 {
			return nil, fmt.Errorf("%w: competitor %s appears %d times",
				domain.ErrIncompleteAssignment, c.ID, seen[c.ID])
		}
	}

	return &domain.RunResult{
		RunID:        runID,
		Teams:        teams,
		Substitutes:  substitutes,
		DecisionLog:  decisions,
		Metrics:      *metrics,
		WeightTraces: resolved,
		Suggestions:  suggestions,
	}, nil
}

// transition notifies the phase listener, deriving progress from the
// decision log length. Fire-and-forget: listener behavior never
// affects the run.
func (e *Engine) transition(phase RunPhase, state domain.State, total int) {
	if e.onPhase == nil {
		return
	}
	decisions, _ := domain.Get(state, domain.KeyDecisions)
	e.onPhase(phase, len(decisions), total)
}

func (e *Engine) countRun(outcome string) {
	if e.metrics != nil {
		e.metrics.RecordCounter("balance_runs_total", 1, map[string]string{"outcome": outcome})
	}
}

// recordRunMetrics reports the run's observability payload: duration
// by quality tier, per-phase assignment counts, and the exhaustive
// search effort when that strategy ran.
func (e *Engine) recordRunMetrics(result *domain.RunResult) {
	if e.metrics == nil {
		return
	}
	quality := map[string]string{"quality": string(result.Metrics.Quality)}
	e.metrics.RecordCounter("balance_runs_total", 1, map[string]string{"outcome": "complete"})
	e.metrics.RecordLatency("balance_run", result.Elapsed, quality)
	e.metrics.RecordGauge("balance_max_difference", result.Metrics.MaxDifference, nil)

	phases := make(map[domain.Phase]int)
	searchEffort := 0
	for _, step := range result.DecisionLog {
		phases[step.Phase]++
		if step.Detail.CandidatesEvaluated > searchEffort {
			searchEffort = step.Detail.CandidatesEvaluated
		}
	}
	for phase, n := range phases {
		e.metrics.RecordCounter("assignments_total", float64(n), map[string]string{"phase": string(phase)})
	}
	if searchEffort > 0 {
		e.metrics.RecordHistogram("exact_search_candidates", float64(searchEffort), nil)
	}
}
