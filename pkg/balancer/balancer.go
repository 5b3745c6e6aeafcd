// Package balancer is the public entry point for the team formation
// engine. It assembles the four pipeline stages from a single Config
// and runs them as one synchronous computation.
//
// The package keeps a process-scoped weight cache, so repeated runs
// over an unchanged roster skip re-deriving weights from evidence.
package balancer

import (
	"context"
	"time"

	"github.com/deklol/valorant-skirmish-nexus-sub000/infrastructure/stages"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/application"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

// Config re-exports the engine configuration for callers that only
// import this package.
type Config = application.Config

// DefaultConfig returns the production defaults.
func DefaultConfig() Config { return application.DefaultConfig() }

// ProgressCallback receives every assignment decision as it is made.
// stepIndex counts decisions so far, totalSteps is the roster size.
type ProgressCallback func(stepIndex, totalSteps int, last domain.DecisionStep)

// defaultCache is the process-scoped weight cache shared by all runs
// that do not supply their own.
var defaultCache = stages.NewWeightCache()

// ResetWeightCache drops all memoized weight resolutions from the
// shared cache. Call it after tuning parameters change, since cache
// entries embed the derived weight, not just the inputs.
func ResetWeightCache() { defaultCache.Purge() }

type options struct {
	progress ProgressCallback
	metrics  ports.MetricsCollector
	evidence ports.EvidenceSource
	clock    func() time.Time
	cache    *stages.WeightCache
	onPhase  application.PhaseListener
}

// Option customizes a formation run.
type Option func(*options)

// WithProgress streams every decision step to cb as it is made.
func WithProgress(cb ProgressCallback) Option {
	return func(o *options) { o.progress = cb }
}

// WithMetrics attaches a metrics collector to the run.
func WithMetrics(mc ports.MetricsCollector) Option {
	return func(o *options) { o.metrics = mc }
}

// WithEvidenceSource enriches competitors from an external skill
// history before weight resolution.
func WithEvidenceSource(src ports.EvidenceSource) Option {
	return func(o *options) { o.evidence = src }
}

// WithClock overrides the time source used for decay arithmetic.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithWeightCache substitutes a private weight cache for the shared
// process-scoped one.
func WithWeightCache(cache *stages.WeightCache) Option {
	return func(o *options) { o.cache = cache }
}

// WithPhaseListener observes run state machine transitions.
func WithPhaseListener(l application.PhaseListener) Option {
	return func(o *options) { o.onPhase = l }
}

// progressTracker adapts the decision-step stream to the indexed
// ProgressCallback shape. The engine is sequential, so no locking.
type progressTracker struct {
	cb    ProgressCallback
	total int
	count int
}

func (pt *progressTracker) Report(step domain.DecisionStep) {
	pt.count++
	pt.cb(pt.count, pt.total, step)
}

// ResolveTeams forms balanced teams from a checked-in roster snapshot.
// It is the synchronous, pure-computation entry point: persistence and
// notification of the resulting teams are the caller's concern.
//
// The roster must hold at least cfg.Capacity() competitors; smaller
// rosters are rejected with a RosterError before any work happens.
// Competitors beyond capacity end up in RunResult.Substitutes.
func ResolveTeams(ctx context.Context, roster []domain.Competitor, cfg Config, opts ...Option) (*domain.RunResult, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cache := o.cache
	if cache == nil {
		cache = defaultCache
	}

	var reporter ports.ProgressReporter
	if o.progress != nil {
		reporter = &progressTracker{cb: o.progress, total: len(roster)}
	}

	var resolverOpts []stages.WeightResolverOption
	if o.evidence != nil {
		resolverOpts = append(resolverOpts, stages.WithEvidenceSource(o.evidence))
	}
	if o.clock != nil {
		resolverOpts = append(resolverOpts, stages.WithClock(o.clock))
	}

	resolver, err := stages.NewWeightResolver("weight-resolver", stages.WeightResolverConfig{
		EliteThreshold:         cfg.EliteThreshold,
		TournamentWinBonus:     cfg.TournamentWinBonus,
		RankDecayThresholdDays: cfg.RankDecayThresholdDays,
		MaxDecayPercent:        cfg.MaxDecayPercent,
	}, cache, resolverOpts...)
	if err != nil {
		return nil, err
	}

	seeder, err := stages.NewCaptainSeeder("captain-seeder", stages.CaptainSeederConfig{
		TeamCount: cfg.TeamCount,
		TeamSize:  cfg.TeamSize,
	}, reporter)
	if err != nil {
		return nil, err
	}

	optimizer, err := stages.NewOptimizer("optimizer", stages.OptimizerConfig{
		TeamSize:         cfg.TeamSize,
		EliteThreshold:   cfg.EliteThreshold,
		MaxElitePerTeam:  cfg.MaxElitePerTeam,
		HighValueRatio:   cfg.HighValueRatio,
		ExactSearchLimit: cfg.ExactSearchLimit,
		SearchBudget:     cfg.SearchBudget,
	}, reporter)
	if err != nil {
		return nil, err
	}

	analyzer, err := stages.NewBalanceAnalyzer("balance-analyzer", stages.BalanceAnalyzerConfig{
		MaxElitePerTeam:      cfg.MaxElitePerTeam,
		Bands:                cfg.QualityBands,
		EnableRedistribution: cfg.EnableRedistribution,
	})
	if err != nil {
		return nil, err
	}

	var engineOpts []application.EngineOption
	if o.metrics != nil {
		engineOpts = append(engineOpts, application.WithMetrics(o.metrics))
	}
	if o.onPhase != nil {
		engineOpts = append(engineOpts, application.WithPhaseListener(o.onPhase))
	}

	engine, err := application.NewEngine(cfg, resolver, seeder, optimizer, analyzer, engineOpts...)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, roster)
}
