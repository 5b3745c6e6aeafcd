package stages

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.Stage = (*BalanceAnalyzer)(nil)

// maxSwapSuggestions caps how many advisory swaps the redistribution
// hook emits.
const maxSwapSuggestions = 3

// BalanceAnalyzerConfig carries the tunables for final analysis.
type BalanceAnalyzerConfig struct {
	// MaxElitePerTeam is the stacking limit used for the elite
	// distribution summary.
	MaxElitePerTeam int `validate:"min=0"`

	// Bands are the quality classification thresholds.
	Bands domain.QualityBands `validate:"required"`

	// EnableRedistribution turns on the advisory swap-suggestion hook.
	// Off by default: forcing swaps after a validated,
	// constraint-respecting assignment risks re-introducing capacity or
	// anti-stacking violations, so suggestions stay suggestions.
	EnableRedistribution bool
}

// BalanceAnalyzer computes the final per-team totals, elite
// distribution, and quality classification for a completed assignment.
// When the redistribution hook is enabled it additionally proposes
// member swaps that would tighten the spread; it never applies them.
type BalanceAnalyzer struct {
	name   string
	config BalanceAnalyzerConfig
	tracer trace.Tracer
}

// NewBalanceAnalyzer creates a BalanceAnalyzer with a validated
// configuration.
func NewBalanceAnalyzer(name string, config BalanceAnalyzerConfig) (*BalanceAnalyzer, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if config.Bands.IdealMax >= config.Bands.GoodMax || config.Bands.GoodMax >= config.Bands.WarningMax {
		return nil, fmt.Errorf("%w: quality bands must be strictly increasing", domain.ErrInvalidConfiguration)
	}
	return &BalanceAnalyzer{
		name:   name,
		config: config,
		tracer: otel.Tracer("formation-engine"),
	}, nil
}

// Name returns the stage identifier.
func (ba *BalanceAnalyzer) Name() string { return ba.name }

// Validate checks the analyzer configuration.
func (ba *BalanceAnalyzer) Validate() error {
	if err := validate.Struct(ba.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if ba.config.Bands.IdealMax >= ba.config.Bands.GoodMax || ba.config.Bands.GoodMax >= ba.config.Bands.WarningMax {
		return fmt.Errorf("%w: quality bands must be strictly increasing", domain.ErrInvalidConfiguration)
	}
	return nil
}

// Execute publishes the balance metrics and, when enabled, the
// advisory swap suggestions.
func (ba *BalanceAnalyzer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	teams, ok := domain.Get(state, domain.KeyTeams)
	if !ok {
		return state, ErrMissingTeams
	}

	_, span := ba.tracer.Start(ctx, "BalanceAnalyzer.Execute",
		trace.WithAttributes(attribute.String("stage", ba.name)),
	)
	defer span.End()

	metrics := domain.ComputeBalanceMetrics(teams, ba.config.MaxElitePerTeam, ba.config.Bands)
	span.SetAttributes(
		attribute.Float64("balance.max_difference", metrics.MaxDifference),
		attribute.String("balance.quality", string(metrics.Quality)),
		attribute.Int("balance.stacked_teams", metrics.StackedTeams),
	)

	state = domain.With(state, domain.KeyMetrics, &metrics)
	if ba.config.EnableRedistribution {
		state = domain.With(state, domain.KeySuggestions, SuggestSwaps(teams))
	}
	return state, nil
}

// SuggestSwaps proposes up to maxSwapSuggestions member swaps that
// would reduce the max difference between team totals. Captains are
// never offered for swapping, since moving an anchor re-opens the
// seeding problem. Pure: the input teams are not modified.
func SuggestSwaps(teams []domain.Team) []domain.SwapSuggestion {
	totals := domain.Totals(teams)
	baseline := domain.Spread(totals)
	if baseline == 0 {
		return nil
	}

	var suggestions []domain.SwapSuggestion
	for a := 0; a < len(teams); a++ {
		for b := a + 1; b < len(teams); b++ {
			for ai := 1; ai < teams[a].Len(); ai++ {
				for bi := 1; bi < teams[b].Len(); bi++ {
					ma, mb := teams[a].Members[ai], teams[b].Members[bi]
					delta := mb.EffectiveWeight - ma.EffectiveWeight

					hypothetical := make([]float64, len(totals))
					copy(hypothetical, totals)
					hypothetical[a] += delta
					hypothetical[b] -= delta

					if improvement := baseline - domain.Spread(hypothetical); improvement > 0 {
						suggestions = append(suggestions, domain.SwapSuggestion{
							TeamA:       a,
							TeamB:       b,
							CompetitorA: ma.ID,
							CompetitorB: mb.ID,
							Improvement: improvement,
						})
					}
				}
			}
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Improvement > suggestions[j].Improvement
	})
	if len(suggestions) > maxSwapSuggestions {
		suggestions = suggestions[:maxSwapSuggestions]
	}
	return suggestions
}
