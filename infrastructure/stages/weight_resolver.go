package stages

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.Stage = (*WeightResolver)(nil)

// Rank-drop decay tiers. The factors are applied to the peak's
// contribution when the current tier sits below the peak: bigger drops
// are penalized super-linearly, not interpolated.
const (
	dropGapMinor  = 60.0  // up to ~two sub-ranks
	dropGapMajor  = 140.0 // up to a full tier
	dropGapSevere = 240.0 // multiple tiers

	dropFactorMinor   = 0.8
	dropFactorMajor   = 0.6
	dropFactorSevere  = 0.4
	dropFactorExtreme = 0.2
)

// decayTimeConstantDays controls how fast a stale peak loses value
// once it is older than the configured decay threshold.
const decayTimeConstantDays = 365.0

// Blend proportions for combining current-tier evidence with an
// adjusted peak. Current form dominates; the peak tempers it.
const (
	blendCurrentShare = 0.6
	blendPeakShare    = 0.4
)

// Dormancy penalty bounds for unranked competitors with a peak on
// record. The penalty scales with how high the peak was: dormancy at a
// high peak is the less trustworthy signal.
const (
	dormancyPenaltyFloor = 0.25
	dormancyPenaltySpan  = 0.35
)

// winBonusDecay is the per-win geometric falloff of the tournament-win
// bonus, so repeat winners see diminishing returns.
const winBonusDecay = 0.85

// WeightResolverConfig carries the tunables for weight resolution.
type WeightResolverConfig struct {
	// EliteThreshold is the weight at or above which a competitor is
	// classified elite.
	EliteThreshold float64 `validate:"gt=0"`

	// TournamentWinBonus is the base bonus added per recorded win,
	// before diminishing returns and capping.
	TournamentWinBonus float64 `validate:"gte=0"`

	// RankDecayThresholdDays is the peak age beyond which time decay
	// starts.
	RankDecayThresholdDays int `validate:"gte=0"`

	// MaxDecayPercent caps time decay as a fraction of the peak
	// (0.30 means the peak never loses more than 30% to age).
	MaxDecayPercent float64 `validate:"gte=0,lte=0.9"`
}

// WeightResolverOption customizes a WeightResolver.
type WeightResolverOption func(*WeightResolver)

// WithEvidenceSource enriches competitors from an external skill
// history before resolution. Lookup failures degrade to the roster
// snapshot and tag the trace, per the graceful-degradation policy.
func WithEvidenceSource(src ports.EvidenceSource) WeightResolverOption {
	return func(wr *WeightResolver) { wr.evidence = src }
}

// WithClock overrides the time source used for decay arithmetic.
// Intended for tests.
func WithClock(now func() time.Time) WeightResolverOption {
	return func(wr *WeightResolver) { wr.now = now }
}

// WeightResolver turns each roster snapshot into a ResolvedCompetitor:
// one effective scalar weight, the evidence branch that produced it,
// and a typed calculation trace. Resolution is batch: every competitor
// is resolved before the next stage sees the state, so seeding never
// observes partially-resolved weights.
//
// Resolutions are memoized in a process-scoped WeightCache keyed by an
// input fingerprint; unchanged competitors resolve without re-deriving
// from evidence.
type WeightResolver struct {
	name     string
	config   WeightResolverConfig
	cache    *WeightCache
	evidence ports.EvidenceSource
	now      func() time.Time
	tracer   trace.Tracer
}

// NewWeightResolver creates a WeightResolver with a validated
// configuration. A nil cache gets a private one, which disables
// cross-run memoization but keeps the stage self-contained.
func NewWeightResolver(name string, config WeightResolverConfig, cache *WeightCache, opts ...WeightResolverOption) (*WeightResolver, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if cache == nil {
		cache = NewWeightCache()
	}

	wr := &WeightResolver{
		name:   name,
		config: config,
		cache:  cache,
		now:    time.Now,
		tracer: otel.Tracer("formation-engine"),
	}
	for _, opt := range opts {
		opt(wr)
	}
	return wr, nil
}

// Name returns the stage identifier.
func (wr *WeightResolver) Name() string { return wr.name }

// Validate checks the resolver configuration.
func (wr *WeightResolver) Validate() error {
	if err := validate.Struct(wr.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// CacheStats exposes the underlying cache hit/miss counters for
// metrics reporting.
func (wr *WeightResolver) CacheStats() (hits, misses int64) {
	return wr.cache.Stats()
}

// Execute resolves every roster competitor and publishes the batch,
// sorted by descending effective weight (ties broken by ID for run
// determinism), under KeyResolved.
func (wr *WeightResolver) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	roster, ok := domain.Get(state, domain.KeyRoster)
	if !ok {
		return state, ErrMissingRoster
	}

	ctx, span := wr.tracer.Start(ctx, "WeightResolver.Execute",
		trace.WithAttributes(
			attribute.String("stage", wr.name),
			attribute.Int("roster.size", len(roster)),
		),
	)
	defer span.End()

	resolved := make([]domain.ResolvedCompetitor, 0, len(roster))
	for _, comp := range roster {
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		default:
		}

		comp, degraded := wr.enrich(ctx, comp)

		res, _ := wr.cache.resolve(Fingerprint(comp), func() resolution {
			return wr.resolveOne(comp)
		})
		if degraded {
			res.Trace.EvidenceDegraded = true
		}

		resolved = append(resolved, domain.ResolvedCompetitor{
			Competitor:      comp,
			EffectiveWeight: res.Weight,
			Source:          res.Source,
			IsElite:         res.Weight >= wr.config.EliteThreshold,
			Trace:           res.Trace,
		})
	}

	sortByWeightDesc(resolved)

	hits, misses := wr.cache.Stats()
	span.SetAttributes(
		attribute.Int64("cache.hits", hits),
		attribute.Int64("cache.misses", misses),
	)
	return domain.With(state, domain.KeyResolved, resolved), nil
}

// enrich refreshes a snapshot from the external evidence source when
// one is configured. On lookup failure the snapshot is returned as-is
// and the second result reports the degradation; a plain "no record"
// is not a degradation.
func (wr *WeightResolver) enrich(ctx context.Context, comp domain.Competitor) (domain.Competitor, bool) {
	if wr.evidence == nil {
		return comp, false
	}

	ev, err := wr.evidence.FetchEvidence(ctx, comp)
	if err != nil {
		if evErr, ok := err.(*ports.EvidenceError); ok && !evErr.IsRetryable() {
			return comp, false
		}
		return comp, true
	}

	if ev.PeakTier.IsRanked() {
		comp.PeakTier = ev.PeakTier
		comp.PeakAt = ev.PeakAt
	}
	if ev.TournamentWins > comp.TournamentWins {
		comp.TournamentWins = ev.TournamentWins
		comp.LastWinAt = ev.LastWinAt
	}
	return comp, false
}

// resolveOne walks the evidence priority chain for one competitor.
// First matching branch wins.
func (wr *WeightResolver) resolveOne(c domain.Competitor) resolution {
	tr := domain.CalculationTrace{
		TimeDecayFactor: 1.0,
		RankDropFactor:  1.0,
	}
	if base, ok := domain.BasePoints(c.CurrentTier); ok {
		tr.CurrentBase = base
	}
	if base, ok := domain.BasePoints(c.PeakTier); ok {
		tr.PeakBase = base
	}

	switch {
	case c.Override != nil && c.Override.Enabled:
		return wr.resolveOverride(c, tr)

	case tr.CurrentBase > 0 && tr.PeakBase > 0:
		return wr.resolveBlend(c, tr)

	case tr.CurrentBase > 0:
		return wr.resolveCurrentOnly(c, tr)

	case tr.PeakBase > 0:
		return wr.resolvePeakFallback(c, tr)

	default:
		return wr.resolveDefault(c, tr)
	}
}

// resolveOverride applies an enabled organizer override: the exact
// weight when set, otherwise the override tier's base points.
func (wr *WeightResolver) resolveOverride(c domain.Competitor, tr domain.CalculationTrace) resolution {
	tr.Branch = domain.WeightSourceManualOverride
	tr.OverrideReason = c.Override.Reason

	weight := c.Override.Weight
	if weight <= 0 {
		if base, ok := domain.BasePoints(c.Override.Tier); ok {
			weight = base
			tr.Notes = append(tr.Notes, "override weight derived from override tier")
		} else {
			weight = domain.DefaultWeight
			tr.Notes = append(tr.Notes, "override enabled without usable weight or tier, default applied")
		}
	}
	return resolution{Weight: weight, Source: domain.WeightSourceManualOverride, Trace: tr}
}

// resolveBlend combines current-tier base points with the peak's,
// after time decay and rank-drop decay shrink the peak's contribution.
func (wr *WeightResolver) resolveBlend(c domain.Competitor, tr domain.CalculationTrace) resolution {
	tr.Branch = domain.WeightSourceEvidenceBlend
	tr.TimeDecayFactor = wr.timeDecayFactor(c.PeakAt)
	tr.RankDropFactor = rankDropFactor(tr.PeakBase - tr.CurrentBase)

	adjustedPeak := tr.PeakBase * tr.TimeDecayFactor * tr.RankDropFactor

	weight := tr.CurrentBase
	if adjustedPeak > tr.CurrentBase {
		weight = blendCurrentShare*tr.CurrentBase + blendPeakShare*adjustedPeak
	} else {
		tr.Notes = append(tr.Notes, "adjusted peak at or below current tier, peak ignored")
	}

	weight = wr.applyWinBonus(c, weight, &tr)
	return resolution{Weight: weight, Source: domain.WeightSourceEvidenceBlend, Trace: tr}
}

// resolveCurrentOnly uses the current tier's base points when no peak
// or override exists.
func (wr *WeightResolver) resolveCurrentOnly(c domain.Competitor, tr domain.CalculationTrace) resolution {
	tr.Branch = domain.WeightSourceCurrentTier
	weight := wr.applyWinBonus(c, tr.CurrentBase, &tr)
	return resolution{Weight: weight, Source: domain.WeightSourceCurrentTier, Trace: tr}
}

// resolvePeakFallback handles competitors with a peak but no current
// rank. The peak is time-decayed, then a dormancy penalty scaled to
// the height of the peak is removed: the higher the dormant peak, the
// less trustworthy it is.
func (wr *WeightResolver) resolvePeakFallback(c domain.Competitor, tr domain.CalculationTrace) resolution {
	tr.Branch = domain.WeightSourcePeakFallback
	tr.TimeDecayFactor = wr.timeDecayFactor(c.PeakAt)
	tr.DormancyPenalty = dormancyPenaltyFloor + dormancyPenaltySpan*(tr.PeakBase/domain.MaxTierPoints)

	weight := tr.PeakBase * tr.TimeDecayFactor * (1 - tr.DormancyPenalty)
	weight = wr.applyWinBonus(c, weight, &tr)
	return resolution{Weight: weight, Source: domain.WeightSourcePeakFallback, Trace: tr}
}

// resolveDefault applies the imported rating when one exists, else the
// fixed default weight. The fallback is recorded in the trace so a
// defaulted weight is distinguishable from a real one.
func (wr *WeightResolver) resolveDefault(c domain.Competitor, tr domain.CalculationTrace) resolution {
	tr.Branch = domain.WeightSourceDefault
	weight := domain.DefaultWeight
	if c.RatingFallback > 0 {
		weight = c.RatingFallback
		tr.Notes = append(tr.Notes, "imported rating used, no rank evidence")
	} else {
		tr.Notes = append(tr.Notes, "no usable evidence, default weight applied")
	}
	return resolution{Weight: weight, Source: domain.WeightSourceDefault, Trace: tr}
}

// timeDecayFactor returns the multiplier for a peak of the given age:
// 1.0 inside the decay threshold, then an exponential falloff floored
// at 1 - MaxDecayPercent. An unknown peak date skips decay.
func (wr *WeightResolver) timeDecayFactor(peakAt *time.Time) float64 {
	if peakAt == nil || wr.config.RankDecayThresholdDays <= 0 {
		return 1.0
	}
	days := wr.now().Sub(*peakAt).Hours() / 24
	over := days - float64(wr.config.RankDecayThresholdDays)
	if over <= 0 {
		return 1.0
	}
	factor := math.Exp(-over / decayTimeConstantDays)
	return math.Max(factor, 1-wr.config.MaxDecayPercent)
}

// rankDropFactor maps the point gap between peak and current tier to a
// tiered decay factor. Gaps at or below zero mean no drop.
func rankDropFactor(gap float64) float64 {
	switch {
	case gap <= 0:
		return 1.0
	case gap <= dropGapMinor:
		return dropFactorMinor
	case gap <= dropGapMajor:
		return dropFactorMajor
	case gap <= dropGapSevere:
		return dropFactorSevere
	default:
		return dropFactorExtreme
	}
}

// applyWinBonus adds the diminishing tournament-win bonus to a base
// weight. The bonus alone never pushes a non-elite weight across the
// elite threshold: without actual rank evidence at elite level, wins
// cap out just below it.
func (wr *WeightResolver) applyWinBonus(c domain.Competitor, weight float64, tr *domain.CalculationTrace) float64 {
	if c.TournamentWins <= 0 || wr.config.TournamentWinBonus <= 0 {
		return weight
	}

	var bonus float64
	step := wr.config.TournamentWinBonus
	for i := 0; i < c.TournamentWins; i++ {
		bonus += step
		step *= winBonusDecay
	}

	if weight < wr.config.EliteThreshold && weight+bonus >= wr.config.EliteThreshold {
		bonus = wr.config.EliteThreshold - 1 - weight
		if bonus < 0 {
			bonus = 0
		}
		tr.BonusCapped = true
	}

	tr.WinBonus = bonus
	return weight + bonus
}

// sortByWeightDesc sorts competitors by descending effective weight,
// breaking ties by ID ascending. The stable tie-break makes runs with
// unchanged inputs reproduce identical team membership.
func sortByWeightDesc(rcs []domain.ResolvedCompetitor) {
	sort.SliceStable(rcs, func(i, j int) bool {
		if rcs[i].EffectiveWeight != rcs[j].EffectiveWeight {
			return rcs[i].EffectiveWeight > rcs[j].EffectiveWeight
		}
		return rcs[i].ID < rcs[j].ID
	})
}
