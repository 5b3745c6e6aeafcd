package stages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var testResolverConfig = WeightResolverConfig{
	EliteThreshold:         400,
	TournamentWinBonus:     15,
	RankDecayThresholdDays: 90,
	MaxDecayPercent:        0.30,
}

// stubEvidence is a canned EvidenceSource for resolver tests.
type stubEvidence struct {
	ev  ports.Evidence
	err error
}

func (s *stubEvidence) FetchEvidence(ctx context.Context, c domain.Competitor) (ports.Evidence, error) {
	return s.ev, s.err
}

func newTestResolver(t *testing.T, opts ...WeightResolverOption) *WeightResolver {
	t.Helper()
	wr, err := NewWeightResolver("resolver", testResolverConfig, NewWeightCache(), opts...)
	require.NoError(t, err)
	return wr
}

func resolveSingle(t *testing.T, wr *WeightResolver, c domain.Competitor) domain.ResolvedCompetitor {
	t.Helper()
	state := domain.With(domain.NewState(), domain.KeyRoster, []domain.Competitor{c})
	out, err := wr.Execute(context.Background(), state)
	require.NoError(t, err)
	resolved, ok := domain.Get(out, domain.KeyResolved)
	require.True(t, ok, "Execute must publish the resolved batch.")
	require.Len(t, resolved, 1)
	return resolved[0]
}

func TestNewWeightResolver_Validation(t *testing.T) {
	_, err := NewWeightResolver("", testResolverConfig, nil)
	assert.ErrorIs(t, err, ErrEmptyStageName)

	_, err = NewWeightResolver("resolver", WeightResolverConfig{EliteThreshold: 0}, nil)
	assert.Error(t, err, "A zero elite threshold must fail validation.")

	bad := testResolverConfig
	bad.MaxDecayPercent = 0.95
	_, err = NewWeightResolver("resolver", bad, nil)
	assert.Error(t, err, "Decay above 90% must fail validation.")
}

// TestWeightResolver_PriorityChain pins each branch of the evidence
// priority chain: override, blend, current only, peak fallback,
// default.
func TestWeightResolver_PriorityChain(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -30)

	tests := []struct {
		name       string
		competitor domain.Competitor
		wantWeight float64
		wantSource domain.WeightSource
		check      func(t *testing.T, rc domain.ResolvedCompetitor)
	}{
		{
			name: "enabled override wins over everything",
			competitor: domain.Competitor{
				ID: "p1", CurrentTier: "radiant", PeakTier: "radiant",
				Override: &domain.ManualOverride{Enabled: true, Weight: 275, Reason: "smurf account"},
			},
			wantWeight: 275,
			wantSource: domain.WeightSourceManualOverride,
			check: func(t *testing.T, rc domain.ResolvedCompetitor) {
				assert.Equal(t, "smurf account", rc.Trace.OverrideReason)
			},
		},
		{
			name: "disabled override is ignored",
			competitor: domain.Competitor{
				ID: "p2", CurrentTier: "diamond_2",
				Override: &domain.ManualOverride{Enabled: false, Weight: 275},
			},
			wantWeight: 240,
			wantSource: domain.WeightSourceCurrentTier,
		},
		{
			name: "override tier when no override weight",
			competitor: domain.Competitor{
				ID:       "p3",
				Override: &domain.ManualOverride{Enabled: true, Tier: "diamond_1"},
			},
			wantWeight: 220,
			wantSource: domain.WeightSourceManualOverride,
		},
		{
			name: "blend of current and adjusted peak",
			competitor: domain.Competitor{
				ID: "p4", CurrentTier: "gold_1", PeakTier: "platinum_2", PeakAt: &recent,
			},
			// 0.6*120 + 0.4*(180*1.0*0.8) = 129.6
			wantWeight: 129.6,
			wantSource: domain.WeightSourceEvidenceBlend,
			check: func(t *testing.T, rc domain.ResolvedCompetitor) {
				assert.Equal(t, 0.8, rc.Trace.RankDropFactor)
				assert.Equal(t, 1.0, rc.Trace.TimeDecayFactor)
			},
		},
		{
			name: "adjusted peak below current is ignored",
			competitor: domain.Competitor{
				ID: "p5", CurrentTier: "immortal_1", PeakTier: "radiant", PeakAt: &recent,
			},
			// 500*0.6 = 300 < 380, blend collapses to the current base.
			wantWeight: 380,
			wantSource: domain.WeightSourceEvidenceBlend,
			check: func(t *testing.T, rc domain.ResolvedCompetitor) {
				assert.NotEmpty(t, rc.Trace.Notes, "Ignoring the peak should leave a note.")
			},
		},
		{
			name:       "current tier only",
			competitor: domain.Competitor{ID: "p6", CurrentTier: "diamond_2"},
			wantWeight: 240,
			wantSource: domain.WeightSourceCurrentTier,
		},
		{
			name: "peak fallback with dormancy penalty",
			competitor: domain.Competitor{
				ID: "p7", CurrentTier: domain.TierUnranked, PeakTier: "immortal_1", PeakAt: &recent,
			},
			// penalty = 0.25 + 0.35*380/500 = 0.516 -> 380*0.484
			wantWeight: 183.92,
			wantSource: domain.WeightSourcePeakFallback,
			check: func(t *testing.T, rc domain.ResolvedCompetitor) {
				assert.InDelta(t, 0.516, rc.Trace.DormancyPenalty, 1e-9)
			},
		},
		{
			name:       "imported rating fallback",
			competitor: domain.Competitor{ID: "p8", RatingFallback: 212},
			wantWeight: 212,
			wantSource: domain.WeightSourceDefault,
		},
		{
			name:       "no evidence at all",
			competitor: domain.Competitor{ID: "p9"},
			wantWeight: domain.DefaultWeight,
			wantSource: domain.WeightSourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wr := newTestResolver(t, WithClock(func() time.Time { return now }))
			rc := resolveSingle(t, wr, tt.competitor)

			assert.InDelta(t, tt.wantWeight, rc.EffectiveWeight, 1e-9, "Effective weight mismatch.")
			assert.Equal(t, tt.wantSource, rc.Source, "Weight source mismatch.")
			assert.Equal(t, tt.wantSource, rc.Trace.Branch, "Trace branch mismatch.")
			if tt.check != nil {
				tt.check(t, rc)
			}
		})
	}
}

func TestWeightResolver_WinBonus(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("diminishing returns", func(t *testing.T) {
		wr := newTestResolver(t, WithClock(func() time.Time { return now }))
		rc := resolveSingle(t, wr, domain.Competitor{ID: "p1", CurrentTier: "diamond_1", TournamentWins: 3})

		// 15 + 15*0.85 + 15*0.85^2 = 38.5875
		assert.InDelta(t, 220+38.5875, rc.EffectiveWeight, 1e-9)
		assert.InDelta(t, 38.5875, rc.Trace.WinBonus, 1e-9)
		assert.False(t, rc.Trace.BonusCapped)
	})

	t.Run("bonus cannot cross the elite threshold", func(t *testing.T) {
		wr := newTestResolver(t, WithClock(func() time.Time { return now }))
		rc := resolveSingle(t, wr, domain.Competitor{ID: "p2", CurrentTier: "immortal_1", TournamentWins: 2})

		// Base 380 plus uncapped 27.75 would cross 400; cap at 399.
		assert.Equal(t, 399.0, rc.EffectiveWeight)
		assert.True(t, rc.Trace.BonusCapped, "Crossing the threshold on wins alone must be capped.")
		assert.False(t, rc.IsElite)
	})

	t.Run("elite base keeps its full bonus", func(t *testing.T) {
		wr := newTestResolver(t, WithClock(func() time.Time { return now }))
		rc := resolveSingle(t, wr, domain.Competitor{ID: "p3", CurrentTier: "immortal_2", TournamentWins: 1})

		assert.Equal(t, 425.0, rc.EffectiveWeight, "Already-elite bases are not capped.")
		assert.False(t, rc.Trace.BonusCapped)
		assert.True(t, rc.IsElite)
	})
}

func TestWeightResolver_TimeDecay(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	wr := newTestResolver(t, WithClock(func() time.Time { return now }))

	t.Run("decay floors at the configured cap", func(t *testing.T) {
		// 90-day threshold plus 3 years over: raw exp decay would be
		// ~0.05, the 30% cap floors the factor at 0.7.
		old := now.AddDate(-3, 0, -90)
		rc := resolveSingle(t, wr, domain.Competitor{
			ID: "p1", CurrentTier: domain.TierUnranked, PeakTier: "radiant", PeakAt: &old,
		})

		assert.InDelta(t, 0.7, rc.Trace.TimeDecayFactor, 1e-9)
		// 500 * 0.7 * (1 - 0.6) = 140
		assert.InDelta(t, 140, rc.EffectiveWeight, 1e-9)
	})

	t.Run("no decay inside the threshold", func(t *testing.T) {
		fresh := now.AddDate(0, 0, -89)
		rc := resolveSingle(t, wr, domain.Competitor{
			ID: "p2", CurrentTier: domain.TierUnranked, PeakTier: "radiant", PeakAt: &fresh,
		})
		assert.Equal(t, 1.0, rc.Trace.TimeDecayFactor)
	})

	t.Run("unknown peak date skips decay", func(t *testing.T) {
		rc := resolveSingle(t, wr, domain.Competitor{
			ID: "p3", CurrentTier: domain.TierUnranked, PeakTier: "radiant",
		})
		assert.Equal(t, 1.0, rc.Trace.TimeDecayFactor)
	})
}

// TestWeightResolver_Sorting verifies the published batch is ordered
// by descending weight with ID as the deterministic tie-break.
func TestWeightResolver_Sorting(t *testing.T) {
	wr := newTestResolver(t)
	roster := []domain.Competitor{
		{ID: "z", CurrentTier: "gold_3"},
		{ID: "a", CurrentTier: "gold_3"},
		{ID: "m", CurrentTier: "radiant"},
		{ID: "k", CurrentTier: "iron_1"},
	}

	state := domain.With(domain.NewState(), domain.KeyRoster, roster)
	out, err := wr.Execute(context.Background(), state)
	require.NoError(t, err)

	resolved, ok := domain.Get(out, domain.KeyResolved)
	require.True(t, ok)

	ids := make([]string, 0, len(resolved))
	for _, rc := range resolved {
		ids = append(ids, rc.ID)
	}
	assert.Equal(t, []string{"m", "a", "z", "k"}, ids,
		"Descending weight, equal weights ordered by ID.")
}

func TestWeightResolver_EvidenceEnrichment(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	peakAt := now.AddDate(0, 0, -20)

	t.Run("evidence upgrades the snapshot", func(t *testing.T) {
		src := &stubEvidence{ev: ports.Evidence{PeakTier: "platinum_2", PeakAt: &peakAt}}
		wr := newTestResolver(t, WithEvidenceSource(src), WithClock(func() time.Time { return now }))

		rc := resolveSingle(t, wr, domain.Competitor{ID: "p1", CurrentTier: "gold_1"})
		assert.Equal(t, domain.WeightSourceEvidenceBlend, rc.Source,
			"The fetched peak should move resolution to the blend branch.")
		assert.False(t, rc.Trace.EvidenceDegraded)
	})

	t.Run("lookup failure degrades gracefully", func(t *testing.T) {
		src := &stubEvidence{err: ports.NewEvidenceError("p1", "fetch_evidence", ports.ErrSourceUnavailable)}
		wr := newTestResolver(t, WithEvidenceSource(src))

		rc := resolveSingle(t, wr, domain.Competitor{ID: "p1", CurrentTier: "gold_1"})
		assert.Equal(t, 120.0, rc.EffectiveWeight, "The roster snapshot still resolves.")
		assert.True(t, rc.Trace.EvidenceDegraded, "Degradation must be visible in the trace.")
	})

	t.Run("missing record is not a degradation", func(t *testing.T) {
		src := &stubEvidence{err: ports.NewEvidenceError("p1", "fetch_evidence", ports.ErrNoEvidence)}
		wr := newTestResolver(t, WithEvidenceSource(src))

		rc := resolveSingle(t, wr, domain.Competitor{ID: "p1", CurrentTier: "gold_1"})
		assert.False(t, rc.Trace.EvidenceDegraded, "An unknown competitor is a normal outcome.")
	})
}

// TestWeightResolver_CacheDeterminism verifies that resolving the same
// roster twice through one resolver serves the second pass from cache
// with identical results.
func TestWeightResolver_CacheDeterminism(t *testing.T) {
	cache := NewWeightCache()
	wr, err := NewWeightResolver("resolver", testResolverConfig, cache)
	require.NoError(t, err)

	roster := []domain.Competitor{
		{ID: "p1", CurrentTier: "diamond_3"},
		{ID: "p2", CurrentTier: "silver_2", PeakTier: "gold_2"},
	}
	state := domain.With(domain.NewState(), domain.KeyRoster, roster)

	out1, err := wr.Execute(context.Background(), state)
	require.NoError(t, err)
	out2, err := wr.Execute(context.Background(), state)
	require.NoError(t, err)

	first, _ := domain.Get(out1, domain.KeyResolved)
	second, _ := domain.Get(out2, domain.KeyResolved)
	assert.Equal(t, first, second, "Cached resolution must be bit-identical.")

	hits, misses := cache.Stats()
	assert.Equal(t, int64(2), hits, "Second pass should be all hits.")
	assert.Equal(t, int64(2), misses, "First pass should be all misses.")
}

func TestWeightResolver_MissingRoster(t *testing.T) {
	wr := newTestResolver(t)
	_, err := wr.Execute(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, ErrMissingRoster)
}
