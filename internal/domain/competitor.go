package domain

import "time"

// ManualOverride lets an organizer pin a competitor's weight regardless
// of rank evidence. When Enabled, the override wins over every other
// evidence source. Weight takes precedence over Tier when both are set.
type ManualOverride struct {
	// Enabled activates the override. A populated but disabled override
	// is ignored by weight resolution.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Tier derives the override weight from a tier's base points when
	// Weight is zero.
	Tier Tier `yaml:"tier,omitempty" json:"tier,omitempty"`

	// Weight is the exact effective weight to use, when positive.
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty"`

	// Reason documents why the override exists. Carried into the
	// calculation trace for auditability.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Competitor is the immutable roster snapshot for one participant.
// The engine never mutates it; the effective weight is derived into a
// ResolvedCompetitor, not written back.
type Competitor struct {
	// ID uniquely identifies the competitor within the tournament.
	ID string `yaml:"id" json:"id"`

	// Name is the display name or in-game handle.
	Name string `yaml:"name" json:"name"`

	// CurrentTier is the competitor's active rank tier, TierUnranked
	// when the account has no active rank, or empty when unknown.
	CurrentTier Tier `yaml:"current_tier,omitempty" json:"current_tier,omitempty"`

	// PeakTier is the highest tier the competitor ever reached.
	// Empty when no peak is on record.
	PeakTier Tier `yaml:"peak_tier,omitempty" json:"peak_tier,omitempty"`

	// PeakAt records when the peak tier was achieved. Nil when unknown;
	// time-based decay is skipped without it.
	PeakAt *time.Time `yaml:"peak_at,omitempty" json:"peak_at,omitempty"`

	// TournamentWins counts recorded tournament wins on this platform.
	TournamentWins int `yaml:"tournament_wins,omitempty" json:"tournament_wins,omitempty"`

	// LastWinAt records the most recent tournament win.
	LastWinAt *time.Time `yaml:"last_win_at,omitempty" json:"last_win_at,omitempty"`

	// RatingFallback is a raw weight rating imported from an external
	// system, used only when no rank evidence exists.
	RatingFallback float64 `yaml:"rating,omitempty" json:"rating,omitempty"`

	// Override is the optional organizer-pinned weight.
	Override *ManualOverride `yaml:"override,omitempty" json:"override,omitempty"`
}

// WeightSource identifies which branch of the evidence priority chain
// produced a competitor's effective weight.
type WeightSource string

// Weight resolution branches, in priority order.
const (
	// WeightSourceManualOverride means an enabled organizer override won.
	WeightSourceManualOverride WeightSource = "manual_override"

	// WeightSourceEvidenceBlend means current and peak tier evidence
	// were blended, with decay and bonuses applied.
	WeightSourceEvidenceBlend WeightSource = "evidence_blend"

	// WeightSourceCurrentTier means only the current tier's base points
	// were available.
	WeightSourceCurrentTier WeightSource = "current_tier"

	// WeightSourcePeakFallback means the competitor is unranked or has
	// no current tier, so a penalized peak was used.
	WeightSourcePeakFallback WeightSource = "peak_fallback"

	// WeightSourceDefault means no usable evidence existed and the
	// default weight (or imported rating) was applied.
	WeightSourceDefault WeightSource = "default"
)

// CalculationTrace records the intermediate quantities of one weight
// resolution so the arithmetic can be verified downstream. All fields
// are typed; human-readable text is rendered at the UI boundary only.
type CalculationTrace struct {
	// Branch is the priority-chain branch that fired.
	Branch WeightSource `json:"branch"`

	// CurrentBase is the current tier's base points (0 if none).
	CurrentBase float64 `json:"current_base"`

	// PeakBase is the peak tier's base points (0 if none).
	PeakBase float64 `json:"peak_base"`

	// TimeDecayFactor is the multiplier applied to the peak for age
	// (1.0 when no time decay applied).
	TimeDecayFactor float64 `json:"time_decay_factor"`

	// RankDropFactor is the multiplier applied to the peak for the gap
	// between peak and current tier (1.0 when no drop).
	RankDropFactor float64 `json:"rank_drop_factor"`

	// DormancyPenalty is the fraction removed from a peak when the
	// competitor is currently unranked (0 when not applied).
	DormancyPenalty float64 `json:"dormancy_penalty"`

	// WinBonus is the total tournament-win bonus added after capping.
	WinBonus float64 `json:"win_bonus"`

	// BonusCapped reports that the win bonus was clipped so it could
	// not push a non-elite weight across the elite threshold.
	BonusCapped bool `json:"bonus_capped"`

	// EvidenceDegraded reports that an external evidence lookup failed
	// and the resolution fell back to the roster snapshot.
	EvidenceDegraded bool `json:"evidence_degraded"`

	// OverrideReason carries the organizer's reason when Branch is
	// manual_override.
	OverrideReason string `json:"override_reason,omitempty"`

	// Notes holds short machine-written remarks about edge handling
	// (e.g. "peak below current, ignored").
	Notes []string `json:"notes,omitempty"`
}

// ResolvedCompetitor pairs a roster snapshot with its derived effective
// weight, classification, and audit trace. Created once per run by the
// weight resolver and treated as immutable afterwards.
type ResolvedCompetitor struct {
	Competitor

	// EffectiveWeight is the single scalar weight used by seeding and
	// optimization.
	EffectiveWeight float64 `json:"effective_weight"`

	// Source is the evidence branch that produced EffectiveWeight.
	Source WeightSource `json:"weight_source"`

	// IsElite reports EffectiveWeight >= the configured elite threshold.
	IsElite bool `json:"is_elite"`

	// Trace is the auditable arithmetic behind EffectiveWeight.
	Trace CalculationTrace `json:"calculation_trace"`
}
