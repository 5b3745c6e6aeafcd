package domain

import "math"

// QualityTier is the discrete classification of how evenly team point
// totals are distributed.
type QualityTier string

// Balance quality classifications, ordered best to worst.
const (
	QualityIdeal   QualityTier = "ideal"
	QualityGood    QualityTier = "good"
	QualityWarning QualityTier = "warning"
	QualityPoor    QualityTier = "poor"
)

// QualityBands holds the inclusive upper bounds (on the max difference
// between any two teams' totals) for each quality tier. Anything above
// WarningMax is poor.
type QualityBands struct {
	IdealMax   float64 `yaml:"ideal_max" json:"ideal_max" validate:"gt=0"`
	GoodMax    float64 `yaml:"good_max" json:"good_max" validate:"gt=0"`
	WarningMax float64 `yaml:"warning_max" json:"warning_max" validate:"gt=0"`
}

// DefaultQualityBands returns the stock 50/100/150 point bands.
func DefaultQualityBands() QualityBands {
	return QualityBands{IdealMax: 50, GoodMax: 100, WarningMax: 150}
}

// ClassifyQuality maps a max team-total difference onto a quality tier.
// Pure and deterministic: equal inputs always classify equally.
func ClassifyQuality(maxDifference float64, bands QualityBands) QualityTier {
	switch {
	case maxDifference <= bands.IdealMax:
		return QualityIdeal
	case maxDifference <= bands.GoodMax:
		return QualityGood
	case maxDifference <= bands.WarningMax:
		return QualityWarning
	default:
		return QualityPoor
	}
}

// BalanceMetrics summarizes the point distribution of a completed run.
type BalanceMetrics struct {
	// TeamTotals holds each team's final point total, by team index.
	TeamTotals []float64 `json:"team_totals"`

	// Min, Max, and Average describe the distribution of TeamTotals.
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`

	// MaxDifference is Max - Min, the spread the quality tier is
	// derived from.
	MaxDifference float64 `json:"max_difference"`

	// Quality is the deterministic classification of MaxDifference.
	Quality QualityTier `json:"quality_tier"`

	// EliteCounts holds each team's elite member count, by team index.
	EliteCounts []int `json:"elite_counts"`

	// StackedTeams counts teams holding more than the configured
	// maximum elites per team.
	StackedTeams int `json:"stacked_teams"`
}

// ComputeBalanceMetrics derives the final metrics for a set of teams.
// maxElitePerTeam controls the stacking count; bands control the
// quality classification.
func ComputeBalanceMetrics(teams []Team, maxElitePerTeam int, bands QualityBands) BalanceMetrics {
	m := BalanceMetrics{
		TeamTotals:  Totals(teams),
		EliteCounts: make([]int, len(teams)),
	}
	if len(teams) == 0 {
		m.Quality = ClassifyQuality(0, bands)
		return m
	}

	m.Min = math.Inf(1)
	m.Max = math.Inf(-1)
	var sum float64
	for i, total := range m.TeamTotals {
		sum += total
		m.Min = math.Min(m.Min, total)
		m.Max = math.Max(m.Max, total)
		m.EliteCounts[i] = teams[i].EliteCount()
		if m.EliteCounts[i] > maxElitePerTeam {
			m.StackedTeams++
		}
	}
	m.Average = sum / float64(len(teams))
	m.MaxDifference = m.Max - m.Min
	m.Quality = ClassifyQuality(m.MaxDifference, bands)
	return m
}

// Variance returns the population variance of the given totals.
func Variance(totals []float64) float64 {
	if len(totals) == 0 {
		return 0
	}
	var sum float64
	for _, t := range totals {
		sum += t
	}
	mean := sum / float64(len(totals))
	var ss float64
	for _, t := range totals {
		d := t - mean
		ss += d * d
	}
	return ss / float64(len(totals))
}

// Spread returns max(totals) - min(totals), 0 for empty input.
func Spread(totals []float64) float64 {
	if len(totals) == 0 {
		return 0
	}
	lo, hi := totals[0], totals[0]
	for _, t := range totals[1:] {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	return hi - lo
}

// SwapSuggestion describes a member swap that would reduce the max
// difference between team totals. Suggestions are advisory only; the
// engine never applies them.
type SwapSuggestion struct {
	// TeamA and TeamB are the teams whose members would swap.
	TeamA int `json:"team_a"`
	TeamB int `json:"team_b"`

	// CompetitorA and CompetitorB identify the members to exchange.
	CompetitorA string `json:"competitor_a"`
	CompetitorB string `json:"competitor_b"`

	// Improvement is the reduction in max difference the swap would
	// yield (positive means better balance).
	Improvement float64 `json:"improvement"`
}
