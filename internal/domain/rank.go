// Package domain contains pure, dependency-free domain models and types
// for the team-formation engine.
package domain

// Tier identifies a competitive rank tier, including its sub-rank
// (e.g. "diamond_2"). The zero value means "no tier on record".
type Tier string

// TierUnranked marks a competitor whose account currently has no active
// rank. It carries no base points of its own; weight resolution falls
// back to peak evidence or the default weight.
const TierUnranked Tier = "unranked"

// DefaultWeight is the mid-tier anchor used for competitors with no
// usable skill evidence at all. It equals the gold_3 base points.
const DefaultWeight = 150.0

// tierBasePoints maps every known tier to its base point value.
// The ladder is deliberately super-linear towards the top: the gap
// between adjacent elite tiers is larger than between low tiers, so
// point totals reflect the real skill spread in mixed lobbies.
var tierBasePoints = map[Tier]float64{
	"iron_1":      25,
	"iron_2":      30,
	"iron_3":      35,
	"bronze_1":    50,
	"bronze_2":    60,
	"bronze_3":    70,
	"silver_1":    85,
	"silver_2":    95,
	"silver_3":    105,
	"gold_1":      120,
	"gold_2":      135,
	"gold_3":      150,
	"platinum_1":  165,
	"platinum_2":  180,
	"platinum_3":  195,
	"diamond_1":   220,
	"diamond_2":   240,
	"diamond_3":   260,
	"ascendant_1": 285,
	"ascendant_2": 315,
	"ascendant_3": 345,
	"immortal_1":  380,
	"immortal_2":  410,
	"immortal_3":  440,
	"radiant":     500,
}

// MaxTierPoints is the base point value of the highest tier on the
// ladder. Dormancy penalties are scaled against it.
const MaxTierPoints = 500.0

// BasePoints returns the base point value for a tier and whether the
// tier is a known ranked tier. Unranked and unknown tiers report false.
func BasePoints(t Tier) (float64, bool) {
	pts, ok := tierBasePoints[t]
	return pts, ok
}

// IsRanked reports whether the tier is a known ranked tier
// (i.e. not empty, not unranked, not a typo).
func (t Tier) IsRanked() bool {
	_, ok := tierBasePoints[t]
	return ok
}

// KnownTiers returns every tier on the ladder, ordered by ascending
// base points. Useful for validation and UI pickers.
func KnownTiers() []Tier {
	out := make([]Tier, 0, len(tierBasePoints))
	for t := range tierBasePoints {
		out = append(out, t)
	}
	// Insertion sort by points; the ladder is small and this keeps the
	// function dependency-free.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && tierBasePoints[out[j]] < tierBasePoints[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
