// Package application wires the formation pipeline together: run
// configuration, the sequential engine, and its state machine.
package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config is the immutable per-run configuration for the formation
// engine. Every tunable the algorithms consult lives here as a named
// field, including the cutoffs that were historically buried as
// literals (exact-search limit, search budget, quality bands), so
// deployments can tune them without code changes.
type Config struct {
	// TeamCount is the number of teams to form.
	TeamCount int `yaml:"team_count" validate:"required,min=1,max=64"`

	// TeamSize is the member capacity of each team.
	TeamSize int `yaml:"team_size" validate:"required,min=1,max=10"`

	// EliteThreshold is the effective weight at or above which a
	// competitor is classified elite.
	EliteThreshold float64 `yaml:"elite_threshold" validate:"gt=0"`

	// MaxElitePerTeam caps elites per team before a team counts as
	// stacked.
	MaxElitePerTeam int `yaml:"max_elite_per_team" validate:"min=0"`

	// TournamentWinBonus is the base weight bonus per recorded win.
	TournamentWinBonus float64 `yaml:"tournament_win_bonus" validate:"gte=0"`

	// RankDecayThresholdDays is the peak age beyond which time decay
	// starts.
	RankDecayThresholdDays int `yaml:"rank_decay_threshold_days" validate:"gte=0"`

	// MaxDecayPercent caps time decay as a fraction of the peak.
	MaxDecayPercent float64 `yaml:"max_decay_percent" validate:"gte=0,lte=0.9"`

	// HighValueRatio defines the elite-adjacent anti-stacking cutoff
	// as a fraction of EliteThreshold.
	HighValueRatio float64 `yaml:"high_value_ratio" validate:"gt=0,lte=1"`

	// ExactSearchLimit is the residual pool size at or below which the
	// exhaustive strategy runs.
	ExactSearchLimit int `yaml:"exact_search_limit" validate:"min=0,max=10"`

	// SearchBudget bounds how many complete assignments the exhaustive
	// strategy may score.
	SearchBudget int `yaml:"search_budget" validate:"min=1,max=10000000"`

	// QualityBands are the inclusive max-difference bounds for the
	// ideal/good/warning classifications.
	QualityBands domain.QualityBands `yaml:"quality_bands" validate:"required"`

	// EnableRedistribution turns on the advisory swap-suggestion hook.
	// Off by default.
	EnableRedistribution bool `yaml:"enable_redistribution"`
}

// DefaultConfig returns the production defaults: 5v5 teams, the
// immortal_2 elite threshold, single-elite teams, and the stock
// 50/100/150 quality bands.
func DefaultConfig() Config {
	return Config{
		TeamCount:              2,
		TeamSize:               5,
		EliteThreshold:         400,
		MaxElitePerTeam:        1,
		TournamentWinBonus:     15,
		RankDecayThresholdDays: 90,
		MaxDecayPercent:        0.30,
		HighValueRatio:         0.85,
		ExactSearchLimit:       6,
		SearchBudget:           50_000,
		QualityBands:           domain.DefaultQualityBands(),
	}
}

// Capacity returns the total number of seats, TeamCount x TeamSize.
func (c Config) Capacity() int { return c.TeamCount * c.TeamSize }

// Validate checks struct constraints plus the semantic rules the tags
// cannot express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	b := c.QualityBands
	if b.IdealMax >= b.GoodMax || b.GoodMax >= b.WarningMax {
		return fmt.Errorf("%w: quality bands must be strictly increasing", domain.ErrInvalidConfiguration)
	}
	if c.MaxElitePerTeam > c.TeamSize {
		return fmt.Errorf("%w: max_elite_per_team exceeds team_size", domain.ErrInvalidConfiguration)
	}
	return nil
}
