// Package ports defines the interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the engine
// testable without real collaborators.
package ports

import (
	"context"
	"time"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
)

// Stage is one phase of the formation pipeline. Each Stage performs a
// specific transformation on the run State; the engine executes stages
// strictly in order, feeding each stage's output to the next.
// Stages should be stateless apart from their configuration and safe
// for concurrent runs.
type Stage interface {
	// Name returns a unique identifier for this stage, used in traces
	// and error messages.
	Name() string

	// Execute performs the stage's transformation on the provided
	// State and returns a new State containing the results. The input
	// State must not be modified. Stages should poll ctx at least once
	// per competitor processed and return promptly on cancellation.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks that the stage is properly configured and ready
	// for execution. It is called during engine construction.
	Validate() error
}

// ProgressReporter receives every decision step as soon as it is made.
// Implementations must be synchronous and side-effect free from the
// engine's perspective; the engine fires and forgets.
type ProgressReporter interface {
	// Report delivers the latest decision step.
	Report(step domain.DecisionStep)
}

// ProgressFunc adapts a plain function to the ProgressReporter
// interface.
type ProgressFunc func(step domain.DecisionStep)

// Report implements ProgressReporter.
func (f ProgressFunc) Report(step domain.DecisionStep) { f(step) }

// Evidence is a skill-history record fetched from an external source,
// used to refresh a roster snapshot before weight resolution.
type Evidence struct {
	// PeakTier is the highest tier on record externally.
	PeakTier domain.Tier

	// PeakAt is when the peak was achieved, nil when unknown.
	PeakAt *time.Time

	// TournamentWins is the externally recorded win count.
	TournamentWins int

	// LastWinAt is the most recent recorded win, nil when unknown.
	LastWinAt *time.Time
}

// EvidenceSource looks up historical skill evidence for a competitor.
// Lookups may be slow or fail; the weight resolver degrades to the
// roster snapshot on error rather than aborting the run.
type EvidenceSource interface {
	// FetchEvidence returns the evidence on record for the competitor.
	// Implementations should honor ctx for cancellation and return
	// ErrNoEvidence when the competitor is simply unknown.
	FetchEvidence(ctx context.Context, competitor domain.Competitor) (Evidence, error)
}

// MetricsCollector abstracts metrics reporting so the engine does not
// depend on a specific monitoring system. Implementations should
// integrate with observability platforms like Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// RosterSource fetches the checked-in roster snapshot for a
// tournament. Filtering by check-in status is the source's
// responsibility; the engine never sees unchecked participants.
type RosterSource interface {
	FetchCheckedIn(ctx context.Context, tournamentID string) ([]domain.Competitor, error)
}

// TeamStore persists the teams produced by a run. The engine never
// calls it; callers hand RunResult.Teams to a store after a successful
// run, seeding captains first.
type TeamStore interface {
	SaveTeams(ctx context.Context, tournamentID string, teams []domain.Team) error
}

// Notifier delivers final team membership for outbound messaging.
// Like TeamStore, it is consumed by callers, not by the engine.
type Notifier interface {
	NotifyTeams(ctx context.Context, tournamentID string, teams []domain.Team) error
}
