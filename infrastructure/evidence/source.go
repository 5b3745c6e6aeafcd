package evidence

import (
	"context"
	"sort"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.EvidenceSource = (*StaticSource)(nil)

// StaticSource is an in-memory EvidenceSource backed by a fixed set of
// records keyed by external handle. It serves imported stat dumps and
// tests. Lookups try the competitor ID, then the display name, then a
// fuzzy handle match.
type StaticSource struct {
	records map[string]ports.Evidence
	handles []string
	matcher *HandleMatcher
}

// StaticSourceOption customizes a StaticSource.
type StaticSourceOption func(*StaticSource)

// WithMatchThreshold overrides the fuzzy handle-match threshold.
func WithMatchThreshold(threshold float64) StaticSourceOption {
	return func(s *StaticSource) { s.matcher = NewHandleMatcher(threshold) }
}

// NewStaticSource creates a source over the given records. The record
// map is copied; later mutation of the argument does not affect the
// source.
func NewStaticSource(records map[string]ports.Evidence, opts ...StaticSourceOption) *StaticSource {
	s := &StaticSource{
		records: make(map[string]ports.Evidence, len(records)),
		matcher: NewHandleMatcher(defaultMatchThreshold),
	}
	for k, v := range records {
		s.records[k] = v
		s.handles = append(s.handles, k)
	}
	// Deterministic fuzzy matching regardless of map iteration order.
	sort.Strings(s.handles)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchEvidence implements ports.EvidenceSource. Unknown competitors
// get ErrNoEvidence wrapped in an EvidenceError.
func (s *StaticSource) FetchEvidence(ctx context.Context, competitor domain.Competitor) (ports.Evidence, error) {
	select {
	case <-ctx.Done():
		return ports.Evidence{}, ctx.Err()
	default:
	}

	if ev, ok := s.records[competitor.ID]; ok {
		return ev, nil
	}
	if ev, ok := s.records[competitor.Name]; ok {
		return ev, nil
	}
	if handle, _, ok := s.matcher.BestMatch(competitor.Name, s.handles); ok {
		return s.records[handle], nil
	}
	return ports.Evidence{}, ports.NewEvidenceError(competitor.ID, "fetch_evidence", ports.ErrNoEvidence)
}
