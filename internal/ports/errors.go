package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors for external evidence lookups.
var (
	// ErrNoEvidence indicates the source has no record for the
	// competitor. Not retryable; the resolver proceeds with the roster
	// snapshot without tagging the trace as degraded.
	ErrNoEvidence = errors.New("no evidence on record")

	// ErrSourceUnavailable indicates the evidence source is down or
	// unreachable. Retryable.
	ErrSourceUnavailable = errors.New("evidence source unavailable")

	// ErrLookupTimeout indicates an evidence lookup timed out.
	// Retryable.
	ErrLookupTimeout = errors.New("evidence lookup timed out")
)

// EvidenceError reports a failed evidence lookup with the competitor
// and operation involved.
type EvidenceError struct {
	// CompetitorID identifies whose lookup failed.
	CompetitorID string

	// Operation names the lookup operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for EvidenceError.
func (e *EvidenceError) Error() string {
	return fmt.Sprintf("evidence error: operation=%s, competitor=%s, err=%v",
		e.Operation, e.CompetitorID, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvidenceError) Unwrap() error { return e.Err }

// IsRetryable reports whether the lookup may succeed on retry.
// Only availability and timeout failures are retryable; a missing
// record is not.
func (e *EvidenceError) IsRetryable() bool {
	return errors.Is(e.Err, ErrSourceUnavailable) || errors.Is(e.Err, ErrLookupTimeout)
}

// NewEvidenceError creates an EvidenceError with the given details.
func NewEvidenceError(competitorID, operation string, err error) *EvidenceError {
	return &EvidenceError{CompetitorID: competitorID, Operation: operation, Err: err}
}
