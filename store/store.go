// Package store persists triage decisions and serves the accepted-record
// snapshots the duplicate detector scans. Records are append-only: nothing
// is ever edited or deleted.
package store

import (
	"context"

	"report-triage-pipeline/models"
)

// Store is the persistence collaborator consumed by the pipeline and the
// duplicate detector.
type Store interface {
	// SaveDecision appends one decided submission. The append must be
	// atomic at record granularity and durable before returning.
	SaveDecision(ctx context.Context, rec *models.DecisionRecord) error

	// LoadAccepted returns a snapshot of all durable accepted records in
	// insertion order. Concurrent appends during a scan may be missed;
	// that staleness is acceptable.
	LoadAccepted(ctx context.Context) ([]models.DecisionRecord, error)

	// LoadRecent returns up to limit of the most recently decided
	// submissions, newest first, accepted and rejected alike.
	LoadRecent(ctx context.Context, limit int) ([]models.DecisionRecord, error)

	// Stats summarizes all decided submissions.
	Stats(ctx context.Context) (*models.DecisionStats, error)

	Close() error
}
