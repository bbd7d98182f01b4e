package repository

import (
	"context"
	"time"

	"github.com/vytor/learncert/internal/models"
)

// OutboxRepository records mirror operations so failed remote writes can be replayed
type OutboxRepository interface {
	Append(ctx context.Context, e models.OutboxEntry) error
	Get(ctx context.Context, id string) (*models.OutboxEntry, error)
	// Claim moves a pending or failed entry to in_flight and returns it. An in_flight
	// entry claimed before staleBefore is reclaimed. Nil means it is not claimable.
	Claim(ctx context.Context, id string, staleBefore time.Time) (*models.OutboxEntry, error)
	// Release returns an in_flight entry to pending without counting an attempt.
	Release(ctx context.Context, id string) error
	MarkOK(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, lastErr string) error
	// Supersede marks unsynced entries appended before newerID that match m as superseded.
	Supersede(ctx context.Context, newerID string, m models.OutboxMatch) (int, error)
	// HasOlderUnsynced reports whether an entry for the same email precedes e and is not yet synced.
	HasOlderUnsynced(ctx context.Context, e models.OutboxEntry) (bool, error)
	// Unsynced lists replayable entries in seq order: every failed entry, pending entries
	// created before cutoff and in_flight entries claimed before cutoff.
	Unsynced(ctx context.Context, cutoff time.Time, limit int) ([]models.OutboxEntry, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}
