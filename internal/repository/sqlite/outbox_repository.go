package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

type outboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new OutboxRepository implementation
func NewOutboxRepository(db *sql.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

const outboxColumns = `seq, id, kind, email, key, payload, status, attempts, last_error, created_at, claimed_at, synced_at`

var unsyncedStatuses = []string{models.SyncStatusPending, models.SyncStatusInFlight, models.SyncStatusFailed}

func scanOutbox(row interface{ Scan(...any) error }, e *models.OutboxEntry) error {
	var claimed, synced sql.NullTime
	if err := row.Scan(&e.Seq, &e.ID, &e.Kind, &e.Email, &e.Key, &e.Payload, &e.Status, &e.Attempts, &e.LastError, &e.CreatedAt, &claimed, &synced); err != nil {
		return err
	}
	e.ClaimedAt = timePtr(claimed)
	e.SyncedAt = timePtr(synced)
	return nil
}

func (r *outboxRepository) Append(ctx context.Context, e models.OutboxEntry) error {
	log := logger.FromContext(ctx).WithPrefix("outbox_repo")
	log.Debug("appending outbox entry: id=%s, kind=%s, key=%s", e.ID, e.Kind, e.Key)

	if e.Status == "" {
		e.Status = models.SyncStatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sync_outbox (id, kind, email, key, payload, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, e.ID, e.Kind, e.Email, e.Key, e.Payload, e.Status, e.CreatedAt.UTC())
	if err != nil {
		log.Error("failed to append outbox entry: %v", err)
	}
	return err
}

func (r *outboxRepository) Get(ctx context.Context, id string) (*models.OutboxEntry, error) {
	var e models.OutboxEntry
	err := scanOutbox(r.db.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM sync_outbox WHERE id = ?`, id), &e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("outbox_repo").Error("failed to get outbox entry: %v", err)
		return nil, err
	}
	return &e, nil
}

func (r *outboxRepository) Claim(ctx context.Context, id string, staleBefore time.Time) (*models.OutboxEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("outbox_repo")

	stmt, args, err := sqlBuilder.Update("sync_outbox").
		Set("status", models.SyncStatusInFlight).
		Set("claimed_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Or{
			squirrel.Eq{"status": []string{models.SyncStatusPending, models.SyncStatusFailed}},
			squirrel.And{
				squirrel.Eq{"status": models.SyncStatusInFlight},
				squirrel.Lt{"claimed_at": staleBefore.UTC()},
			},
		}).
		ToSql()
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to claim outbox entry: %v", err)
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		log.Debug("outbox entry not claimable: id=%s", id)
		return nil, nil
	}
	return r.Get(ctx, id)
}

func (r *outboxRepository) Release(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE sync_outbox
SET status = ?, claimed_at = NULL
WHERE id = ? AND status = ?
`, models.SyncStatusPending, id, models.SyncStatusInFlight)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("outbox_repo").Error("failed to release outbox entry: %v", err)
	}
	return err
}

func (r *outboxRepository) MarkOK(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE sync_outbox
SET status = ?, attempts = attempts + 1, last_error = '', claimed_at = NULL, synced_at = ?
WHERE id = ?
`, models.SyncStatusOK, at.UTC(), id)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("outbox_repo").Error("failed to mark outbox entry ok: %v", err)
	}
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, lastErr string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE sync_outbox
SET status = ?, attempts = attempts + 1, last_error = ?, claimed_at = NULL
WHERE id = ?
`, models.SyncStatusFailed, lastErr, id)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("outbox_repo").Error("failed to mark outbox entry failed: %v", err)
	}
	return err
}

// Supersede leaves in_flight entries alone; their worker finishes them.
func (r *outboxRepository) Supersede(ctx context.Context, newerID string, m models.OutboxMatch) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("outbox_repo")

	q := sqlBuilder.Update("sync_outbox").
		Set("status", models.SyncStatusSuperseded).
		Set("claimed_at", nil).
		Where(squirrel.Eq{"status": []string{models.SyncStatusPending, models.SyncStatusFailed}}).
		Where("seq < (SELECT seq FROM sync_outbox WHERE id = ?)", newerID)
	if m.Email != "" {
		q = q.Where(squirrel.Eq{"email": m.Email})
	}
	if m.Key != "" {
		q = q.Where(squirrel.Eq{"key": m.Key})
	}
	if len(m.Kinds) > 0 {
		q = q.Where(squirrel.Eq{"kind": m.Kinds})
	}
	stmt, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to supersede outbox entries: %v", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debug("superseded %d outbox entries before %s", n, newerID)
	}
	return int(n), nil
}

func (r *outboxRepository) HasOlderUnsynced(ctx context.Context, e models.OutboxEntry) (bool, error) {
	if e.Email == "" {
		return false, nil
	}
	stmt, args, err := sqlBuilder.Select("COUNT(*)").
		From("sync_outbox").
		Where(squirrel.Eq{"email": e.Email, "status": unsyncedStatuses}).
		Where(squirrel.Lt{"seq": e.Seq}).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).WithPrefix("outbox_repo").Error("failed to check older entries: %v", err)
		return false, err
	}
	return n > 0, nil
}

func (r *outboxRepository) Unsynced(ctx context.Context, cutoff time.Time, limit int) ([]models.OutboxEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("outbox_repo")

	cutoff = cutoff.UTC()
	lim, _ := pageBounds(limit, 0, 500)
	stmt, args, err := sqlBuilder.Select(outboxColumns).
		From("sync_outbox").
		Where(squirrel.Or{
			squirrel.Eq{"status": models.SyncStatusFailed},
			squirrel.And{squirrel.Eq{"status": models.SyncStatusPending}, squirrel.Lt{"created_at": cutoff}},
			squirrel.And{squirrel.Eq{"status": models.SyncStatusInFlight}, squirrel.Lt{"claimed_at": cutoff}},
		}).
		OrderBy("seq ASC").
		Limit(lim).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to list unsynced entries: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.OutboxEntry
	for rows.Next() {
		var e models.OutboxEntry
		if err := scanOutbox(rows, &e); err != nil {
			log.Error("failed to scan outbox row: %v", err)
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *outboxRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	stmt, args, err := sqlBuilder.Select("COUNT(*)").From("sync_outbox").Where(squirrel.Eq{"status": status}).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRowContext(ctx, stmt, args...).Scan(&n)
	return n, err
}
