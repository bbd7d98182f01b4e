package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

type certificateRepository struct {
	db *sql.DB
}

// NewCertificateRepository creates a new CertificateRepository implementation
func NewCertificateRepository(db *sql.DB) repository.CertificateRepository {
	return &certificateRepository{db: db}
}

const certificateColumns = `id, user_email, kind, section_id, COALESCE(certificate_number, ''), accuracy, eligible, awarded_at, download_count, last_downloaded_at, updated_at`

func scanCertificate(row interface{ Scan(...any) error }, c *models.CertificateRecord) error {
	var awarded, downloaded sql.NullTime
	if err := row.Scan(&c.ID, &c.UserEmail, &c.Kind, &c.SectionID, &c.CertificateNumber, &c.Accuracy, &c.Eligible,
		&awarded, &c.DownloadCount, &downloaded, &c.UpdatedAt); err != nil {
		return err
	}
	c.AwardedAt = timePtr(awarded)
	c.LastDownloadedAt = timePtr(downloaded)
	return nil
}

// Upsert writes eligibility and accuracy. A certificate number and award time,
// once assigned, are never replaced; download counters are left alone.
func (r *certificateRepository) Upsert(ctx context.Context, c models.CertificateRecord) (*models.CertificateRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("certificate_repo")
	log.Debug("upserting certificate: email=%s, kind=%s, section=%d, eligible=%t", c.UserEmail, c.Kind, c.SectionID, c.Eligible)

	var number sql.NullString
	if c.CertificateNumber != "" {
		number = sql.NullString{String: c.CertificateNumber, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO certificates (user_email, kind, section_id, certificate_number, accuracy, eligible, awarded_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_email, kind, section_id) DO UPDATE SET
    accuracy = excluded.accuracy,
    eligible = excluded.eligible,
    certificate_number = COALESCE(certificates.certificate_number, excluded.certificate_number),
    awarded_at = COALESCE(certificates.awarded_at, excluded.awarded_at),
    updated_at = excluded.updated_at
`, c.UserEmail, c.Kind, c.SectionID, number, c.Accuracy, c.Eligible, nullTime(c.AwardedAt), time.Now().UTC())
	if err != nil {
		log.Error("failed to upsert certificate: %v", err)
		return nil, err
	}
	return r.Get(ctx, c.UserEmail, c.Kind, c.SectionID)
}

func (r *certificateRepository) Get(ctx context.Context, email, kind string, sectionID int) (*models.CertificateRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("certificate_repo")

	var c models.CertificateRecord
	err := scanCertificate(r.db.QueryRowContext(ctx, `
SELECT `+certificateColumns+`
FROM certificates
WHERE user_email = ? AND kind = ? AND section_id = ?
`, email, kind, sectionID), &c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get certificate: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *certificateRepository) ListForUser(ctx context.Context, email string) ([]models.CertificateRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("certificate_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT `+certificateColumns+`
FROM certificates
WHERE user_email = ?
ORDER BY CASE kind WHEN 'master' THEN 1 ELSE 0 END, section_id ASC
`, email)
	if err != nil {
		log.Error("failed to list certificates: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.CertificateRecord
	for rows.Next() {
		var c models.CertificateRecord
		if err := scanCertificate(rows, &c); err != nil {
			log.Error("failed to scan certificate row: %v", err)
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *certificateRepository) RecordDownload(ctx context.Context, id int64, at time.Time) (*models.CertificateRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("certificate_repo")
	log.Debug("recording certificate download: id=%d", id)

	res, err := r.db.ExecContext(ctx, `
UPDATE certificates
SET download_count = download_count + 1, last_downloaded_at = ?
WHERE id = ?
`, at.UTC(), id)
	if err != nil {
		log.Error("failed to record download: %v", err)
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}

	var c models.CertificateRecord
	err = scanCertificate(r.db.QueryRowContext(ctx, `SELECT `+certificateColumns+` FROM certificates WHERE id = ?`, id), &c)
	if err != nil {
		log.Error("failed to reload certificate: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *certificateRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "certificates")
}
