package repository

import (
	"context"
	"time"

	"github.com/vytor/learncert/internal/models"
)

// CertificateRepository handles certificate award records
type CertificateRepository interface {
	Upsert(ctx context.Context, c models.CertificateRecord) (*models.CertificateRecord, error)
	Get(ctx context.Context, email, kind string, sectionID int) (*models.CertificateRecord, error)
	ListForUser(ctx context.Context, email string) ([]models.CertificateRecord, error)
	RecordDownload(ctx context.Context, id int64, at time.Time) (*models.CertificateRecord, error)
	Count(ctx context.Context) (int, error)
}
