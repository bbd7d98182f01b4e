package repository

import (
	"context"

	"github.com/vytor/learncert/internal/models"
)

// MirrorRepository is the remote copy of local writes. Implementations must be idempotent:
// the same call may be replayed from the outbox.
type MirrorRepository interface {
	UpsertUser(ctx context.Context, u models.User) error
	DeleteUser(ctx context.Context, email string) error
	ClearProgress(ctx context.Context, email string) error
	InsertResponse(ctx context.Context, r models.QuestionResponse) error
	UpsertCompletion(ctx context.Context, c models.SectionCompletion) error
	UpsertCertificate(ctx context.Context, c models.CertificateRecord) error
	InsertReview(ctx context.Context, r models.Review) error
	UpsertCatalog(ctx context.Context, snapshot models.CatalogSnapshot) error
	Ping(ctx context.Context) error
	Close()
}
