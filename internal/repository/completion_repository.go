package repository

import (
	"context"

	"github.com/vytor/learncert/internal/models"
)

// CompletionRepository handles section completion summaries
type CompletionRepository interface {
	Upsert(ctx context.Context, c models.SectionCompletion) (*models.SectionCompletion, error)
	Get(ctx context.Context, email string, sectionID int) (*models.SectionCompletion, error)
	ListForUser(ctx context.Context, email string) ([]models.SectionCompletion, error)
	ListScores(ctx context.Context, filter models.CompletionFilter) ([]models.UserScoreRow, error)
	Count(ctx context.Context) (int, error)
}
