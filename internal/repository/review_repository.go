package repository

import (
	"context"

	"github.com/vytor/learncert/internal/models"
)

// ReviewRepository handles course reviews
type ReviewRepository interface {
	Insert(ctx context.Context, r models.Review) (*models.Review, error)
	List(ctx context.Context, limit, offset int) ([]models.Review, error)
	ListForUser(ctx context.Context, email string) ([]models.Review, error)
	Stats(ctx context.Context) (*models.ReviewStats, error)
	Count(ctx context.Context) (int, error)
}
