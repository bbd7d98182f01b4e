package repository

import (
	"context"

	"github.com/vytor/learncert/internal/models"
)

// ResponseRepository handles the append-only question response log
type ResponseRepository interface {
	Insert(ctx context.Context, r models.QuestionResponse) error
	List(ctx context.Context, filter models.ResponseFilter) ([]models.QuestionResponse, error)
	Count(ctx context.Context) (int, error)
}
