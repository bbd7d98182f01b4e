package repository

import (
	"context"

	"github.com/vytor/learncert/internal/models"
)

// UserRepository handles user data access. Users are keyed by lower-cased email.
type UserRepository interface {
	Upsert(ctx context.Context, name, email string) (*models.User, error)
	Get(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, email string) error
	ClearProgress(ctx context.Context, email string) error
}
