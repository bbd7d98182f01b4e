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

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, name, email string) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("upserting user: email=%s", email)

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (email, name, created_at, last_login_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(email) DO UPDATE SET name = excluded.name, last_login_at = excluded.last_login_at
`, email, name, now, now)
	if err != nil {
		log.Error("failed to upsert user: %v", err)
		return nil, err
	}
	return r.Get(ctx, email)
}

func (r *userRepository) Get(ctx context.Context, email string) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")

	var u models.User
	err := r.db.QueryRowContext(ctx, `
SELECT email, name, created_at, last_login_at
FROM users
WHERE email = ?
`, email).Scan(&u.Email, &u.Name, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("user not found: email=%s", email)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get user: %v", err)
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT email, name, created_at, last_login_at
FROM users
ORDER BY created_at ASC, email ASC
`)
	if err != nil {
		log.Error("failed to list users: %v", err)
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Email, &u.Name, &u.CreatedAt, &u.LastLoginAt); err != nil {
			log.Error("failed to scan user row: %v", err)
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "users")
}

func (r *userRepository) Delete(ctx context.Context, email string) error {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("deleting user and related data: email=%s", email)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearProgress(ctx, tx, email); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE user_email = ?`, email); err != nil {
			log.Error("failed to delete reviews for %s: %v", email, err)
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email); err != nil {
			log.Error("failed to delete user %s: %v", email, err)
			return err
		}
		return nil
	})
}

func (r *userRepository) ClearProgress(ctx context.Context, email string) error {
	logger.FromContext(ctx).WithPrefix("user_repo").Debug("clearing progress: email=%s", email)
	return tx(ctx, r.db, func(tx *sql.Tx) error {
		return clearProgress(ctx, tx, email)
	})
}

func clearProgress(ctx context.Context, tx *sql.Tx, email string) error {
	for _, table := range []string{"certificates", "section_completions", "question_responses"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_email = ?`, email); err != nil {
			logger.FromContext(ctx).WithPrefix("user_repo").Error("failed to clear %s for %s: %v", table, email, err)
			return err
		}
	}
	return nil
}
