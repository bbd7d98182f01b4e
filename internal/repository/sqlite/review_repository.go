package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository implementation
func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Insert(ctx context.Context, rv models.Review) (*models.Review, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("inserting review: email=%s, rating=%d", rv.UserEmail, rv.Rating)

	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now()
	}
	rv.CreatedAt = rv.CreatedAt.UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO reviews (user_email, rating, comment, created_at)
VALUES (?, ?, ?, ?)
`, rv.UserEmail, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		log.Error("failed to insert review: %v", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get review id: %v", err)
		return nil, err
	}
	rv.ID = id
	return &rv, nil
}

func (r *reviewRepository) list(ctx context.Context, query sqlQuery) ([]models.Review, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	stmt, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.UserEmail, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			log.Error("failed to scan review row: %v", err)
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func reviewSelect() sqlSelect {
	return sqlBuilder.Select("r.id", "r.user_email", "u.name", "r.rating", "r.comment", "r.created_at").
		From("reviews r").
		Join("users u ON u.email = r.user_email")
}

func (r *reviewRepository) List(ctx context.Context, limit, offset int) ([]models.Review, error) {
	lim, off := pageBounds(limit, offset, 50)
	return r.list(ctx, reviewSelect().OrderBy("r.created_at DESC", "r.id DESC").Limit(lim).Offset(off))
}

func (r *reviewRepository) ListForUser(ctx context.Context, email string) ([]models.Review, error) {
	return r.list(ctx, reviewSelect().Where("r.user_email = ?", email).OrderBy("r.created_at DESC", "r.id DESC"))
}

func (r *reviewRepository) Stats(ctx context.Context) (*models.ReviewStats, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM reviews GROUP BY rating`)
	if err != nil {
		log.Error("failed to query review stats: %v", err)
		return nil, err
	}
	defer rows.Close()

	stats := &models.ReviewStats{Histogram: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			log.Error("failed to scan review stats row: %v", err)
			return nil, err
		}
		stats.Histogram[rating] = n
		stats.Count += n
		sum += rating * n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if stats.Count > 0 {
		stats.AverageRating = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

func (r *reviewRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "reviews")
}
