package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

type responseRepository struct {
	db *sql.DB
}

// NewResponseRepository creates a new ResponseRepository implementation
func NewResponseRepository(db *sql.DB) repository.ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Insert(ctx context.Context, resp models.QuestionResponse) error {
	log := logger.FromContext(ctx).WithPrefix("response_repo")
	log.Debug("inserting response: email=%s, section=%d, question=%d", resp.UserEmail, resp.SectionID, resp.QuestionID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO question_responses (id, user_email, section_id, question_id, answer, is_correct, points_earned, response_time_ms, responded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, resp.ID, resp.UserEmail, resp.SectionID, resp.QuestionID, resp.Answer, resp.IsCorrect, resp.PointsEarned, resp.ResponseTimeMs, resp.RespondedAt.UTC())
	if err != nil {
		log.Error("failed to insert response: %v", err)
	}
	return err
}

func (r *responseRepository) List(ctx context.Context, filter models.ResponseFilter) ([]models.QuestionResponse, error) {
	log := logger.FromContext(ctx).WithPrefix("response_repo")
	log.Debug("listing responses: email=%s, section=%d", filter.UserEmail, filter.SectionID)

	query := sqlBuilder.Select(
		"id", "user_email", "section_id", "question_id", "answer", "is_correct",
		"points_earned", "response_time_ms", "responded_at",
	).From("question_responses")

	if filter.UserEmail != "" {
		query = query.Where(squirrel.Eq{"user_email": filter.UserEmail})
	}
	if filter.SectionID != 0 {
		query = query.Where(squirrel.Eq{"section_id": filter.SectionID})
	}
	query = query.OrderBy("responded_at ASC", "question_id ASC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to list responses: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.QuestionResponse
	for rows.Next() {
		var q models.QuestionResponse
		if err := rows.Scan(&q.ID, &q.UserEmail, &q.SectionID, &q.QuestionID, &q.Answer, &q.IsCorrect,
			&q.PointsEarned, &q.ResponseTimeMs, &q.RespondedAt); err != nil {
			log.Error("failed to scan response row: %v", err)
			return nil, err
		}
		out = append(out, q)
	}
	log.Debug("found %d responses", len(out))
	return out, rows.Err()
}

func (r *responseRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "question_responses")
}
