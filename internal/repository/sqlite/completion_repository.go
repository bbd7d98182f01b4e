package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

type completionRepository struct {
	db *sql.DB
}

// NewCompletionRepository creates a new CompletionRepository implementation
func NewCompletionRepository(db *sql.DB) repository.CompletionRepository {
	return &completionRepository{db: db}
}

const completionColumns = `id, user_email, section_id, questions_answered, questions_correct, score, accuracy, time_spent_seconds, completed_at`

func scanCompletion(row interface{ Scan(...any) error }, c *models.SectionCompletion) error {
	return row.Scan(&c.ID, &c.UserEmail, &c.SectionID, &c.QuestionsAnswered, &c.QuestionsCorrect,
		&c.Score, &c.Accuracy, &c.TimeSpentSeconds, &c.CompletedAt)
}

func (r *completionRepository) Upsert(ctx context.Context, c models.SectionCompletion) (*models.SectionCompletion, error) {
	log := logger.FromContext(ctx).WithPrefix("completion_repo")
	log.Debug("upserting completion: email=%s, section=%d, accuracy=%d", c.UserEmail, c.SectionID, c.Accuracy)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO section_completions (user_email, section_id, questions_answered, questions_correct, score, accuracy, time_spent_seconds, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_email, section_id) DO UPDATE SET
    questions_answered = excluded.questions_answered,
    questions_correct = excluded.questions_correct,
    score = excluded.score,
    accuracy = excluded.accuracy,
    time_spent_seconds = excluded.time_spent_seconds,
    completed_at = excluded.completed_at
`, c.UserEmail, c.SectionID, c.QuestionsAnswered, c.QuestionsCorrect, c.Score, c.Accuracy, c.TimeSpentSeconds, c.CompletedAt.UTC())
	if err != nil {
		log.Error("failed to upsert completion: %v", err)
		return nil, err
	}
	return r.Get(ctx, c.UserEmail, c.SectionID)
}

func (r *completionRepository) Get(ctx context.Context, email string, sectionID int) (*models.SectionCompletion, error) {
	log := logger.FromContext(ctx).WithPrefix("completion_repo")

	var c models.SectionCompletion
	err := scanCompletion(r.db.QueryRowContext(ctx, `
SELECT `+completionColumns+`
FROM section_completions
WHERE user_email = ? AND section_id = ?
`, email, sectionID), &c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get completion: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *completionRepository) ListForUser(ctx context.Context, email string) ([]models.SectionCompletion, error) {
	log := logger.FromContext(ctx).WithPrefix("completion_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT `+completionColumns+`
FROM section_completions
WHERE user_email = ?
ORDER BY section_id ASC
`, email)
	if err != nil {
		log.Error("failed to list completions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.SectionCompletion
	for rows.Next() {
		var c models.SectionCompletion
		if err := scanCompletion(rows, &c); err != nil {
			log.Error("failed to scan completion row: %v", err)
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *completionRepository) ListScores(ctx context.Context, filter models.CompletionFilter) ([]models.UserScoreRow, error) {
	log := logger.FromContext(ctx).WithPrefix("completion_repo")
	log.Debug("listing scores: email=%s, section=%d, min_accuracy=%d", filter.UserEmail, filter.SectionID, filter.MinAccuracy)

	query := sqlBuilder.Select(
		"u.name", "c.id", "c.user_email", "c.section_id", "c.questions_answered", "c.questions_correct",
		"c.score", "c.accuracy", "c.time_spent_seconds", "c.completed_at",
	).From("section_completions c").Join("users u ON u.email = c.user_email")

	if filter.UserEmail != "" {
		query = query.Where(squirrel.Eq{"c.user_email": filter.UserEmail})
	}
	if filter.SectionID != 0 {
		query = query.Where(squirrel.Eq{"c.section_id": filter.SectionID})
	}
	if filter.MinAccuracy > 0 {
		query = query.Where(squirrel.GtOrEq{"c.accuracy": filter.MinAccuracy})
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset, 200)
	query = query.OrderBy("c.accuracy DESC", "c.completed_at DESC").Limit(limit).Offset(offset)

	stmt, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to list scores: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.UserScoreRow
	for rows.Next() {
		var row models.UserScoreRow
		c := &row.SectionCompletion
		if err := rows.Scan(&row.UserName, &c.ID, &c.UserEmail, &c.SectionID, &c.QuestionsAnswered, &c.QuestionsCorrect,
			&c.Score, &c.Accuracy, &c.TimeSpentSeconds, &c.CompletedAt); err != nil {
			log.Error("failed to scan score row: %v", err)
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *completionRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "section_completions")
}
