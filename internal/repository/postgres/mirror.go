package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type Mirror struct {
	pool *pgxpool.Pool
}

// Open connects to the remote database and ensures the mirror schema exists.
func Open(ctx context.Context, dsn string) (*Mirror, error) {
	log := logger.FromContext(ctx).WithPrefix("pg_mirror")

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect mirror: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping mirror: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure mirror schema: %w", err)
	}

	log.Info("remote mirror connected")
	return &Mirror{pool: pool}, nil
}

var _ repository.MirrorRepository = (*Mirror)(nil)

func (m *Mirror) Ping(ctx context.Context) error {
	return m.pool.Ping(ctx)
}

func (m *Mirror) Close() {
	m.pool.Close()
}

func (m *Mirror) exec(ctx context.Context, q squirrel.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	_, err = m.pool.Exec(ctx, query, args...)
	return err
}

func (m *Mirror) UpsertUser(ctx context.Context, u models.User) error {
	logger.FromContext(ctx).WithPrefix("pg_mirror").Debug("upserting user: email=%s", u.Email)
	return m.exec(ctx, psql.Insert("users").
		Columns("email", "name", "created_at", "last_login_at").
		Values(u.Email, u.Name, u.CreatedAt, u.LastLoginAt).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, last_login_at = EXCLUDED.last_login_at"))
}

func (m *Mirror) DeleteUser(ctx context.Context, email string) error {
	logger.FromContext(ctx).WithPrefix("pg_mirror").Debug("deleting user: email=%s", email)
	return pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		for _, table := range []string{"certificates", "user_section_progress", "user_question_responses", "reviews", "users"} {
			col := "user_email"
			if table == "users" {
				col = "email"
			}
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE "+col+" = $1", email); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		return nil
	})
}

func (m *Mirror) ClearProgress(ctx context.Context, email string) error {
	logger.FromContext(ctx).WithPrefix("pg_mirror").Debug("clearing progress: email=%s", email)
	return pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		for _, table := range []string{"certificates", "user_section_progress", "user_question_responses"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE user_email = $1", email); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		return nil
	})
}

func (m *Mirror) InsertResponse(ctx context.Context, r models.QuestionResponse) error {
	return m.exec(ctx, psql.Insert("user_question_responses").
		Columns("id", "user_email", "section_id", "question_id", "answer", "is_correct", "points_earned", "response_time_ms", "responded_at").
		Values(r.ID, r.UserEmail, r.SectionID, r.QuestionID, r.Answer, r.IsCorrect, r.PointsEarned, r.ResponseTimeMs, r.RespondedAt).
		Suffix("ON CONFLICT (id) DO NOTHING"))
}

func (m *Mirror) UpsertCompletion(ctx context.Context, c models.SectionCompletion) error {
	return m.exec(ctx, psql.Insert("user_section_progress").
		Columns("user_email", "section_id", "questions_answered", "questions_correct", "score", "accuracy", "time_spent_seconds", "completed_at").
		Values(c.UserEmail, c.SectionID, c.QuestionsAnswered, c.QuestionsCorrect, c.Score, c.Accuracy, c.TimeSpentSeconds, c.CompletedAt).
		Suffix(`ON CONFLICT (user_email, section_id) DO UPDATE SET
			questions_answered = EXCLUDED.questions_answered,
			questions_correct = EXCLUDED.questions_correct,
			score = EXCLUDED.score,
			accuracy = EXCLUDED.accuracy,
			time_spent_seconds = EXCLUDED.time_spent_seconds,
			completed_at = EXCLUDED.completed_at`))
}

func (m *Mirror) UpsertCertificate(ctx context.Context, c models.CertificateRecord) error {
	var number *string
	if c.CertificateNumber != "" {
		number = &c.CertificateNumber
	}
	return m.exec(ctx, psql.Insert("certificates").
		Columns("user_email", "kind", "section_id", "certificate_number", "accuracy", "eligible", "awarded_at", "download_count", "last_downloaded_at", "updated_at").
		Values(c.UserEmail, c.Kind, c.SectionID, number, c.Accuracy, c.Eligible, c.AwardedAt, c.DownloadCount, c.LastDownloadedAt, c.UpdatedAt).
		Suffix(`ON CONFLICT (user_email, kind, section_id) DO UPDATE SET
			certificate_number = COALESCE(certificates.certificate_number, EXCLUDED.certificate_number),
			accuracy = EXCLUDED.accuracy,
			eligible = EXCLUDED.eligible,
			awarded_at = COALESCE(certificates.awarded_at, EXCLUDED.awarded_at),
			download_count = GREATEST(certificates.download_count, EXCLUDED.download_count),
			last_downloaded_at = EXCLUDED.last_downloaded_at,
			updated_at = EXCLUDED.updated_at`))
}

func (m *Mirror) InsertReview(ctx context.Context, r models.Review) error {
	return m.exec(ctx, psql.Insert("reviews").
		Columns("id", "user_email", "rating", "comment", "created_at").
		Values(r.ID, r.UserEmail, r.Rating, r.Comment, r.CreatedAt).
		Suffix("ON CONFLICT (id) DO NOTHING"))
}

func (m *Mirror) UpsertCatalog(ctx context.Context, snapshot models.CatalogSnapshot) error {
	log := logger.FromContext(ctx).WithPrefix("pg_mirror")
	log.Debug("upserting catalog: sections=%d questions=%d", len(snapshot.Sections), len(snapshot.Questions))

	return pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range snapshot.Sections {
			query, args, err := psql.Insert("sections").
				Columns("id", "slug", "title", "description", "difficulty", "question_count").
				Values(s.ID, s.Slug, s.Title, s.Description, s.Difficulty, s.QuestionCount).
				Suffix(`ON CONFLICT (id) DO UPDATE SET slug = EXCLUDED.slug, title = EXCLUDED.title,
					description = EXCLUDED.description, difficulty = EXCLUDED.difficulty,
					question_count = EXCLUDED.question_count`).
				ToSql()
			if err != nil {
				return err
			}
			batch.Queue(query, args...)
		}
		for _, q := range snapshot.Questions {
			query, args, err := psql.Insert("questions").
				Columns("section_id", "id", "text", "type", "options", "correct_answer", "explanation", "time_limit_seconds", "points").
				Values(q.SectionID, q.ID, q.Text, q.Type, q.Options, q.CorrectAnswer, q.Explanation, q.TimeLimitSeconds, q.Points).
				Suffix(`ON CONFLICT (section_id, id) DO UPDATE SET text = EXCLUDED.text, type = EXCLUDED.type,
					options = EXCLUDED.options, correct_answer = EXCLUDED.correct_answer,
					explanation = EXCLUDED.explanation, time_limit_seconds = EXCLUDED.time_limit_seconds,
					points = EXCLUDED.points`).
				ToSql()
			if err != nil {
				return err
			}
			batch.Queue(query, args...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
