package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/learncert/internal/catalog"
	"github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
	"github.com/vytor/learncert/internal/scoring"
)

// LearningService handles answering questions and completing sections
type LearningService interface {
	Sections(ctx context.Context) []models.Section
	Section(ctx context.Context, sectionID int) (*models.Section, error)
	Questions(ctx context.Context, sectionID int) ([]models.Question, error)
	SubmitAnswer(ctx context.Context, email string, sectionID, questionID int, answer string, responseTimeMs int64) (*models.AnswerResult, error)
	CompleteSection(ctx context.Context, email string, sectionID, timeSpentSeconds int) (*models.CompletionResult, error)
	SectionProgress(ctx context.Context, email string, sectionID int) (*models.SectionProgress, error)
}

type learningService struct {
	responseRepo   repository.ResponseRepository
	completionRepo repository.CompletionRepository
	certs          CertificateService
	sync           SyncService
	now            func() time.Time
}

// NewLearningService creates a new LearningService
func NewLearningService(
	responseRepo repository.ResponseRepository,
	completionRepo repository.CompletionRepository,
	certs CertificateService,
	sync SyncService,
) LearningService {
	return &learningService{
		responseRepo:   responseRepo,
		completionRepo: completionRepo,
		certs:          certs,
		sync:           sync,
		now:            time.Now,
	}
}

func (s *learningService) Sections(ctx context.Context) []models.Section {
	return catalog.Sections()
}

func (s *learningService) Section(ctx context.Context, sectionID int) (*models.Section, error) {
	sec, ok := catalog.Section(sectionID)
	if !ok {
		return nil, errors.NewNotFoundError("section", sectionID)
	}
	return &sec, nil
}

// Questions returns the section's questions without their answer key.
func (s *learningService) Questions(ctx context.Context, sectionID int) ([]models.Question, error) {
	if _, err := s.Section(ctx, sectionID); err != nil {
		return nil, err
	}
	qs := catalog.Questions(sectionID)
	for i := range qs {
		qs[i] = qs[i].Public()
	}
	return qs, nil
}

func (s *learningService) SubmitAnswer(ctx context.Context, email string, sectionID, questionID int, answer string, responseTimeMs int64) (*models.AnswerResult, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	log.Debug("submitting answer: email=%s section=%d question=%d", email, sectionID, questionID)

	if _, err := s.Section(ctx, sectionID); err != nil {
		return nil, err
	}
	q, ok := catalog.Question(sectionID, questionID)
	if !ok {
		return nil, errors.NewNotFoundError("question", questionID)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, errors.NewValidationError("answer", "cannot be empty")
	}
	if responseTimeMs < 0 {
		responseTimeMs = 0
	}

	correct := catalog.Grade(q, answer)
	resp := models.QuestionResponse{
		ID:             uuid.NewString(),
		UserEmail:      email,
		SectionID:      sectionID,
		QuestionID:     questionID,
		Answer:         answer,
		IsCorrect:      correct,
		ResponseTimeMs: responseTimeMs,
		RespondedAt:    s.now().UTC(),
	}
	if correct {
		resp.PointsEarned = q.Points
	}

	if err := s.responseRepo.Insert(ctx, resp); err != nil {
		log.Error("failed to insert response: %v", err)
		return nil, errors.NewInternalError(err)
	}
	s.sync.Record(ctx, models.MirrorInsertResponse, email, resp.ID, resp)

	return &models.AnswerResult{
		Response:      resp,
		Correct:       correct,
		CorrectAnswer: catalog.CorrectAnswerText(q),
		Explanation:   q.Explanation,
	}, nil
}

func (s *learningService) CompleteSection(ctx context.Context, email string, sectionID, timeSpentSeconds int) (*models.CompletionResult, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)
	log.Debug("completing section: email=%s section=%d", email, sectionID)

	if _, err := s.Section(ctx, sectionID); err != nil {
		return nil, err
	}
	if timeSpentSeconds < 0 {
		return nil, errors.NewValidationError("time_spent_seconds", "cannot be negative")
	}

	responses, err := s.responseRepo.List(ctx, models.ResponseFilter{UserEmail: email, SectionID: sectionID})
	if err != nil {
		log.Error("failed to list responses: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if len(responses) == 0 {
		return nil, errors.NewValidationError("section", "answer at least one question before completing")
	}

	completion, _ := scoring.Reconcile(models.SectionCompletion{UserEmail: email, SectionID: sectionID}, responses)
	completion.TimeSpentSeconds = timeSpentSeconds
	completion.CompletedAt = s.now().UTC()

	saved, err := s.completionRepo.Upsert(ctx, completion)
	if err != nil {
		log.Error("failed to upsert completion: %v", err)
		return nil, errors.NewInternalError(err)
	}
	s.sync.Record(ctx, models.MirrorUpsertCompletion, saved.UserEmail, completionKey(saved), saved)
	log.Info("section completed: email=%s section=%d accuracy=%d", email, sectionID, saved.Accuracy)

	certs, err := s.certs.Evaluate(ctx, email)
	if err != nil {
		return nil, err
	}
	master, err := s.certs.MasterStatus(ctx, email)
	if err != nil {
		return nil, err
	}

	result := &models.CompletionResult{Completion: *saved, Master: *master}
	for i := range certs {
		if certs[i].Kind == models.CertificateKindSection && certs[i].SectionID == sectionID {
			result.Certificate = &certs[i]
			result.Eligible = certs[i].Eligible
		}
	}
	return result, nil
}

func (s *learningService) SectionProgress(ctx context.Context, email string, sectionID int) (*models.SectionProgress, error) {
	log := logger.FromContext(ctx)
	email = NormalizeEmail(email)

	sec, err := s.Section(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	responses, err := s.responseRepo.List(ctx, models.ResponseFilter{UserEmail: email, SectionID: sectionID})
	if err != nil {
		log.Error("failed to list responses: %v", err)
		return nil, errors.NewInternalError(err)
	}
	completion, err := s.completionRepo.Get(ctx, email, sectionID)
	if err != nil {
		log.Error("failed to get completion: %v", err)
		return nil, errors.NewInternalError(err)
	}

	progress := &models.SectionProgress{
		SectionID:         sectionID,
		QuestionCount:     sec.QuestionCount,
		AnsweredQuestions: []int{},
		Completed:         completion != nil,
	}
	latest := scoring.LatestResponses(responses)
	for _, r := range latest {
		progress.AnsweredQuestions = append(progress.AnsweredQuestions, r.QuestionID)
		if r.IsCorrect {
			progress.QuestionsCorrect++
		}
	}
	sort.Ints(progress.AnsweredQuestions)
	progress.Accuracy = scoring.Accuracy(progress.QuestionsCorrect, len(latest))
	return progress, nil
}

func completionKey(c *models.SectionCompletion) string {
	return fmt.Sprintf("%s/%d", c.UserEmail, c.SectionID)
}
