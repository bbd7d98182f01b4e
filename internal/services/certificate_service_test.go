package services_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vytor/learncert/internal/catalog"
	apperrors "github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/repository"
	"github.com/vytor/learncert/internal/repository/sqlite"
	"github.com/vytor/learncert/internal/scoring"
	"github.com/vytor/learncert/internal/services"
	"github.com/vytor/learncert/internal/testutil"
)

const ada = "ada@example.com"

type CertificateServiceSuite struct {
	suite.Suite
	db          *sql.DB
	completions repository.CompletionRepository
	certRepo    repository.CertificateRepository
	svc         services.CertificateService
	learning    services.LearningService
}

func (s *CertificateServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.completions = sqlite.NewCompletionRepository(s.db)
	s.certRepo = sqlite.NewCertificateRepository(s.db)
	responses := sqlite.NewResponseRepository(s.db)
	s.svc = services.NewCertificateService(s.certRepo, s.completions, responses, disabledSync(), scoring.DefaultRules())
	s.learning = services.NewLearningService(responses, s.completions, s.svc, disabledSync())
	testutil.SeedUser(s.T(), s.db, "Ada", ada)
}

func (s *CertificateServiceSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *CertificateServiceSuite) complete(correct, answered int) {
	_, err := s.completions.Upsert(context.Background(), models.SectionCompletion{
		UserEmail: ada, SectionID: 1, QuestionsAnswered: answered, QuestionsCorrect: correct,
		Score: correct * 10, Accuracy: scoring.Accuracy(correct, answered), CompletedAt: time.Now(),
	})
	s.Require().NoError(err)
}

func (s *CertificateServiceSuite) TestNoCompletionsNoCertificates() {
	certs, err := s.svc.Evaluate(context.Background(), ada)
	s.Require().NoError(err)
	s.Assert().Empty(certs)

	status, err := s.svc.MasterStatus(context.Background(), ada)
	s.Require().NoError(err)
	s.Assert().False(status.Eligible)
	s.Assert().Contains(status.Reason, "complete at least 1 section")
}

func (s *CertificateServiceSuite) TestSectionEligibleMasterNot() {
	s.complete(6, 8) // 75%

	certs, err := s.svc.Evaluate(context.Background(), ada)
	s.Require().NoError(err)
	s.Require().Len(certs, 2)

	section, master := certs[0], certs[1]
	s.Assert().Equal(models.CertificateKindSection, section.Kind)
	s.Assert().True(section.Eligible)
	s.Assert().NotEmpty(section.CertificateNumber)
	s.Assert().NotNil(section.AwardedAt)

	s.Assert().Equal(models.CertificateKindMaster, master.Kind)
	s.Assert().False(master.Eligible)
	s.Assert().Empty(master.CertificateNumber)
	s.Assert().Equal(75, master.Accuracy)
}

func (s *CertificateServiceSuite) TestCertificateNumberStableAcrossReevaluation() {
	s.complete(8, 8)
	first, err := s.svc.Evaluate(context.Background(), ada)
	s.Require().NoError(err)

	s.complete(7, 8) // 88%, still eligible for both
	second, err := s.svc.Evaluate(context.Background(), ada)
	s.Require().NoError(err)

	s.Require().Len(second, 2)
	for i := range first {
		s.Assert().Equal(first[i].CertificateNumber, second[i].CertificateNumber)
	}
	s.Assert().Equal(88, second[1].Accuracy)
}

func (s *CertificateServiceSuite) TestEligibilityFlipsBothWays() {
	s.complete(8, 8)
	_, err := s.svc.Evaluate(context.Background(), ada)
	s.Require().NoError(err)

	s.complete(2, 8)
	certs, err := s.svc.Evaluate(context.Background(), ada)
	s.Require().NoError(err)
	s.Assert().False(certs[0].Eligible)
	s.Assert().False(certs[1].Eligible)

	_, err = s.svc.Download(context.Background(), ada, models.CertificateKindSection, 1)
	s.Require().Error(err)
	s.Assert().Equal(apperrors.ErrCodeConflict, apperrors.AsAppError(err).Code)
}

func (s *CertificateServiceSuite) TestDownloadCountsAndValidates() {
	s.complete(8, 8)
	ctx := context.Background()

	rec, err := s.svc.Download(ctx, ada, models.CertificateKindMaster, 99)
	s.Require().NoError(err)
	s.Assert().Equal(0, rec.SectionID)
	s.Assert().Equal(1, rec.DownloadCount)

	rec, err = s.svc.Download(ctx, ada, models.CertificateKindMaster, 0)
	s.Require().NoError(err)
	s.Assert().Equal(2, rec.DownloadCount)
	s.Assert().NotNil(rec.LastDownloadedAt)

	_, err = s.svc.Download(ctx, ada, "platinum", 0)
	s.Assert().Equal(apperrors.ErrCodeValidation, apperrors.AsAppError(err).Code)

	_, err = s.svc.Download(ctx, ada, models.CertificateKindSection, 42)
	s.Assert().True(apperrors.IsNotFound(err))
}

// answerSection answers every question of section 1, all right or all wrong.
func (s *CertificateServiceSuite) answerSection(right bool) {
	for _, q := range catalog.Questions(1) {
		answer := q.CorrectAnswer
		if !right {
			answer = wrongAnswer(q)
		}
		_, err := s.learning.SubmitAnswer(context.Background(), ada, 1, q.ID, answer, 900)
		s.Require().NoError(err)
	}
}

func (s *CertificateServiceSuite) TestReanswerWrongRevokesBeforeDownload() {
	ctx := context.Background()
	s.answerSection(true)
	result, err := s.learning.CompleteSection(ctx, ada, 1, 60)
	s.Require().NoError(err)
	s.Require().True(result.Master.Eligible)

	// The stored completion still says 100% until something reconciles it.
	s.answerSection(false)

	status, err := s.svc.MasterStatus(ctx, ada)
	s.Require().NoError(err)
	s.Assert().False(status.Eligible)
	s.Assert().Equal(0, status.OverallAccuracy)

	_, err = s.svc.Download(ctx, ada, models.CertificateKindMaster, 0)
	s.Require().Error(err)
	s.Assert().Equal(apperrors.ErrCodeConflict, apperrors.AsAppError(err).Code)

	_, err = s.svc.Download(ctx, ada, models.CertificateKindSection, 1)
	s.Assert().Equal(apperrors.ErrCodeConflict, apperrors.AsAppError(err).Code)

	stored, err := s.completions.Get(ctx, ada, 1)
	s.Require().NoError(err)
	s.Assert().Equal(0, stored.Accuracy)

	certs, err := s.svc.List(ctx, ada)
	s.Require().NoError(err)
	s.Require().Len(certs, 2)
	s.Assert().False(certs[0].Eligible)
	s.Assert().False(certs[1].Eligible)
	s.Assert().NotEmpty(certs[1].CertificateNumber)
}

func (s *CertificateServiceSuite) TestRefreshReportsReconciledCompletions() {
	ctx := context.Background()
	s.answerSection(true)
	s.complete(1, 8)

	standing, err := s.svc.Refresh(ctx, ada)
	s.Require().NoError(err)
	s.Assert().Equal(1, standing.Reconciled)
	s.Require().Len(standing.Completions, 1)
	s.Assert().Equal(100, standing.Completions[0].Accuracy)
	s.Require().Len(standing.Certificates, 2)
	s.Assert().True(standing.Certificates[1].Eligible)

	again, err := s.svc.Refresh(ctx, ada)
	s.Require().NoError(err)
	s.Assert().Zero(again.Reconciled)
}

func TestCertificateServiceSuite(t *testing.T) {
	suite.Run(t, new(CertificateServiceSuite))
}
